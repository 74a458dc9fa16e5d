// Package loadtest drives a running patientor service with generated
// patients and entries and checks that it stored exactly what it accepted.
package loadtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/patientor/pkg/logger"
	"github.com/tidwall/gjson"
)

const (
	directoryPermission = 0750
	workerChannelFactor = 2
)

// ErrVerification reports that the service state disagrees with what it acknowledged.
var ErrVerification = errors.New("verification failed")

// Run executes the complete load test.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("loadtest")
	c := newClient(cfg.BaseURL, cfg.Timeout)
	gen := newGenerator(cfg.Seed)

	log.Info(ctx, "starting patientor load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("patients", cfg.Patients),
		logger.Int("entriesPerPatient", cfg.EntriesPerPatient),
		logger.Int("workers", cfg.Workers),
	)

	if err := checkHealth(ctx, c); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	ids, err := createPatients(ctx, c, gen, cfg.Patients)
	stats.PatientsCreated = len(ids)
	if err != nil {
		return stats, fmt.Errorf("patient creation failed: %w", err)
	}

	jobs := gen.jobs(ids, cfg.EntriesPerPatient, cfg.InvalidRatio)
	accepted := submitEntries(ctx, c, jobs, cfg.Workers, stats)

	if err := verify(ctx, c, ids, accepted); err != nil {
		return stats, err
	}
	if cfg.OutputFile != "" {
		if err := saveJobs(cfg.OutputFile, jobs); err != nil {
			log.Warn(ctx, "failed to save payloads", logger.Error(err))
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "final statistics",
		logger.Int("patientsCreated", stats.PatientsCreated),
		logger.Int("entriesSubmitted", stats.EntriesSubmitted),
		logger.Int("entriesAccepted", stats.EntriesAccepted),
		logger.Int("entriesRejected", stats.EntriesRejected),
		logger.Int("entriesFailed", stats.EntriesFailed),
		logger.Int("unexpectedStatus", stats.UnexpectedStatus),
		logger.Duration("duration", stats.Duration),
	)
	if stats.UnexpectedStatus > 0 {
		return stats, fmt.Errorf("%w: %d responses had an unexpected status", ErrVerification, stats.UnexpectedStatus)
	}
	return stats, nil
}

func checkHealth(ctx context.Context, c *client) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", "")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}

func createPatients(ctx context.Context, c *client, gen *generator, n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		status, body, err := c.do(ctx, http.MethodPost, "/api/patients", gen.patient())
		if err != nil {
			return ids, err
		}
		if status != http.StatusCreated {
			return ids, fmt.Errorf("create patient: status %d: %s", status, body)
		}
		ids = append(ids, gjson.GetBytes(body, "id").String())
	}
	return ids, nil
}

// submitEntries posts jobs with a worker pool and returns the number of
// accepted entries per patient.
func submitEntries(ctx context.Context, c *client, jobs []job, workers int, stats *Stats) map[string]int {
	if workers < 1 {
		workers = 1
	}
	var (
		submitted, ok, rejected, failed, unexpected int64

		mu       sync.Mutex
		accepted = make(map[string]int)
		wg       sync.WaitGroup
	)

	ch := make(chan job, workers*workerChannelFactor)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				atomic.AddInt64(&submitted, 1)
				status, _, err := c.do(ctx, http.MethodPost, "/api/patients/"+j.PatientID+"/entries", j.Body)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
				case status == http.StatusCreated:
					atomic.AddInt64(&ok, 1)
					mu.Lock()
					accepted[j.PatientID]++
					mu.Unlock()
					if !j.Valid {
						atomic.AddInt64(&unexpected, 1)
					}
				case status == http.StatusBadRequest:
					atomic.AddInt64(&rejected, 1)
					if j.Valid {
						atomic.AddInt64(&unexpected, 1)
					}
				default:
					atomic.AddInt64(&unexpected, 1)
				}
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case ch <- j:
			}
		}
	}()
	wg.Wait()

	stats.EntriesSubmitted = int(submitted)
	stats.EntriesAccepted = int(ok)
	stats.EntriesRejected = int(rejected)
	stats.EntriesFailed = int(failed)
	stats.UnexpectedStatus = int(unexpected)
	return accepted
}

func saveJobs(filename string, jobs []job) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o600)
}
