package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/patientor/internal/loadtest"
	"github.com/okian/patientor/pkg/logger"
)

// Default configuration constants.
const (
	defaultPatients    = 50
	defaultEntries     = 20
	defaultInvalid     = 0.2
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:3001", "Base URL of the service")
		patients = flag.Int("patients", defaultPatients, "Number of patients to create")
		entries  = flag.Int("entries", defaultEntries, "Entries to post per patient")
		invalid  = flag.Float64("invalid", defaultInvalid, "Share of deliberately invalid entries (0..1)")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Payload generator seed")
		output   = flag.String("output", "", "Write generated entry payloads to this file")
		format   = flag.String("log-format", logger.FormatText, "Log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	_, err := loadtest.Run(ctx, &loadtest.Config{
		BaseURL:           *baseURL,
		Patients:          *patients,
		EntriesPerPatient: *entries,
		InvalidRatio:      *invalid,
		Workers:           *workers,
		Timeout:           *timeout,
		Seed:              *seed,
		OutputFile:        *output,
	})
	if err != nil {
		logger.Get().Error(ctx, "load test failed", logger.Error(err))
		os.Exit(1)
	}
}
