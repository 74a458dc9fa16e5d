package loadtest

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

var (
	specialists = []string{"Dr. House", "Dr. Quinn", "Dr. Zhivago", "Dr. Watson"}
	employers   = []string{"FBI", "LAPD", "Nakatomi", "HyPD"}
	codes       = []string{"M24.2", "M51.2", "S03.5", "J10.1", "J06.9", "Z57.1", "N30.0", "H54.7"}
	genders     = []string{"male", "female", "other"}
)

// invalidEntries are payloads the normalizer must reject.
var invalidEntries = []string{
	`{"type":"Checkup","description":"d","date":"2023-01-01","specialist":"s"}`,
	`{"type":"HealthCheck","description":"d","date":"2023-01-01","specialist":"s","healthCheckRating":4}`,
	`{"type":"HealthCheck","description":"d","date":"not-a-date","specialist":"s","healthCheckRating":1}`,
	`{"type":"Hospital","description":"d","date":"2023-01-01","specialist":"s","discharge":{"date":"2023-01-02"}}`,
	`{"type":"OccupationalHealthcare","description":"d","date":"2023-01-01","specialist":"s","employerName":"e"}`,
	`{"type":"Hospital","description":"d","date":"2023-01-01","specialist":"s","diagnosisCodes":"S62.5","discharge":{"date":"2023-01-02","criteria":"c"}}`,
}

type generator struct {
	rng *rand.Rand
}

func newGenerator(seed uint64) *generator {
	return &generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *generator) pick(xs []string) string {
	return xs[g.rng.IntN(len(xs))]
}

func (g *generator) date() string {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.AddDate(0, 0, g.rng.IntN(3000)).Format(time.DateOnly)
}

func (g *generator) patient() string {
	body, _ := json.Marshal(map[string]string{
		"name":        "Load " + uuid.NewString()[:8],
		"dateOfBirth": g.date(),
		"ssn":         fmt.Sprintf("%06d-%03d", g.rng.IntN(1_000_000), g.rng.IntN(1000)),
		"gender":      g.pick(genders),
		"occupation":  "Tester",
	})
	return string(body)
}

func (g *generator) entry() string {
	base := map[string]any{
		"description": "Load test visit",
		"date":        g.date(),
		"specialist":  g.pick(specialists),
	}
	if g.rng.IntN(2) == 0 {
		base["diagnosisCodes"] = []string{g.pick(codes), g.pick(codes)}
	}

	switch g.rng.IntN(3) {
	case 0:
		base["type"] = "HealthCheck"
		base["healthCheckRating"] = g.rng.IntN(4)
	case 1:
		base["type"] = "OccupationalHealthcare"
		base["employerName"] = g.pick(employers)
		start := g.date()
		base["sickLeave"] = map[string]string{"startDate": start, "endDate": start}
	default:
		base["type"] = "Hospital"
		base["discharge"] = map[string]string{"date": g.date(), "criteria": "Recovered"}
	}
	body, _ := json.Marshal(base)
	return string(body)
}

// jobs builds the entry submissions for the given patients.
func (g *generator) jobs(patientIDs []string, perPatient int, invalidRatio float64) []job {
	out := make([]job, 0, len(patientIDs)*perPatient)
	for _, id := range patientIDs {
		for i := 0; i < perPatient; i++ {
			if g.rng.Float64() < invalidRatio {
				out = append(out, job{PatientID: id, Body: g.pick(invalidEntries)})
				continue
			}
			out = append(out, job{PatientID: id, Body: g.entry(), Valid: true})
		}
	}
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
