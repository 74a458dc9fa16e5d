package loadtest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// verify checks that every patient holds exactly the accepted entries with
// distinct ids, that the listing hides sensitive fields, and that entries for
// unknown patients are refused.
func verify(ctx context.Context, c *client, ids []string, accepted map[string]int) error {
	seen := make(map[string]bool)
	for _, id := range ids {
		status, body, err := c.do(ctx, http.MethodGet, "/api/patients/"+id, "")
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("%w: patient %s: status %d", ErrVerification, id, status)
		}
		entries := gjson.GetBytes(body, "entries").Array()
		if len(entries) != accepted[id] {
			return fmt.Errorf("%w: patient %s has %d entries, %d accepted",
				ErrVerification, id, len(entries), accepted[id])
		}
		for _, e := range entries {
			eid := e.Get("id").String()
			if eid == "" || seen[eid] {
				return fmt.Errorf("%w: missing or duplicate entry id %q", ErrVerification, eid)
			}
			seen[eid] = true
		}
	}

	status, body, err := c.do(ctx, http.MethodGet, "/api/patients", "")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: list patients: status %d", ErrVerification, status)
	}
	leaked := false
	gjson.ParseBytes(body).ForEach(func(_, p gjson.Result) bool {
		leaked = p.Get("ssn").Exists() || p.Get("entries").Exists()
		return !leaked
	})
	if leaked {
		return fmt.Errorf("%w: patient listing exposes ssn or entries", ErrVerification)
	}

	status, _, err = c.do(ctx, http.MethodPost, "/api/patients/loadtest-unknown/entries",
		`{"type":"HealthCheck","description":"d","date":"2023-01-01","specialist":"s","healthCheckRating":0}`)
	if err != nil {
		return err
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("%w: entry for unknown patient returned %d", ErrVerification, status)
	}
	return nil
}
