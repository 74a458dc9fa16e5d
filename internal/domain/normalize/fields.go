package normalize

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/okian/patientor/internal/domain/model"
	"github.com/tidwall/gjson"
)

// describe renders a payload value the way it appears in error messages.
func describe(v gjson.Result) string {
	switch {
	case !v.Exists():
		return "undefined"
	case v.Type == gjson.String:
		return v.Str
	default:
		return v.Raw
	}
}

// falsy mirrors the loose truthiness the web client relies on: missing,
// null, false, 0 and "" are all treated as absent.
func falsy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.Number:
		return v.Num == 0
	case gjson.String:
		return v.Str == ""
	}
	return false
}

func parseString(field string, v gjson.Result) (string, error) {
	if v.Type != gjson.String || v.Str == "" {
		return "", invalid(field, "Incorrect or missing field "+describe(v))
	}
	return v.Str, nil
}

// isDate reports whether s parses as a calendar date. Parsing happens in UTC
// so the answer does not depend on the host timezone.
func isDate(s string) bool {
	_, err := dateparse.ParseIn(s, time.UTC)
	return err == nil
}

func parseDate(field string, v gjson.Result) (string, error) {
	if v.Type != gjson.String || v.Str == "" || !isDate(v.Str) {
		return "", invalid(field, "Incorrect or missing date: "+describe(v))
	}
	return v.Str, nil
}

func parseEntryType(v gjson.Result) (model.EntryType, error) {
	t := model.EntryType(v.Str)
	if v.Type != gjson.String || !t.Valid() {
		return "", invalid("type", "Incorrect or missing field "+describe(v))
	}
	return t, nil
}

// parseCodes returns nil for an absent list and the codes, unchanged, for a
// list of strings. An empty list stays an empty, non-nil slice.
func parseCodes(v gjson.Result) ([]string, error) {
	if falsy(v) {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, invalid("diagnosisCodes", "Incorrect diagnosis codes")
	}
	items := v.Array()
	codes := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			return nil, invalid("diagnosisCodes", "Incorrect diagnosis codes")
		}
		codes = append(codes, item.Str)
	}
	return codes, nil
}

// parseRating accepts exactly the integral numbers 0..3. Zero is Healthy,
// not missing.
func parseRating(v gjson.Result) (model.HealthCheckRating, error) {
	if v.Type == gjson.Number && v.Num == float64(int(v.Num)) {
		if r := model.HealthCheckRating(int(v.Num)); r.Valid() {
			return r, nil
		}
	}
	return 0, invalid("healthCheckRating", "Incorrect or missing health check rating: "+describe(v))
}

func parseSickLeave(v gjson.Result) (*model.SickLeave, error) {
	start, end := v.Get("startDate"), v.Get("endDate")
	if falsy(v) || !v.IsObject() || falsy(start) || falsy(end) {
		return nil, invalid("sickLeave", "Incorrect or missing sick leave: "+describe(v))
	}
	startDate, err := parseDate("sickLeave.startDate", start)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate("sickLeave.endDate", end)
	if err != nil {
		return nil, err
	}
	return &model.SickLeave{StartDate: startDate, EndDate: endDate}, nil
}

func parseDischarge(v gjson.Result) (model.Discharge, error) {
	date, criteria := v.Get("date"), v.Get("criteria")
	if falsy(v) || !v.IsObject() || falsy(date) || falsy(criteria) {
		return model.Discharge{}, invalid("discharge", "Incorrect or missing discharge: "+describe(v))
	}
	d, err := parseDate("discharge.date", date)
	if err != nil {
		return model.Discharge{}, err
	}
	c, err := parseString("discharge.criteria", criteria)
	if err != nil {
		return model.Discharge{}, err
	}
	return model.Discharge{Date: d, Criteria: c}, nil
}

func parseGender(v gjson.Result) (model.Gender, error) {
	g := model.Gender(v.Str)
	if v.Type != gjson.String || !g.Valid() {
		return "", invalid("gender", "Incorrect or missing gender: "+describe(v))
	}
	return g, nil
}
