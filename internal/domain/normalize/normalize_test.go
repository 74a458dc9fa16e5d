package normalize_test

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/okian/patientor/internal/domain/model"
	"github.com/okian/patientor/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
)

func entryOf(body string) (model.Entry, error) {
	return normalize.Entry(gjson.Parse(body))
}

func validationErr(err error) *normalize.ValidationError {
	var verr *normalize.ValidationError
	So(errors.As(err, &verr), ShouldBeTrue)
	return verr
}

func TestEntry_HealthCheck(t *testing.T) {
	Convey("Given a health check payload rated Healthy", t, func() {
		body := `{"type":"HealthCheck","description":"Annual","date":"2023-01-05","specialist":"Dr. X","healthCheckRating":0}`

		Convey("When it is normalized", func() {
			e, err := entryOf(body)

			Convey("Then the zero rating is kept and no codes are set", func() {
				So(err, ShouldBeNil)
				So(e, ShouldResemble, model.HealthCheckEntry{
					BaseEntry: model.BaseEntry{
						Description: "Annual",
						Date:        "2023-01-05",
						Specialist:  "Dr. X",
					},
					HealthCheckRating: model.Healthy,
				})
				So(e.Base().ID, ShouldBeEmpty)
				So(e.Base().DiagnosisCodes, ShouldBeNil)
			})
		})
	})

	Convey("Given every defined rating", t, func() {
		for _, rating := range []string{"0", "1", "2", "3"} {
			body := `{"type":"HealthCheck","description":"d","date":"2023-01-05","specialist":"s","healthCheckRating":` + rating + `}`
			e, err := entryOf(body)
			So(err, ShouldBeNil)
			So(int(e.(model.HealthCheckEntry).HealthCheckRating), ShouldEqual, int(gjson.Parse(rating).Int()))
		}
	})

	Convey("Given ratings outside the enum", t, func() {
		cases := map[string]string{
			`4`:         "4",
			`-1`:        "-1",
			`1.5`:       "1.5",
			`"1"`:       "1",
			`"Healthy"`: "Healthy",
			`null`:      "null",
		}
		for raw, shown := range cases {
			body := `{"type":"HealthCheck","description":"d","date":"2023-01-05","specialist":"s","healthCheckRating":` + raw + `}`
			_, err := entryOf(body)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldEqual, "Incorrect or missing health check rating: "+shown)
			So(validationErr(err).Field, ShouldEqual, "healthCheckRating")
		}
	})

	Convey("Given a health check without a rating", t, func() {
		_, err := entryOf(`{"type":"HealthCheck","description":"d","date":"2023-01-05","specialist":"s"}`)

		Convey("Then the rating is reported as undefined", func() {
			So(err.Error(), ShouldEqual, "Incorrect or missing health check rating: undefined")
		})
	})
}

func TestEntry_Hospital(t *testing.T) {
	Convey("Given a hospital payload with a discharge", t, func() {
		body := `{"type":"Hospital","description":"Fall","date":"2023-02-01","specialist":"Dr. Y","discharge":{"date":"2023-02-10","criteria":"Recovered"}}`

		Convey("When it is normalized", func() {
			e, err := entryOf(body)

			Convey("Then the nested discharge is built", func() {
				So(err, ShouldBeNil)
				hospital, ok := e.(model.HospitalEntry)
				So(ok, ShouldBeTrue)
				So(hospital.Type(), ShouldEqual, model.HospitalType)
				So(hospital.Discharge, ShouldResemble, model.Discharge{Date: "2023-02-10", Criteria: "Recovered"})
			})
		})
	})

	Convey("Given broken discharges", t, func() {
		prefix := `{"type":"Hospital","description":"Fall","date":"2023-02-01","specialist":"Dr. Y"`

		Convey("Then a missing discharge is rejected", func() {
			_, err := entryOf(prefix + `}`)
			So(err.Error(), ShouldEqual, "Incorrect or missing discharge: undefined")
		})

		Convey("Then a discharge without criteria is rejected", func() {
			_, err := entryOf(prefix + `,"discharge":{"date":"2023-02-10"}}`)
			So(err.Error(), ShouldStartWith, "Incorrect or missing discharge: ")
		})

		Convey("Then a discharge with an empty criteria is rejected", func() {
			_, err := entryOf(prefix + `,"discharge":{"date":"2023-02-10","criteria":""}}`)
			So(err.Error(), ShouldStartWith, "Incorrect or missing discharge: ")
		})

		Convey("Then an unparseable discharge date is a date error", func() {
			_, err := entryOf(prefix + `,"discharge":{"date":"someday","criteria":"Recovered"}}`)
			So(err.Error(), ShouldEqual, "Incorrect or missing date: someday")
			So(validationErr(err).Field, ShouldEqual, "discharge.date")
		})

		Convey("Then a non-string criteria is a field error", func() {
			_, err := entryOf(prefix + `,"discharge":{"date":"2023-02-10","criteria":42}}`)
			So(err.Error(), ShouldEqual, "Incorrect or missing field 42")
		})
	})
}

func TestEntry_OccupationalHealthcare(t *testing.T) {
	Convey("Given an occupational visit without sick leave", t, func() {
		_, err := entryOf(`{"type":"OccupationalHealthcare","description":"Checkup","date":"2023-03-01","specialist":"Dr. Z","employerName":"Acme"}`)

		Convey("Then it fails on the sick leave", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "Incorrect or missing sick leave")
			So(validationErr(err).Field, ShouldEqual, "sickLeave")
		})
	})

	Convey("Given an occupational visit with a full sick leave", t, func() {
		e, err := entryOf(`{"type":"OccupationalHealthcare","description":"Checkup","date":"2023-03-01","specialist":"Dr. Z","employerName":"Acme","sickLeave":{"startDate":"2023-03-01","endDate":"2023-03-08"}}`)

		Convey("Then employer and interval are kept", func() {
			So(err, ShouldBeNil)
			visit := e.(model.OccupationalHealthcareEntry)
			So(visit.EmployerName, ShouldEqual, "Acme")
			So(visit.SickLeave, ShouldResemble, &model.SickLeave{StartDate: "2023-03-01", EndDate: "2023-03-08"})
		})
	})

	Convey("Given partial or malformed sick leaves", t, func() {
		prefix := `{"type":"OccupationalHealthcare","description":"Checkup","date":"2023-03-01","specialist":"Dr. Z","employerName":"Acme"`

		Convey("Then a missing end date is a sick leave error", func() {
			_, err := entryOf(prefix + `,"sickLeave":{"startDate":"2023-03-01"}}`)
			So(err.Error(), ShouldStartWith, "Incorrect or missing sick leave: ")
		})

		Convey("Then a non-object sick leave is a sick leave error", func() {
			_, err := entryOf(prefix + `,"sickLeave":"two weeks"}`)
			So(err.Error(), ShouldEqual, "Incorrect or missing sick leave: two weeks")
		})

		Convey("Then an unparseable start date is a date error", func() {
			_, err := entryOf(prefix + `,"sickLeave":{"startDate":"soon","endDate":"2023-03-08"}}`)
			So(err.Error(), ShouldEqual, "Incorrect or missing date: soon")
			So(validationErr(err).Field, ShouldEqual, "sickLeave.startDate")
		})
	})

	Convey("Given an occupational visit without an employer", t, func() {
		_, err := entryOf(`{"type":"OccupationalHealthcare","description":"Checkup","date":"2023-03-01","specialist":"Dr. Z"}`)

		Convey("Then the employer is reported before the sick leave", func() {
			So(err.Error(), ShouldEqual, "Incorrect or missing field undefined")
			So(validationErr(err).Field, ShouldEqual, "employerName")
		})
	})
}

func TestEntry_Type(t *testing.T) {
	Convey("Given payloads with unknown or missing types", t, func() {
		cases := map[string]string{
			`{"type":"Unknown"}`:     "Incorrect or missing field Unknown",
			`{"type":"healthcheck"}`: "Incorrect or missing field healthcheck",
			`{"type":""}`:            "Incorrect or missing field ",
			`{"type":5}`:             "Incorrect or missing field 5",
			`{}`:                     "Incorrect or missing field undefined",
			`[]`:                     "Incorrect or missing field undefined",
		}
		for body, msg := range cases {
			_, err := entryOf(body)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "Incorrect or missing field")
			So(err.Error(), ShouldEqual, msg)
			So(errors.Is(err, normalize.ErrValidation), ShouldBeTrue)
		}
	})

	Convey("Given an unknown type with otherwise valid base fields", t, func() {
		_, err := entryOf(`{"type":"Dental","description":"d","date":"2023-01-05","specialist":"s"}`)

		Convey("Then the type is rejected first", func() {
			So(validationErr(err).Field, ShouldEqual, "type")
		})
	})
}

func TestEntry_ShortCircuit(t *testing.T) {
	Convey("Given payloads with several invalid fields", t, func() {
		Convey("Then a missing description wins over a bad date and rating", func() {
			_, err := entryOf(`{"type":"HealthCheck","date":"nope","healthCheckRating":9}`)
			So(validationErr(err).Field, ShouldEqual, "description")
			So(err.Error(), ShouldEqual, "Incorrect or missing field undefined")
		})

		Convey("Then a bad date wins over a missing specialist", func() {
			_, err := entryOf(`{"type":"HealthCheck","description":"d","date":"nope"}`)
			So(validationErr(err).Field, ShouldEqual, "date")
			So(err.Error(), ShouldEqual, "Incorrect or missing date: nope")
		})

		Convey("Then a missing specialist wins over bad codes", func() {
			_, err := entryOf(`{"type":"Hospital","description":"d","date":"2023-01-05","diagnosisCodes":[1]}`)
			So(validationErr(err).Field, ShouldEqual, "specialist")
		})

		Convey("Then bad codes win over variant fields", func() {
			_, err := entryOf(`{"type":"Hospital","description":"d","date":"2023-01-05","specialist":"s","diagnosisCodes":[1]}`)
			So(err.Error(), ShouldEqual, "Incorrect diagnosis codes")
		})
	})
}

func TestEntry_Dates(t *testing.T) {
	Convey("Given various date strings", t, func() {
		build := func(date string) string {
			return `{"type":"HealthCheck","description":"d","date":` + date + `,"specialist":"s","healthCheckRating":1}`
		}

		Convey("Then calendar dates and timestamps are accepted", func() {
			for _, d := range []string{`"2023-01-05"`, `"2023-01-05T10:30:00Z"`, `"2019-08-05"`} {
				_, err := entryOf(build(d))
				So(err, ShouldBeNil)
			}
		})

		Convey("Then out-of-range months and days are rejected", func() {
			_, err := entryOf(build(`"2023-13-40"`))
			So(err.Error(), ShouldEqual, "Incorrect or missing date: 2023-13-40")
		})

		Convey("Then free text, empty strings and numbers are rejected", func() {
			_, err := entryOf(build(`"yesterday-ish"`))
			So(err.Error(), ShouldEqual, "Incorrect or missing date: yesterday-ish")

			_, err = entryOf(build(`""`))
			So(err.Error(), ShouldEqual, "Incorrect or missing date: ")

			_, err = entryOf(build(`20230105`))
			So(err.Error(), ShouldEqual, "Incorrect or missing date: 20230105")
		})
	})
}

func TestEntry_DiagnosisCodes(t *testing.T) {
	Convey("Given a hospital base", t, func() {
		build := func(codes string) string {
			return `{"type":"Hospital","description":"d","date":"2023-01-05","specialist":"s",` + codes + `"discharge":{"date":"2023-01-06","criteria":"ok"}}`
		}

		Convey("When codes are absent", func() {
			e, err := entryOf(build(``))
			So(err, ShouldBeNil)
			So(e.Base().DiagnosisCodes, ShouldBeNil)
		})

		Convey("When codes are an empty list", func() {
			e, err := entryOf(build(`"diagnosisCodes":[],`))
			So(err, ShouldBeNil)
			So(e.Base().DiagnosisCodes, ShouldNotBeNil)
			So(e.Base().DiagnosisCodes, ShouldBeEmpty)
		})

		Convey("When codes are null or empty text", func() {
			for _, raw := range []string{`null`, `""`, `false`, `0`} {
				e, err := entryOf(build(`"diagnosisCodes":` + raw + `,`))
				So(err, ShouldBeNil)
				So(e.Base().DiagnosisCodes, ShouldBeNil)
			}
		})

		Convey("When codes are given they pass through unchanged", func() {
			e, err := entryOf(build(`"diagnosisCodes":["Z57.1","M24.2","Z57.1","z57.1"],`))
			So(err, ShouldBeNil)
			So(e.Base().DiagnosisCodes, ShouldResemble, []string{"Z57.1", "M24.2", "Z57.1", "z57.1"})
		})

		Convey("When codes are not a list of strings", func() {
			for _, raw := range []string{`"Z57.1"`, `["Z57.1",3]`, `{"a":"b"}`, `[null]`} {
				_, err := entryOf(build(`"diagnosisCodes":` + raw + `,`))
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldEqual, "Incorrect diagnosis codes")
			}
		})
	})
}

func TestEntry_RoundTrip(t *testing.T) {
	Convey("Given normalized entries of every variant", t, func() {
		bodies := []string{
			`{"type":"HealthCheck","description":"Annual","date":"2023-01-05","specialist":"Dr. X","healthCheckRating":0}`,
			`{"type":"HealthCheck","description":"Annual","date":"2023-01-05","specialist":"Dr. X","healthCheckRating":2,"diagnosisCodes":[]}`,
			`{"type":"OccupationalHealthcare","description":"Strain","date":"2023-03-01","specialist":"Dr. Z","employerName":"Acme","diagnosisCodes":["Z57.1"],"sickLeave":{"startDate":"2023-03-01","endDate":"2023-03-08"}}`,
			`{"type":"Hospital","description":"Fall","date":"2023-02-01","specialist":"Dr. Y","discharge":{"date":"2023-02-10","criteria":"Recovered"}}`,
		}

		Convey("When each is serialized and normalized again", func() {
			for _, body := range bodies {
				first, err := entryOf(body)
				So(err, ShouldBeNil)
				out, err := json.Marshal(first)
				So(err, ShouldBeNil)
				second, err := normalize.EntryJSON(out)

				// Then the records are equal.
				So(err, ShouldBeNil)
				So(second, ShouldResemble, first)
			}
		})
	})

	Convey("Given a stored entry with an id", t, func() {
		e, err := entryOf(`{"type":"HealthCheck","description":"d","date":"2023-01-05","specialist":"s","healthCheckRating":3}`)
		So(err, ShouldBeNil)
		stored := e.WithID("abc-123")
		out, err := json.Marshal(stored)
		So(err, ShouldBeNil)

		Convey("Then StoredEntry restores the id", func() {
			back, err := normalize.StoredEntry(gjson.ParseBytes(out))
			So(err, ShouldBeNil)
			So(back, ShouldResemble, stored)
		})

		Convey("Then Entry ignores the id", func() {
			back, err := normalize.EntryJSON(out)
			So(err, ShouldBeNil)
			So(back, ShouldResemble, e)
		})
	})

	Convey("Given a stored entry without an id", t, func() {
		_, err := normalize.StoredEntry(gjson.Parse(`{"type":"HealthCheck","description":"d","date":"2023-01-05","specialist":"s","healthCheckRating":3}`))
		So(err, ShouldNotBeNil)
		So(validationErr(err).Field, ShouldEqual, "id")
	})
}

func TestEntryJSON_Malformed(t *testing.T) {
	Convey("Given a body that is not JSON", t, func() {
		_, err := normalize.EntryJSON([]byte(`{"type":`))

		Convey("Then it is a validation error", func() {
			So(errors.Is(err, normalize.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestPatient(t *testing.T) {
	valid := `{"name":"John McClane","dateOfBirth":"1986-07-09","ssn":"090786-122X","gender":"male","occupation":"New york city cop"}`

	Convey("Given a valid patient payload", t, func() {
		p, err := normalize.PatientJSON([]byte(valid))

		Convey("Then every field is kept and the history is empty", func() {
			So(err, ShouldBeNil)
			So(p.Name, ShouldEqual, "John McClane")
			So(p.DateOfBirth, ShouldEqual, "1986-07-09")
			So(p.SSN, ShouldEqual, "090786-122X")
			So(p.Gender, ShouldEqual, model.Male)
			So(p.Occupation, ShouldEqual, "New york city cop")
			So(p.Entries, ShouldNotBeNil)
			So(p.Entries, ShouldBeEmpty)
		})
	})

	Convey("Given a payload that carries entries", t, func() {
		p, err := normalize.PatientJSON([]byte(`{"name":"n","dateOfBirth":"1990-01-01","ssn":"1","gender":"other","occupation":"o","entries":[{"type":"Bogus"}]}`))

		Convey("Then the entries are ignored", func() {
			So(err, ShouldBeNil)
			So(p.Entries, ShouldBeEmpty)
		})
	})

	Convey("Given invalid patient payloads", t, func() {
		cases := []struct {
			body  string
			field string
			msg   string
		}{
			{`{"dateOfBirth":"1986-07-09","ssn":"1","gender":"male","occupation":"o"}`, "name", "Incorrect or missing field undefined"},
			{`{"name":"n","dateOfBirth":"last spring","ssn":"1","gender":"male","occupation":"o"}`, "dateOfBirth", "Incorrect or missing date: last spring"},
			{`{"name":"n","dateOfBirth":"1986-07-09","ssn":12,"gender":"male","occupation":"o"}`, "ssn", "Incorrect or missing field 12"},
			{`{"name":"n","dateOfBirth":"1986-07-09","ssn":"1","gender":"Male","occupation":"o"}`, "gender", "Incorrect or missing gender: Male"},
			{`{"name":"n","dateOfBirth":"1986-07-09","ssn":"1","occupation":"o"}`, "gender", "Incorrect or missing gender: undefined"},
			{`{"name":"n","dateOfBirth":"1986-07-09","ssn":"1","gender":"female","occupation":""}`, "occupation", "Incorrect or missing field "},
		}
		for _, c := range cases {
			_, err := normalize.PatientJSON([]byte(c.body))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldEqual, c.msg)
			So(validationErr(err).Field, ShouldEqual, c.field)
		}
	})
}
