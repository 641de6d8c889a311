// Package dataset holds the in-memory side of the dashboard data layer:
// records, datasets, filtering, filter options and page windows.
package dataset

import (
	"strconv"
	"time"
)

// Record is one row of a dataset (market price, landing, quota or signal).
// Values are whatever the JSON decoder produced: strings, float64, bool or nil.
type Record map[string]any

// Field returns the string form of a field, used for filter equality and
// filter options. Missing and null fields render as "".
func (r Record) Field(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Dataset is the ordered collection of records for one data source.
// A Dataset is replaced wholesale on refetch and never mutated in place.
type Dataset struct {
	Records   []Record  `json:"records"`
	FetchedAt time.Time `json:"fetched_at"`
	SourceKey string    `json:"source_key"`
}

// New builds a Dataset stamped with the given fetch time.
func New(sourceKey string, records []Record, fetchedAt time.Time) Dataset {
	if records == nil {
		records = []Record{}
	}
	return Dataset{
		Records:   records,
		FetchedAt: fetchedAt,
		SourceKey: sourceKey,
	}
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.Records)
}

// IsZero reports whether the dataset was never populated.
func (d Dataset) IsZero() bool {
	return d.Records == nil && d.FetchedAt.IsZero()
}

// Age returns how long ago the dataset was fetched.
func (d Dataset) Age(now time.Time) time.Duration {
	return now.Sub(d.FetchedAt)
}
