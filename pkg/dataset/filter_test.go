package dataset

import (
	"reflect"
	"testing"
)

func TestRecord_Field(t *testing.T) {
	r := Record{
		"species": "Cod",
		"year":    float64(2024),
		"price":   4.85,
		"active":  true,
		"note":    nil,
	}

	tests := []struct {
		field string
		want  string
	}{
		{"species", "Cod"},
		{"year", "2024"},
		{"price", "4.85"},
		{"active", "true"},
		{"note", ""},
		{"missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := r.Field(tt.field); got != tt.want {
				t.Errorf("Field(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestApplyFilters(t *testing.T) {
	records := []Record{
		{"species": "Cod", "origin": "Norway", "id": float64(1)},
		{"species": "Salmon", "origin": "Norway", "id": float64(2)},
		{"species": "Cod", "origin": "Iceland", "id": float64(3)},
	}

	tests := []struct {
		name    string
		filters FilterSet
		wantIDs []string
	}{
		{
			name:    "single field keeps order",
			filters: FilterSet{"species": "Cod"},
			wantIDs: []string{"1", "3"},
		},
		{
			name:    "fields are combined with AND",
			filters: FilterSet{"species": "Cod", "origin": "Norway"},
			wantIDs: []string{"1"},
		},
		{
			name:    "empty value means no filter",
			filters: FilterSet{"species": "", "origin": "Norway"},
			wantIDs: []string{"1", "2"},
		},
		{
			name:    "nil filter set returns everything",
			filters: nil,
			wantIDs: []string{"1", "2", "3"},
		},
		{
			name:    "no match",
			filters: FilterSet{"species": "Hake"},
			wantIDs: []string{},
		},
		{
			name:    "exact match only",
			filters: FilterSet{"species": "cod"},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilters(records, tt.filters)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.Field("id"))
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("ApplyFilters() ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

// Every returned record matches every non-empty filter and appears in the
// same relative order as in the input.
func TestApplyFilters_Subsequence(t *testing.T) {
	species := []string{"Cod", "Salmon", "Hake", "Cod", "Tuna", "Salmon", "Cod"}
	origins := []string{"Norway", "Chile", "Spain"}

	var records []Record
	for i := 0; i < 60; i++ {
		records = append(records, Record{
			"species": species[i%len(species)],
			"origin":  origins[i%len(origins)],
			"idx":     float64(i),
		})
	}

	filterSets := []FilterSet{
		{"species": "Cod"},
		{"origin": "Chile"},
		{"species": "Salmon", "origin": "Chile"},
		{"species": "", "origin": ""},
	}

	for _, f := range filterSets {
		got := ApplyFilters(records, f)
		last := -1
		for _, r := range got {
			if !f.Matches(r) {
				t.Errorf("record %v does not match %v", r, f)
			}
			idx := int(r["idx"].(float64))
			if idx <= last {
				t.Errorf("order not preserved: %d after %d", idx, last)
			}
			last = idx
		}
	}
}

func TestApplyFilters_DoesNotMutateInput(t *testing.T) {
	records := []Record{{"species": "Cod"}, {"species": "Salmon"}}
	_ = ApplyFilters(records, FilterSet{"species": "Salmon"})
	if records[0].Field("species") != "Cod" || len(records) != 2 {
		t.Errorf("input mutated: %v", records)
	}
}

func TestFilterOptions(t *testing.T) {
	records := []Record{
		{"species": "Salmon", "origin": "Norway"},
		{"species": "Cod", "origin": "Norway"},
		{"species": "Salmon", "origin": ""},
		{"species": "Atlantic Cod"},
	}

	got := FilterOptions(records, []string{"species", "origin", "missing"})
	want := map[string][]string{
		"species": {"Atlantic Cod", "Cod", "Salmon"},
		"origin":  {"Norway"},
		"missing": {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterOptions() = %v, want %v", got, want)
	}
}
