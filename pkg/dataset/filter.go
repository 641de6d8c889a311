package dataset

import "sort"

// FilterSet maps a field name to the selected value. An empty value means
// "no filter" for that field.
type FilterSet map[string]string

// Active returns a copy containing only the non-empty entries.
func (f FilterSet) Active() FilterSet {
	out := make(FilterSet, len(f))
	for k, v := range f {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Clone returns an independent copy of the filter set.
func (f FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Matches reports whether the record satisfies every non-empty filter.
func (f FilterSet) Matches(r Record) bool {
	for field, want := range f {
		if want == "" {
			continue
		}
		if r.Field(field) != want {
			return false
		}
	}
	return true
}

// ApplyFilters returns the records matching every non-empty filter entry,
// in their original order. The input slice is not modified.
func ApplyFilters(records []Record, filters FilterSet) []Record {
	active := filters.Active()
	out := make([]Record, 0, len(records))
	if len(active) == 0 {
		return append(out, records...)
	}
	for _, r := range records {
		if active.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterOptions returns, for each nominated field, the sorted distinct values
// found across all records. Empty values are not offered as options.
func FilterOptions(records []Record, fields []string) map[string][]string {
	options := make(map[string][]string, len(fields))
	for _, field := range fields {
		seen := make(map[string]struct{})
		values := []string{}
		for _, r := range records {
			v := r.Field(field)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
		sort.Strings(values)
		options[field] = values
	}
	return options
}
