package dataset

import "strconv"

// Page is one window of filtered records plus pagination metadata.
// The JSON shape matches the envelope the REST backend uses.
type Page struct {
	Data       []Record `json:"data"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalCount int      `json:"total_count"`
	TotalPages int      `json:"total_pages"`
}

// TotalPages returns ceil(count/pageSize); 0 for an empty sequence.
func TotalPages(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// Paginate slices filtered to the records of pageNumber. Bounds are
// [(pageNumber-1)*pageSize, pageNumber*pageSize) truncated to the available
// length; callers are expected to keep pageNumber in range.
func Paginate(filtered []Record, pageNumber, pageSize int) Page {
	total := len(filtered)
	p := Page{
		Data:       []Record{},
		Page:       pageNumber,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: TotalPages(total, pageSize),
	}
	if pageSize <= 0 || pageNumber < 1 {
		return p
	}

	start := (pageNumber - 1) * pageSize
	if start >= total {
		return p
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	p.Data = filtered[start:end]
	return p
}

// Label is one entry of the compressed page-number bar.
type Label struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// String renders the page number or "...".
func (l Label) String() string {
	if l.Ellipsis {
		return "..."
	}
	return strconv.Itoa(l.Page)
}

const maxUncompressedPages = 7

// PageLabels computes the page-number bar for currentPage out of totalPages.
// Up to 7 pages are listed in full. Beyond that the first and last pages are
// always shown, with a three-page window around the current page and an
// ellipsis wherever the window does not touch an endpoint.
func PageLabels(currentPage, totalPages int) []Label {
	if totalPages <= 0 {
		return []Label{}
	}
	if totalPages <= maxUncompressedPages {
		labels := make([]Label, 0, totalPages)
		for i := 1; i <= totalPages; i++ {
			labels = append(labels, Label{Page: i})
		}
		return labels
	}

	start := max(2, currentPage-1)
	end := min(totalPages-1, currentPage+1)
	if currentPage <= 3 {
		end = 4
	}
	if currentPage >= totalPages-2 {
		start = totalPages - 3
	}

	labels := []Label{{Page: 1}}
	if start > 2 {
		labels = append(labels, Label{Ellipsis: true})
	}
	for i := start; i <= end; i++ {
		labels = append(labels, Label{Page: i})
	}
	if end < totalPages-1 {
		labels = append(labels, Label{Ellipsis: true})
	}
	return append(labels, Label{Page: totalPages})
}

// LabelStrings renders labels as strings, e.g. ["1", "...", "4", "5"].
func LabelStrings(labels []Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.String()
	}
	return out
}
