package client

import (
	"bytes"
	"encoding/json"

	"github.com/seafoodai/seafood-terminal/pkg/dataset"
)

// Envelope is the paged response form:
// {"data": [...], "page": 1, "page_size": 10, "total_count": 23, "total_pages": 3}.
type Envelope struct {
	Data       []dataset.Record `json:"data"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalCount int              `json:"total_count"`
	TotalPages int              `json:"total_pages"`
}

// DecodeRecords decodes a bare JSON array of records or an envelope. ok is
// false when the body is neither (invalid JSON, an envelope without a data
// array, non-object rows); records is then empty rather than nil.
func DecodeRecords(body []byte) (records []dataset.Record, env *Envelope, ok bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []dataset.Record{}, nil, false
	}

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return []dataset.Record{}, nil, false
		}
		return nonNil(records), nil, true

	case '{':
		var raw struct {
			Data       json.RawMessage `json:"data"`
			Page       int             `json:"page"`
			PageSize   int             `json:"page_size"`
			TotalCount int             `json:"total_count"`
			TotalPages int             `json:"total_pages"`
		}
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return []dataset.Record{}, nil, false
		}
		data := bytes.TrimSpace(raw.Data)
		if len(data) == 0 || data[0] != '[' {
			return []dataset.Record{}, nil, false
		}
		if err := json.Unmarshal(data, &records); err != nil {
			return []dataset.Record{}, nil, false
		}
		records = nonNil(records)
		return records, &Envelope{
			Data:       records,
			Page:       raw.Page,
			PageSize:   raw.PageSize,
			TotalCount: raw.TotalCount,
			TotalPages: raw.TotalPages,
		}, true

	default:
		return []dataset.Record{}, nil, false
	}
}

func nonNil(records []dataset.Record) []dataset.Record {
	if records == nil {
		return []dataset.Record{}
	}
	return records
}
