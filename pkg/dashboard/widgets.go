package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/seafoodai/seafood-terminal/pkg/dataset"
)

// Widget names.
const (
	MarketPrices   = "market_prices"
	Landings       = "landings"
	MarketSignals  = "market_signals"
	QuotaUsage     = "quota_usage"
	GlobalSnapshot = "global_snapshot"
)

// DefaultFetchPageSize is the page size requested from paged endpoints.
const DefaultFetchPageSize = 100

// Widget describes one dataset shown on the dashboard.
type Widget struct {
	Name          string
	Title         string
	Endpoint      string
	Authenticated bool
	Paged         bool
	FetchPageSize int
	FilterFields  []string
	Columns       []string
	TTL           time.Duration
	PageSize      int

	// Transform maps a fetched record to its display row (optional).
	Transform func(dataset.Record) dataset.Record

	// Static rows are served without any network request.
	Static []dataset.Record
}

// IsStatic reports whether the widget serves fixed rows.
func (w Widget) IsStatic() bool {
	return w.Static != nil
}

// Builtins returns the dashboard's widgets keyed by name.
func Builtins() map[string]Widget {
	return map[string]Widget{
		MarketPrices: {
			Name:         MarketPrices,
			Title:        "Market Prices",
			Endpoint:     "market_prices",
			FilterFields: []string{"species_sku", "origin"},
			Columns:      []string{"species_sku", "origin", "price_display", "weekly_trend_display", "yoy_display"},
			TTL:          time.Hour,
			Transform:    marketPriceRow,
		},
		Landings: {
			Name:         Landings,
			Title:        "Auctions & Landings",
			Endpoint:     "landings",
			FilterFields: []string{"species", "port", "date"},
			Columns:      []string{"species", "volume", "avg_price", "port", "date"},
			TTL:          time.Hour,
			Transform:    landingRow,
		},
		MarketSignals: {
			Name:          MarketSignals,
			Title:         "Market Signals",
			Endpoint:      "signals",
			Authenticated: true,
			Columns:       []string{"title", "published_date"},
			TTL:           10 * time.Minute,
			Transform:     signalRow,
		},
		QuotaUsage: {
			Name:    QuotaUsage,
			Title:   "Quota Usage",
			Columns: []string{"fishery", "used_pct"},
			TTL:     24 * time.Hour,
			Static: []dataset.Record{
				{"fishery": "Alaska Crab", "used_pct": float64(78)},
				{"fishery": "Halibut IFQ", "used_pct": float64(62)},
				{"fishery": "Salmon Cook Inlet", "used_pct": float64(42)},
			},
		},
		GlobalSnapshot: {
			Name:    GlobalSnapshot,
			Title:   "Global Snapshot",
			Columns: []string{"source", "summary"},
			TTL:     24 * time.Hour,
			Static: []dataset.Record{
				{"source": "FAO", "summary": "Global catch stable at 90.3 MT"},
				{"source": "Euronext Salmon", "summary": "$7.50/kg (Sept futures)"},
			},
		},
	}
}

// marketPriceRow keeps the API fields and adds display strings.
func marketPriceRow(r dataset.Record) dataset.Record {
	row := make(dataset.Record, len(r)+3)
	for k, v := range r {
		row[k] = v
	}
	row["price_display"] = FormatEuroPrice(number(r, "price"), r.Field("price_unit"))
	row["weekly_trend_display"] = FormatPercent(number(r, "weekly_trend"))
	row["yoy_display"] = FormatPercent(number(r, "yoy"))
	return row
}

// landingRow converts an NMFS landings record to
// {species, volume, avg_price, port, date}.
func landingRow(r dataset.Record) dataset.Record {
	avg := decimal.Zero
	if pounds := number(r, "pounds"); pounds > 0 {
		avg = decimal.NewFromFloat(number(r, "dollars")).Div(decimal.NewFromFloat(pounds))
	}

	return dataset.Record{
		"species":   CleanSpeciesName(r.Field("nmfs_name")),
		"volume":    FormatQuantity(number(r, "metric_tons")),
		"avg_price": FormatUSD(avg),
		"port":      r.Field("region"),
		"date":      r.Field("year"),
	}
}

func signalRow(r dataset.Record) dataset.Record {
	return dataset.Record{
		"title":          r.Field("title"),
		"published_date": r.Field("published_date"),
	}
}

func transformAll(records []dataset.Record, transform func(dataset.Record) dataset.Record) []dataset.Record {
	out := make([]dataset.Record, len(records))
	for i, r := range records {
		if transform != nil {
			out[i] = transform(r)
		} else {
			out[i] = r
		}
	}
	return out
}

func cloneRecords(records []dataset.Record) []dataset.Record {
	out := make([]dataset.Record, len(records))
	for i, r := range records {
		row := make(dataset.Record, len(r))
		for k, v := range r {
			row[k] = v
		}
		out[i] = row
	}
	return out
}
