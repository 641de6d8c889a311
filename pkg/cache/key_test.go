package cache

import (
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name        string
		key         Key
		wantPayload string
		wantTime    string
	}{
		{
			name:        "plain name",
			key:         Key{Name: "market_signals"},
			wantPayload: "market_signals_cache",
			wantTime:    "market_signals_cache_time",
		},
		{
			name:        "mixed case with spaces",
			key:         Key{Name: " Market Prices "},
			wantPayload: "market_prices_cache",
			wantTime:    "market_prices_cache_time",
		},
		{
			name:        "dashes and slashes",
			key:         Key{Name: "landings-v2/us"},
			wantPayload: "landings_v2_us_cache",
			wantTime:    "landings_v2_us_cache_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.PayloadKey(); got != tt.wantPayload {
				t.Errorf("PayloadKey() = %v, want %v", got, tt.wantPayload)
			}
			if got := tt.key.TimeKey(); got != tt.wantTime {
				t.Errorf("TimeKey() = %v, want %v", got, tt.wantTime)
			}
			if got := tt.key.String(); got != tt.wantPayload {
				t.Errorf("String() = %v, want %v", got, tt.wantPayload)
			}
		})
	}
}

func TestMillisRoundTrip(t *testing.T) {
	ts := time.Date(2025, 9, 1, 12, 30, 15, 250_000_000, time.UTC)

	s := formatMillis(ts)
	if s != "1756729815250" {
		t.Errorf("formatMillis() = %s, want 1756729815250", s)
	}

	got, err := parseMillis(s)
	if err != nil {
		t.Fatalf("parseMillis() error = %v", err)
	}
	if !got.Equal(ts) {
		t.Errorf("parseMillis() = %v, want %v", got, ts)
	}

	if _, err := parseMillis("yesterday"); err == nil {
		t.Error("parseMillis(yesterday) should fail")
	}
}
