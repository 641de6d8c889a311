package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seafoodai/seafood-terminal/pkg/storage"
)

func newTestTracker(store storage.Store) *Tracker {
	tracker := NewTracker(store, zerolog.Nop())
	tracker.SetThrottleDelay(0)
	return tracker
}

func TestGetState_Default(t *testing.T) {
	tracker := newTestTracker(storage.NewMemoryStore())

	state, err := tracker.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.IsHealthy {
		t.Error("default state should be healthy")
	}
	if state.NeedsCriticalBlock() {
		t.Error("default state should not block")
	}
}

func TestUpdateFromHeaders_ValidHeaders(t *testing.T) {
	store := storage.NewMemoryStore()
	tracker := newTestTracker(store)
	ctx := context.Background()

	headers := http.Header{}
	headers.Set(HeaderLimit, "100")
	headers.Set(HeaderRemaining, "75")
	headers.Set(HeaderReset, "120")

	if err := tracker.UpdateFromHeaders(ctx, headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 75 || state.Limit != 100 {
		t.Errorf("Remaining/Limit = %d/%d, want 75/100", state.Remaining, state.Limit)
	}
	if reset := state.TimeUntilReset(); reset < 110*time.Second || reset > 120*time.Second {
		t.Errorf("TimeUntilReset() = %v, want about 120s", reset)
	}
	if !state.IsHealthy {
		t.Error("state should be healthy")
	}
}

func TestUpdateFromHeaders_NoHeaders(t *testing.T) {
	store := storage.NewMemoryStore()
	tracker := newTestTracker(store)

	if err := tracker.UpdateFromHeaders(context.Background(), http.Header{}); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}
	if store.Len() != 0 {
		t.Error("state should not be stored without headers")
	}
}

func TestUpdateFromHeaders_InvalidHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{name: "non-numeric remaining", headers: map[string]string{HeaderRemaining: "lots", HeaderReset: "60"}},
		{name: "missing reset", headers: map[string]string{HeaderRemaining: "10"}},
		{name: "non-numeric reset", headers: map[string]string{HeaderRemaining: "10", HeaderReset: "soon"}},
		{name: "non-numeric limit", headers: map[string]string{HeaderRemaining: "10", HeaderReset: "60", HeaderLimit: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			for k, v := range tt.headers {
				headers.Set(k, v)
			}
			if err := newTestTracker(storage.NewMemoryStore()).UpdateFromHeaders(context.Background(), headers); err == nil {
				t.Error("UpdateFromHeaders() should fail")
			}
		})
	}
}

func TestShouldAllowRequest(t *testing.T) {
	tests := []struct {
		name      string
		remaining string
		reset     string
		want      bool
	}{
		{name: "healthy", remaining: "50", reset: "60", want: true},
		{name: "throttled but allowed", remaining: "2", reset: "60", want: true},
		{name: "exhausted", remaining: "0", reset: "60", want: false},
		{name: "exhausted but window reset", remaining: "0", reset: "0", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newTestTracker(storage.NewMemoryStore())
			ctx := context.Background()

			headers := http.Header{}
			headers.Set(HeaderRemaining, tt.remaining)
			headers.Set(HeaderReset, tt.reset)
			if err := tracker.UpdateFromHeaders(ctx, headers); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			got, err := tracker.ShouldAllowRequest(ctx)
			if err != nil {
				t.Fatalf("ShouldAllowRequest() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldAllowRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldAllowRequest_ThrottleRespectsContext(t *testing.T) {
	tracker := NewTracker(storage.NewMemoryStore(), zerolog.Nop())
	tracker.SetThrottleDelay(time.Minute)

	headers := http.Header{}
	headers.Set(HeaderRemaining, "2")
	headers.Set(HeaderReset, "60")
	if err := tracker.UpdateFromHeaders(context.Background(), headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if allowed || !errors.Is(err, context.Canceled) {
		t.Errorf("ShouldAllowRequest() = %v, %v; want false, context.Canceled", allowed, err)
	}
}

func TestGetState_Corrupted(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Set(context.Background(), StoreKey, "{not json")

	if _, err := newTestTracker(store).GetState(context.Background()); err == nil {
		t.Error("GetState() should fail on corrupted state")
	}
}
