package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/seafoodai/seafood-terminal/pkg/storage"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seafood_rate_limit_remaining",
		Help: "Requests remaining in the current API rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seafood_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the API budget was spent",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seafood_rate_limit_throttles_total",
		Help: "Total number of requests delayed because the API budget was low",
	})
)

// ErrBudgetExhausted marks requests refused because the budget is spent.
var ErrBudgetExhausted = errors.New("rate limit budget exhausted")

// DefaultThrottleDelay is the pause applied while the budget is low.
const DefaultThrottleDelay = 500 * time.Millisecond

// Tracker records the API request budget in a storage.Store, so every
// process sharing the store sees the same budget.
type Tracker struct {
	store         storage.Store
	logger        zerolog.Logger
	throttleDelay time.Duration
}

// NewTracker creates a new rate limit tracker.
func NewTracker(store storage.Store, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:         store,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
	}
}

// SetThrottleDelay overrides the pause applied in the warning band.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// GetState returns the stored budget, or DefaultState if none was recorded.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	raw, err := t.store.Get(ctx, StoreKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			t.logger.Debug().Msg("No rate limit state stored, assuming healthy")
			return DefaultState(), nil
		}
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("parse rate limit state: %w", err)
	}
	state.UpdateHealth()
	return &state, nil
}

// UpdateFromHeaders parses the rate limit headers of a response and stores
// the new state. Responses without the headers leave the state untouched.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}
	resetSeconds, err := strconv.Atoi(resetStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	limit := 0
	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
	}

	now := time.Now()
	state := &State{
		Limit:      limit,
		Remaining:  remain,
		ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
		LastUpdate: now,
	}
	state.UpdateHealth()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal rate limit state: %w", err)
	}
	if err := t.store.Set(ctx, StoreKey, string(data)); err != nil {
		return fmt.Errorf("store rate limit state: %w", err)
	}

	rateLimitRemaining.Set(float64(remain))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("API rate limit exhausted - requests will be blocked until reset")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("API rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Bool("is_healthy", state.IsHealthy).
			Msg("API rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now. In the
// warning band it waits throttleDelay (or until ctx is done) before
// allowing the request.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, err
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("API rate limit exhausted - blocking request")
		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() && t.throttleDelay > 0 {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Dur("delay", t.throttleDelay).
			Msg("API rate limit low - throttling request")
		rateLimitThrottlesTotal.Inc()

		timer := time.NewTimer(t.throttleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}
