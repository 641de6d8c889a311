// Package ratelimit tracks the request budget advertised by the dashboard
// API through the X-RateLimit-Remaining and X-RateLimit-Reset headers and
// gates outgoing requests while the budget is exhausted.
package ratelimit

import (
	"time"
)

// Response headers carrying the request budget.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// StoreKey is the storage key holding the shared budget state.
const StoreKey = "rate_limit_state"

// Thresholds for rate limit decisions.
const (
	// ThresholdCritical blocks requests when fewer requests than this remain
	// and the reset time has not passed yet.
	ThresholdCritical = 1

	// ThresholdWarning throttles requests below this many remaining.
	ThresholdWarning = 5

	// ThresholdHealthy marks the budget healthy at or above this value.
	ThresholdHealthy = 20
)

// State is the request budget last reported by the API.
type State struct {
	// Limit is the window size from X-RateLimit-Limit (0 if not sent).
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets, from X-RateLimit-Reset.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was recorded.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= ThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// DefaultState is assumed until the API reports a budget.
func DefaultState() *State {
	now := time.Now()
	return &State{
		Remaining:  ThresholdHealthy,
		ResetAt:    now,
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true while the budget is spent and the window
// has not reset.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < ThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true when the budget is low but not spent.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && !s.NeedsCriticalBlock() && s.TimeUntilReset() > 0
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates IsHealthy from Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}
