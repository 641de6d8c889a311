package ratelimit

import (
	"testing"
	"time"
)

func TestState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *State
		maxAge   time.Duration
		expected bool
	}{
		{
			name:     "fresh state",
			state:    &State{LastUpdate: time.Now()},
			maxAge:   5 * time.Minute,
			expected: false,
		},
		{
			name:     "stale state",
			state:    &State{LastUpdate: time.Now().Add(-10 * time.Minute)},
			maxAge:   5 * time.Minute,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsStale(tt.maxAge); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_NeedsCriticalBlock(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		resetIn   time.Duration
		expected  bool
	}{
		{name: "spent budget before reset", remaining: 0, resetIn: time.Minute, expected: true},
		{name: "spent budget after reset", remaining: 0, resetIn: -time.Second, expected: false},
		{name: "one request left", remaining: 1, resetIn: time.Minute, expected: false},
		{name: "healthy", remaining: 100, resetIn: time.Minute, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &State{Remaining: tt.remaining, ResetAt: time.Now().Add(tt.resetIn)}
			if got := s.NeedsCriticalBlock(); got != tt.expected {
				t.Errorf("NeedsCriticalBlock() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_NeedsThrottling(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		resetIn   time.Duration
		expected  bool
	}{
		{name: "warning band", remaining: 3, resetIn: time.Minute, expected: true},
		{name: "warning band after reset", remaining: 3, resetIn: -time.Second, expected: false},
		{name: "critical is not throttling", remaining: 0, resetIn: time.Minute, expected: false},
		{name: "at warning threshold", remaining: ThresholdWarning, resetIn: time.Minute, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &State{Remaining: tt.remaining, ResetAt: time.Now().Add(tt.resetIn)}
			if got := s.NeedsThrottling(); got != tt.expected {
				t.Errorf("NeedsThrottling() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	past := &State{ResetAt: time.Now().Add(-time.Minute)}
	if got := past.TimeUntilReset(); got != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0", got)
	}

	future := &State{ResetAt: time.Now().Add(time.Minute)}
	if got := future.TimeUntilReset(); got < 59*time.Second || got > time.Minute {
		t.Errorf("TimeUntilReset() = %v, want about 1m", got)
	}
}

func TestState_UpdateHealth(t *testing.T) {
	s := &State{Remaining: ThresholdHealthy}
	s.UpdateHealth()
	if !s.IsHealthy {
		t.Error("expected healthy at threshold")
	}

	s.Remaining = ThresholdHealthy - 1
	s.UpdateHealth()
	if s.IsHealthy {
		t.Error("expected unhealthy below threshold")
	}
}

func TestThresholdConstants(t *testing.T) {
	if !(ThresholdCritical < ThresholdWarning && ThresholdWarning < ThresholdHealthy) {
		t.Errorf("thresholds out of order: %d, %d, %d", ThresholdCritical, ThresholdWarning, ThresholdHealthy)
	}
}
