package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastRetry keeps backoff short enough for unit tests.
func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        100 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 1 {
		t.Errorf("MaxAttempts = %d, want 1", config.MaxAttempts)
	}
	if config.InitialBackoff != 1*time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", config.InitialBackoff)
	}
	if config.MaxBackoff != 30*time.Second {
		t.Errorf("MaxBackoff = %v, want 30s", config.MaxBackoff)
	}
	if config.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", config.BackoffMultiplier)
	}
}

func TestRetryConfig_ForClass(t *testing.T) {
	base := RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}

	tests := []struct {
		name            string
		errorClass      ErrorClass
		expectedInitial time.Duration
	}{
		{name: "server error keeps initial backoff", errorClass: ErrorClassServer, expectedInitial: 1 * time.Second},
		{name: "rate limit waits five times longer", errorClass: ErrorClassRateLimit, expectedInitial: 5 * time.Second},
		{name: "network error waits twice as long", errorClass: ErrorClassNetwork, expectedInitial: 2 * time.Second},
		{name: "unknown class keeps initial backoff", errorClass: "", expectedInitial: 1 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := base.forClass(tt.errorClass)
			if config.InitialBackoff != tt.expectedInitial {
				t.Errorf("InitialBackoff = %v, want %v", config.InitialBackoff, tt.expectedInitial)
			}
			if config.MaxAttempts != base.MaxAttempts {
				t.Errorf("MaxAttempts = %d, want %d", config.MaxAttempts, base.MaxAttempts)
			}
		})
	}

	capped := RetryConfig{InitialBackoff: 10 * time.Second, MaxBackoff: 20 * time.Second}.forClass(ErrorClassRateLimit)
	if capped.InitialBackoff != 20*time.Second {
		t.Errorf("capped InitialBackoff = %v, want 20s", capped.InitialBackoff)
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), fastRetry(3), func() (ErrorClass, error) {
		callCount++
		return "", nil
	})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}

func TestRetryWithBackoff_SuccessAfterRetry(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), fastRetry(3), func() (ErrorClass, error) {
		callCount++
		if callCount < 3 {
			return ErrorClassServer, errors.New("temporary error")
		}
		return "", nil
	})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
}

func TestRetryWithBackoff_MaxAttemptsExhausted(t *testing.T) {
	callCount := 0
	testErr := errors.New("persistent error")
	err := retryWithBackoff(context.Background(), fastRetry(3), func() (ErrorClass, error) {
		callCount++
		return ErrorClassServer, testErr
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	if !errors.Is(err, testErr) {
		t.Errorf("Expected wrapped last error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls (MaxAttempts), got %d", callCount)
	}
}

func TestRetryWithBackoff_SingleAttemptReturnsError(t *testing.T) {
	callCount := 0
	testErr := errors.New("server error")
	err := retryWithBackoff(context.Background(), fastRetry(1), func() (ErrorClass, error) {
		callCount++
		return ErrorClassServer, testErr
	})

	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
	if err != testErr {
		t.Errorf("Expected original error unchanged, got %v", err)
	}
}

func TestRetryWithBackoff_ClientErrorNoRetry(t *testing.T) {
	callCount := 0
	testErr := errors.New("client error")
	err := retryWithBackoff(context.Background(), fastRetry(3), func() (ErrorClass, error) {
		callCount++
		return ErrorClassClient, testErr
	})

	if callCount != 1 {
		t.Errorf("Expected 1 call (no retry for client errors), got %d", callCount)
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("Should not return ErrRetryExhausted for client errors (no retry attempted)")
	}
	if !errors.Is(err, testErr) {
		t.Errorf("Expected original error, got %v", err)
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	callCount := 0
	config := fastRetry(3)
	config.InitialBackoff = time.Minute
	config.MaxBackoff = time.Minute

	err := retryWithBackoff(ctx, config, func() (ErrorClass, error) {
		callCount++
		if callCount == 1 {
			cancel()
		}
		return ErrorClassServer, errors.New("error")
	})

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Expected ErrContextCancelled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", callCount)
	}
}

func TestRetryWithBackoff_ExponentialBackoff(t *testing.T) {
	config := RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	}

	var timestamps []time.Time
	_ = retryWithBackoff(context.Background(), config, func() (ErrorClass, error) {
		timestamps = append(timestamps, time.Now())
		return ErrorClassServer, errors.New("error")
	})

	if len(timestamps) != 3 {
		t.Fatalf("Expected 3 timestamps, got %d", len(timestamps))
	}

	// ±20% jitter: first delay in [40ms, 60ms], second in [80ms, 120ms]
	firstDelay := timestamps[1].Sub(timestamps[0])
	secondDelay := timestamps[2].Sub(timestamps[1])

	if firstDelay < 40*time.Millisecond {
		t.Errorf("First retry delay %v shorter than 40ms", firstDelay)
	}
	if secondDelay < 80*time.Millisecond {
		t.Errorf("Second retry delay %v shorter than 80ms", secondDelay)
	}
}
