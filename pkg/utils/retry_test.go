package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithResult_StopsAtMaxAttempts(t *testing.T) {
	var slept []time.Duration
	cfg := FixedDelay(3, time.Second)
	cfg.Sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	calls := 0
	boom := errors.New("boom")
	_, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != time.Second {
		t.Errorf("sleeps = %v, want [1s 1s]", slept)
	}
}

func TestRetryWithResult_ReturnsFirstSuccess(t *testing.T) {
	cfg := FixedDelay(3, 0)
	cfg.Sleep = func(context.Context, time.Duration) error { return nil }

	calls := 0
	got, err := RetryWithResult(context.Background(), cfg, func() (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 2 {
		t.Errorf("got %q after %d calls", got, calls)
	}
}

func TestRetry_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, FixedDelay(5, time.Hour), func() error {
		calls++
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_OnRetryHook(t *testing.T) {
	cfg := FixedDelay(3, 0)
	var attempts []int
	cfg.OnRetry = func(attempt int, _ error) { attempts = append(attempts, attempt) }

	_ = Retry(context.Background(), cfg, func() error { return errors.New("fail") })
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("OnRetry attempts = %v, want [1 2]", attempts)
	}
}

func TestRetry_CancelKeepsLastError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	refused := errors.New("connection refused")
	err := Retry(ctx, FixedDelay(3, time.Second), func() error { return refused })
	if !errors.Is(err, context.Canceled) || !errors.Is(err, refused) {
		t.Errorf("err = %v, want both context.Canceled and the attempt error", err)
	}
}

func TestRetryWithResult_BackoffIsCapped(t *testing.T) {
	var slept []time.Duration
	cfg := RetryConfig{
		MaxAttempts:   5,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      300 * time.Millisecond,
		BackoffFactor: 2,
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}
	_, _ = RetryWithResult(context.Background(), cfg, func() (int, error) { return 0, errors.New("fail") })

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	if len(slept) != len(want) {
		t.Fatalf("sleeps = %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, slept[i], want[i])
		}
	}
}
