package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg BreakerConfig) (*Breaker, *clock) {
	c := &clock{t: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker("yahoo", cfg, zerolog.Nop())
	b.now = c.now
	return b, c
}

var errUpstream = errors.New("connection reset")

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, c := newTestBreaker(BreakerConfig{FailureThreshold: 3, Cooldown: time.Minute})
	ctx := context.Background()

	calls := 0
	fail := func(context.Context) error {
		calls++
		return errUpstream
	}

	for i := 0; i < 3; i++ {
		if err := b.Do(ctx, fail); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want OPEN", b.State())
	}

	err := b.Do(ctx, fail)
	if !errors.Is(err, ErrCircuitOpen) || calls != 3 {
		t.Errorf("open call: err = %v, calls = %d", err, calls)
	}
	if apperrors.KindOf(err) != apperrors.KindUpstreamUnavailable {
		t.Errorf("KindOf = %s", apperrors.KindOf(err))
	}

	c.advance(time.Minute)
	if err := b.Do(ctx, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("trial call: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state after trial = %s", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b, c := newTestBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Second})
	ctx := context.Background()
	fail := func(context.Context) error { return errUpstream }

	b.Do(ctx, fail)
	c.advance(2 * time.Second)
	b.Do(ctx, fail)
	if b.State() != StateOpen {
		t.Fatalf("state = %s", b.State())
	}
	if snap := b.Snapshot(); snap.OpenedAt != c.t {
		t.Errorf("openedAt = %v, want %v", snap.OpenedAt, c.t)
	}
}

func TestBreakerIgnoresNonTrippingErrors(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{
		FailureThreshold: 1,
		Trips:            func(err error) bool { return !errors.Is(err, apperrors.ErrTickerNotFound) },
	})
	notFound := func(context.Context) (int, error) { return 0, apperrors.ErrTickerNotFound }

	for i := 0; i < 5; i++ {
		if _, err := Call(context.Background(), b, notFound); !errors.Is(err, apperrors.ErrTickerNotFound) {
			t.Fatalf("err = %v", err)
		}
	}
	if b.State() != StateClosed {
		t.Errorf("state = %s, want CLOSED", b.State())
	}

	v, err := Call(context.Background(), b, func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("Call = %d, %v", v, err)
	}
}

func TestHealthMonitor(t *testing.T) {
	m := NewHealthMonitor(time.Second)
	b, _ := newTestBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Hour})

	m.RegisterComponent("store", PingCheck(func(context.Context) error { return nil }))
	m.RegisterComponent("market_data", b.Check)

	h := m.Check(context.Background())
	if h.Status != StatusHealthy || len(h.Components) != 2 {
		t.Fatalf("health = %+v", h)
	}
	if h.Components[0].Name != "market_data" || h.Components[1].Name != "store" {
		t.Errorf("components not sorted: %+v", h.Components)
	}

	b.Do(context.Background(), func(context.Context) error { return errUpstream })
	if h := m.Check(context.Background()); h.Status != StatusDegraded {
		t.Errorf("status with open breaker = %s", h.Status)
	}

	m.RegisterComponent("store", PingCheck(func(context.Context) error { return errors.New("disk full") }))
	h = m.Check(context.Background())
	if h.Status != StatusUnhealthy || h.Components[1].Message != "disk full" {
		t.Errorf("health = %+v", h)
	}
}

func TestHealthMonitorRecoversPanics(t *testing.T) {
	m := NewHealthMonitor(time.Second)
	m.RegisterComponent("broken", func(context.Context) ComponentHealth { panic("boom") })

	h := m.Check(context.Background())
	if h.Status != StatusUnhealthy || h.Components[0].Name != "broken" {
		t.Errorf("health = %+v", h)
	}
}

func TestHealthCheckTimeout(t *testing.T) {
	m := NewHealthMonitor(10 * time.Millisecond)
	m.RegisterComponent("slow", PingCheck(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	if h := m.Check(context.Background()); h.Status != StatusUnhealthy {
		t.Errorf("status = %s", h.Status)
	}
}
