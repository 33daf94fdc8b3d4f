package alerts

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/store"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/timing"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	signals map[string]models.FinalSignal
	errs    map[string]error
	calls   map[string]int
	styles  map[string]string
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		signals: map[string]models.FinalSignal{},
		errs:    map[string]error{},
		calls:   map[string]int{},
		styles:  map[string]string{},
	}
}

func (f *fakeAnalyzer) Analyze(_ context.Context, ticker, style string) (*timing.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ticker]++
	f.styles[ticker] = style
	if err := f.errs[ticker]; err != nil {
		return nil, err
	}
	sig, ok := f.signals[ticker]
	if !ok {
		sig = models.Buy
	}
	return &timing.Analysis{
		Ticker:      ticker,
		FinalSignal: sig,
		RecommendedIndicators: []models.IndicatorSpec{
			{Name: models.IndicatorRSI}, {Name: models.IndicatorMACD}, {Name: models.IndicatorStochastic},
		},
		Rationale: "근거",
		PriceHistory: models.PriceHistory{
			{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Close: 190.5},
		},
	}, nil
}

type recordingNotifier struct {
	welcomes []string
	signals  []string
	alerts   []models.SignalAlert
	failFor  string
}

func (n *recordingNotifier) SendWelcome(_ context.Context, email, ticker string, indicators []models.IndicatorSpec) error {
	if email == n.failFor {
		return errors.New("smtp down")
	}
	n.welcomes = append(n.welcomes, email+" "+ticker)
	return nil
}

func (n *recordingNotifier) SendSignal(_ context.Context, email string, alert models.SignalAlert) error {
	if email == n.failFor {
		return errors.New("smtp down")
	}
	n.signals = append(n.signals, email+" "+alert.Ticker)
	n.alerts = append(n.alerts, alert)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeAnalyzer, *recordingNotifier) {
	t.Helper()
	subs, err := store.NewJSONFileStore(filepath.Join(t.TempDir(), "subscriptions.json"))
	if err != nil {
		t.Fatal(err)
	}
	a := newFakeAnalyzer()
	n := &recordingNotifier{}
	svc := NewService(subs, a, n, zerolog.Nop())
	clock := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, a, n
}

func TestSubscribe(t *testing.T) {
	svc, a, n := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, "User@Example.com", " aapl ", "장기")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if sub.Email != "user@example.com" || sub.Ticker != "AAPL" || sub.TradingStyle != "장기" {
		t.Errorf("sub = %+v", sub)
	}
	if a.calls["AAPL"] != 1 {
		t.Errorf("analysis calls = %d", a.calls["AAPL"])
	}
	if len(n.welcomes) != 1 || n.welcomes[0] != "user@example.com AAPL" {
		t.Errorf("welcomes = %v", n.welcomes)
	}

	_, err = svc.Subscribe(ctx, "user@example.com", "AAPL", "")
	if apperrors.KindOf(err) != apperrors.KindConflict {
		t.Errorf("duplicate KindOf = %s", apperrors.KindOf(err))
	}
}

func TestSubscribeValidation(t *testing.T) {
	svc, a, _ := newTestService(t)
	for _, email := range []string{"", "not-an-email", "Name <a@b.co>", "a@localhost"} {
		_, err := svc.Subscribe(context.Background(), email, "AAPL", "")
		if apperrors.KindOf(err) != apperrors.KindInvalidInput {
			t.Errorf("Subscribe(%q) kind = %s", email, apperrors.KindOf(err))
		}
	}
	if len(a.calls) != 0 {
		t.Error("no analysis should run for invalid input")
	}
}

func TestSubscribeAnalysisFailureStoresNothing(t *testing.T) {
	svc, a, _ := newTestService(t)
	a.errs["ZZZZ"] = apperrors.NewDataError("yahoo", "ZZZZ", "unknown", apperrors.ErrTickerNotFound)

	_, err := svc.Subscribe(context.Background(), "a@b.co", "ZZZZ", "")
	if apperrors.KindOf(err) != apperrors.KindInvalidInstrument {
		t.Errorf("KindOf = %s", apperrors.KindOf(err))
	}
	subs, _ := svc.List(context.Background())
	if len(subs) != 0 {
		t.Errorf("subs = %+v", subs)
	}
}

func TestSubscribeKeepsSubscriptionWhenWelcomeFails(t *testing.T) {
	svc, _, n := newTestService(t)
	n.failFor = "a@b.co"
	if _, err := svc.Subscribe(context.Background(), "a@b.co", "MSFT", ""); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	subs, _ := svc.List(context.Background())
	if len(subs) != 1 {
		t.Errorf("subs = %d, want 1", len(subs))
	}
}

func TestUnsubscribe(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Subscribe(ctx, "a@b.co", "MSFT", ""); err != nil {
		t.Fatal(err)
	}
	if err := svc.Unsubscribe(ctx, "A@B.CO", "msft"); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if err := svc.Unsubscribe(ctx, "a@b.co", "MSFT"); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("KindOf = %s", apperrors.KindOf(err))
	}
}

func TestRunDaily(t *testing.T) {
	svc, a, n := newTestService(t)
	ctx := context.Background()

	for _, s := range []struct{ email, ticker, style string }{
		{"a@x.co", "AAPL", "단타"},
		{"b@x.co", "AAPL", "장기"},
		{"c@x.co", "MSFT", ""},
		{"d@x.co", "ZZZZ", ""},
		{"e@x.co", "TSLA", ""},
	} {
		if _, err := svc.Subscribe(ctx, s.email, s.ticker, s.style); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", s.ticker, err)
		}
	}
	for k := range a.calls {
		delete(a.calls, k)
	}
	n.signals = nil
	n.alerts = nil

	a.signals["MSFT"] = models.Hold
	a.signals["TSLA"] = models.StrongSell
	a.errs["ZZZZ"] = apperrors.NewUpstreamError("clova", 503, "", nil)

	report, err := svc.RunDaily(ctx)
	if err != nil {
		t.Fatalf("RunDaily() error = %v", err)
	}

	if report.Tickers != 4 || report.Sent != 3 || report.Held != 1 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	if _, ok := report.Errors["ZZZZ"]; !ok {
		t.Errorf("errors = %v", report.Errors)
	}
	for ticker, n := range a.calls {
		if n != 1 {
			t.Errorf("%s analysed %d times, want once", ticker, n)
		}
	}
	if a.styles["AAPL"] != "단타" {
		t.Errorf("AAPL style = %q, want the first subscriber's", a.styles["AAPL"])
	}
	want := map[string]bool{"a@x.co AAPL": true, "b@x.co AAPL": true, "e@x.co TSLA": true}
	for _, s := range n.signals {
		if !want[s] {
			t.Errorf("unexpected signal email %q", s)
		}
	}
	if len(n.signals) != 3 {
		t.Errorf("signals = %v", n.signals)
	}
	if n.alerts[0].LatestClose != 190.5 || n.alerts[0].AsOf.Day() != 3 {
		t.Errorf("alert = %+v", n.alerts[0])
	}
}

func TestSchedulerRegistersJob(t *testing.T) {
	svc, _, _ := newTestService(t)

	s, err := NewScheduler(svc, "", "Asia/Seoul", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	s.Start()
	defer s.Stop(context.Background())

	next := s.Next()
	if next.IsZero() {
		t.Fatal("no next run")
	}
	seoul, _ := time.LoadLocation("Asia/Seoul")
	local := next.In(seoul)
	if local.Hour() != 5 || local.Minute() != 0 || local.Second() != 0 {
		t.Errorf("next run = %v, want 05:00:00 KST", local)
	}

	if _, err := NewScheduler(svc, "not a spec", "", zerolog.Nop()); err == nil {
		t.Error("expected error for bad spec")
	}
	if _, err := NewScheduler(svc, "", "Mars/Olympus", zerolog.Nop()); err == nil {
		t.Error("expected error for bad timezone")
	}
}
