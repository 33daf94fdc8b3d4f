package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/resilience"
)

// 2024-01-02 14:30 UTC, a US session open.
const firstSession = int64(1704205800)

func chartBody(n int, nullAt int) string {
	var ts, closes []string
	for i := 0; i < n; i++ {
		ts = append(ts, fmt.Sprintf("%d", firstSession+int64(i)*86400))
		if i == nullAt {
			closes = append(closes, "null")
		} else {
			closes = append(closes, fmt.Sprintf("%.4f", 100+float64(i)+0.1234))
		}
	}
	series := strings.Join(closes, ",")
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":"AAPL","gmtoffset":-18000},
		"timestamp":[%s],
		"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}}],"error":null}}`,
		strings.Join(ts, ","), series, series, series, series, series)
}

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	p := NewYahooProvider(YahooConfig{BaseURL: server.URL}, zerolog.Nop())
	p.now = func() time.Time { return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestYahooFetch(t *testing.T) {
	p := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAPL" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("interval") != "1d" {
			t.Errorf("interval = %q", q.Get("interval"))
		}
		if q.Get("period2") != "1735776000" || q.Get("period1") != "1704153600" {
			t.Errorf("period = %s..%s", q.Get("period1"), q.Get("period2"))
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Write([]byte(chartBody(5, 2)))
	})

	history, err := p.Fetch(context.Background(), " aapl ")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("points = %d, want 4 (null bar skipped)", len(history))
	}
	if got := history[0].Day(); got != "2024-01-02" {
		t.Errorf("first day = %s, want exchange-local 2024-01-02", got)
	}
	if got := history[0].Close; got != 100.12 {
		t.Errorf("close = %v, want 100.12", got)
	}
	if got := history[2].Day(); got != "2024-01-05" {
		t.Errorf("third day = %s, want 2024-01-05", got)
	}
	if err := history.Validate(); err != nil {
		t.Errorf("history invalid: %v", err)
	}
}

func TestYahooTrimsTo252(t *testing.T) {
	p := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody(300, -1)))
	})
	history, err := p.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(history) != 252 {
		t.Fatalf("points = %d, want 252", len(history))
	}
	if history[251].Close != 399.12 {
		t.Errorf("last close = %v, want the most recent bar", history[251].Close)
	}
}

func TestYahooErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  error
		wantKind apperrors.Kind
	}{
		{"404", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, apperrors.ErrTickerNotFound, apperrors.KindInvalidInstrument},
		{"chart not found", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"symbol not found"}}}`, apperrors.ErrTickerNotFound, apperrors.KindInvalidInstrument},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, apperrors.ErrEmptySeries, apperrors.KindInvalidInstrument},
		{"all null", http.StatusOK, `{"chart":{"result":[{"timestamp":[1],"indicators":{"quote":[{"close":[null]}]}}]}}`, apperrors.ErrEmptySeries, apperrors.KindInvalidInstrument},
		{"server error", http.StatusInternalServerError, `oops`, apperrors.ErrFetchFailed, apperrors.KindUpstreamUnavailable},
		{"other chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid interval"}}}`, apperrors.ErrFetchFailed, apperrors.KindUpstreamUnavailable},
		{"garbage", http.StatusOK, `<html>`, apperrors.ErrFetchFailed, apperrors.KindUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := p.Fetch(context.Background(), "ZZZZ")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if apperrors.KindOf(err) != tt.wantKind {
				t.Errorf("KindOf = %s, want %s", apperrors.KindOf(err), tt.wantKind)
			}
		})
	}
}

func TestYahooRejectsBadTicker(t *testing.T) {
	p := NewYahooProvider(YahooConfig{}, zerolog.Nop())
	for _, ticker := range []string{"", "  ", "../etc"} {
		if _, err := p.Fetch(context.Background(), ticker); apperrors.KindOf(err) != apperrors.KindInvalidInput {
			t.Errorf("Fetch(%q) kind = %s, want invalid input", ticker, apperrors.KindOf(err))
		}
	}
}

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCSVProvider(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "005930.KS.csv", `date,open,high,low,close,volume
2024-01-04,71000,71500,70500,71200.456,1000
2024-01-02,70000,70500,69500,70100,1200
2024-01-03,0,0,0,0,0
2024-01-05,72000,72500,71500,72100,900
`)
	writeCSV(t, dir, "EMPTY.csv", "date,open,high,low,close,volume\n")
	writeCSV(t, dir, "BAD.csv", "date,open,high,low,close,volume\nyesterday,1,1,1,1,1\n")

	p := NewCSVProvider(dir, 2, zerolog.Nop())

	history, err := p.Fetch(context.Background(), "005930.ks")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("points = %d, want 2 after trimming", len(history))
	}
	if history[0].Day() != "2024-01-04" || history[0].Close != 71200.46 {
		t.Errorf("first = %s %v", history[0].Day(), history[0].Close)
	}
	if history[1].Day() != "2024-01-05" {
		t.Errorf("last = %s", history[1].Day())
	}

	if _, err := p.Fetch(context.Background(), "MISSING"); !errors.Is(err, apperrors.ErrTickerNotFound) {
		t.Errorf("missing file error = %v", err)
	}
	if _, err := p.Fetch(context.Background(), "EMPTY"); !errors.Is(err, apperrors.ErrEmptySeries) {
		t.Errorf("empty file error = %v", err)
	}
	if _, err := p.Fetch(context.Background(), "BAD"); !errors.Is(err, apperrors.ErrFetchFailed) {
		t.Errorf("bad date error = %v", err)
	}
}

func TestGuardedProviderOpensOnUpstreamFailures(t *testing.T) {
	var hits int
	p := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		if strings.HasSuffix(r.URL.Path, "/NOPE") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})
	g := NewGuardedProvider(p, resilience.BreakerConfig{FailureThreshold: 2, Cooldown: time.Hour}, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := g.Fetch(ctx, "NOPE"); !errors.Is(err, apperrors.ErrTickerNotFound) {
			t.Fatalf("not found err = %v", err)
		}
	}
	if g.Breaker().State() != resilience.StateClosed {
		t.Fatal("unknown tickers opened the circuit")
	}

	for i := 0; i < 2; i++ {
		if _, err := g.Fetch(ctx, "AAPL"); !errors.Is(err, apperrors.ErrFetchFailed) {
			t.Fatalf("fetch err = %v", err)
		}
	}
	before := hits
	_, err := g.Fetch(ctx, "MSFT")
	if !errors.Is(err, resilience.ErrCircuitOpen) || hits != before {
		t.Errorf("open circuit: err = %v, upstream hits %d -> %d", err, before, hits)
	}
	if apperrors.KindOf(err) != apperrors.KindUpstreamUnavailable {
		t.Errorf("KindOf = %s", apperrors.KindOf(err))
	}
}
