package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/config"
	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

// selection keeps only RSI productive on 60 bars; the MACD and Stochastic
// windows are longer than the history and are skipped.
const selection = `{
  "recommendedIndicators": [
    {"name": "RSI", "fullName": "Relative Strength Index", "params": {"period": 14, "overbought": 70, "oversold": 30}},
    {"name": "MACD", "params": {"fastPeriod": 100, "slowPeriod": 200, "signalPeriod": 9}},
    {"name": "Stochastic Oscillator", "params": {"period": 100, "signalPeriod": 3}}
  ],
  "finalSignal": "매수",
  "rationale": "과매도 이후 반등 중입니다."
}`

func clovaServer(t *testing.T, content string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		body, _ := json.Marshal(map[string]any{
			"status": map[string]string{"code": "20000", "message": "OK"},
			"result": map[string]any{"message": map[string]string{"role": "assistant", "content": content}},
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// writeVDip writes a 60-bar series whose only RSI(14) oversold crossing is 2024-01-31.
func writeVDip(t *testing.T, dir, ticker string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,open,high,low,close,volume\n")
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	c := 100.0
	for i := 0; i < 60; i++ {
		if i > 0 {
			switch {
			case i == 29:
				c -= 15
			case i < 30 && i%2 == 1:
				c -= 3
			case i < 30:
				c += 2
			case i%2 == 0:
				c += 3
			default:
				c -= 2
			}
		}
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,1000\n", base.AddDate(0, 0, i).Format(models.DateLayout), c, c+1, c-1, c)
	}
	if err := os.WriteFile(filepath.Join(dir, ticker+".csv"), []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T, llmURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeVDip(t, dir, "AAPL")

	cfg := config.Default()
	cfg.LLM.BaseURL = llmURL
	cfg.LLM.RetryDelay = time.Millisecond
	cfg.Credentials.Clova.APIKey = "test-key"
	cfg.MarketData.Provider = "csv"
	cfg.MarketData.CSVDir = dir
	cfg.Store.Driver = "json"
	cfg.Store.Path = filepath.Join(dir, "subscriptions.json")
	cfg.Credentials.SMTP = config.SMTPCredentials{}
	return cfg
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&App{Config: cfg, Logger: zerolog.Nop()})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTimingJSON(t *testing.T) {
	srv, calls := clovaServer(t, "```json\n"+selection+"\n```")
	cfg := testConfig(t, srv.URL)

	out, err := run(t, cfg, "timing", "aapl", "--json")
	if err != nil {
		t.Fatalf("timing error = %v\n%s", err, out)
	}

	var got struct {
		Ticker      string                 `json:"ticker"`
		FinalSignal string                 `json:"finalSignal"`
		History     []json.RawMessage      `json:"historicalData"`
		Timeline    []map[string]any       `json:"historicalSignals"`
		Indicators  []models.IndicatorSpec `json:"recommendedIndicators"`
		RawCount    int                    `json:"rawSignalCount"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Ticker != "AAPL" || got.FinalSignal != "Buy" || len(got.History) != 60 || len(got.Indicators) != 3 {
		t.Errorf("analysis = %+v", got)
	}
	if got.RawCount != 1 || len(got.Timeline) != 1 {
		t.Fatalf("timeline = %v (raw %d)", got.Timeline, got.RawCount)
	}
	if got.Timeline[0]["date"] != "2024-01-31" || got.Timeline[0]["direction"] != "BUY" {
		t.Errorf("event = %v", got.Timeline[0])
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("model calls = %d", *calls)
	}
}

func TestTimingText(t *testing.T) {
	srv, _ := clovaServer(t, selection)
	out, err := run(t, testConfig(t, srv.URL), "timing", "AAPL", "--style", "스윙")
	if err != nil {
		t.Fatalf("timing error = %v", err)
	}
	for _, want := range []string{"AAPL", "매수 (Buy)", "period=14 overbought=70 oversold=30", "2024-01-31", "BUY", "과매도 이후 반등 중입니다.", "Style:   스윙"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestTimingMalformedModelOutput(t *testing.T) {
	srv, calls := clovaServer(t, "I cannot help with that.")
	_, err := run(t, testConfig(t, srv.URL), "timing", "AAPL")
	if apperrors.KindOf(err) != apperrors.KindMalformedModelOutput {
		t.Errorf("KindOf = %s (%v)", apperrors.KindOf(err), err)
	}
	if atomic.LoadInt32(calls) != 3 {
		t.Errorf("model calls = %d, want 3", *calls)
	}
}

func TestTimingRequiresCredentials(t *testing.T) {
	srv, calls := clovaServer(t, selection)
	cfg := testConfig(t, srv.URL)
	cfg.Credentials.Clova.APIKey = ""

	_, err := run(t, cfg, "timing", "AAPL")
	if err == nil || !strings.Contains(err.Error(), "HYPERCLOVA_API_KEY") {
		t.Errorf("err = %v", err)
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Error("model was called without credentials")
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	srv, _ := clovaServer(t, selection)
	cfg := testConfig(t, srv.URL)

	if _, err := run(t, cfg, "subscribe", "Me@Example.com", "aapl", "--style", "단기"); err != nil {
		t.Fatalf("subscribe error = %v", err)
	}
	if _, err := run(t, cfg, "subscribe", "me@example.com", "AAPL"); apperrors.KindOf(err) != apperrors.KindConflict {
		t.Errorf("duplicate kind = %s", apperrors.KindOf(err))
	}

	out, err := run(t, cfg, "subscriptions", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var subs []models.Subscription
	if err := json.Unmarshal([]byte(out), &subs); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(subs) != 1 || subs[0].Email != "me@example.com" || subs[0].TradingStyle != "단기" {
		t.Errorf("subs = %+v", subs)
	}

	out, err = run(t, cfg, "alerts", "run", "--json")
	if err != nil {
		t.Fatalf("alerts run error = %v", err)
	}
	var report struct {
		Tickers, Sent, Held, Failed int
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatal(err)
	}
	if report.Tickers != 1 || report.Sent != 1 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}

	if _, err := run(t, cfg, "unsubscribe", "me@example.com", "AAPL"); err != nil {
		t.Fatalf("unsubscribe error = %v", err)
	}
	if _, err := run(t, cfg, "unsubscribe", "me@example.com", "AAPL"); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("second unsubscribe kind = %s", apperrors.KindOf(err))
	}
	out, _ = run(t, cfg, "subscriptions")
	if !strings.Contains(out, "No subscriptions") {
		t.Errorf("list output = %q", out)
	}
}

func TestAlertsNext(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	out, err := run(t, cfg, "alerts", "next", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Next     time.Time `json:"next"`
		Timezone string    `json:"timezone"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	seoul, _ := time.LoadLocation("Asia/Seoul")
	if got.Timezone != "Asia/Seoul" || got.Next.In(seoul).Hour() != 5 {
		t.Errorf("next = %v (%s)", got.Next, got.Timezone)
	}
}

func TestVersionAndConfig(t *testing.T) {
	cfg := testConfig(t, "http://unused")

	out, err := run(t, cfg, "version", "--json")
	if err != nil || !strings.Contains(out, `"version": "`+Version+`"`) {
		t.Errorf("version = %q, %v", out, err)
	}

	cfg.Credentials.SMTP.Password = "hunter2"
	out, err = run(t, cfg, "config", "show", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "hunter2") || strings.Contains(out, "test-key") {
		t.Error("config show leaked credentials")
	}

	out, err = run(t, cfg, "config", "show")
	if err != nil || !strings.Contains(out, "Provider:        clova") || !strings.Contains(out, "Credentials:     configured") {
		t.Errorf("config show = %q, %v", out, err)
	}

	if _, err := run(t, cfg, "config", "validate"); err != nil {
		t.Errorf("validate error = %v", err)
	}
}

const strategyAnswer = `{
  "portfolioName": "글로벌 성장",
  "assetAllocation": {"stocks": 60, "bonds": 30, "cash": 10},
  "etfStockRecommendations": [
    {"ticker": "VOO", "rationale": "미국 대형주"},
    {"ticker": "QQQ", "rationale": "기술주"},
    {"ticker": "069500.KS", "rationale": "국내 대표지수"}
  ],
  "tradingStrategy": "분기 리밸런싱",
  "strategyExplanation": "장기 성장형 전략입니다."
}`

func TestStrategyThenAsk(t *testing.T) {
	srv, calls := clovaServer(t, strategyAnswer)
	cfg := testConfig(t, srv.URL)
	saved := filepath.Join(t.TempDir(), "strategy.json")

	out, err := run(t, cfg, "strategy", "--name", "김투자", "--horizon", "4", "--income", "1", "--assets", "2",
		"--tax", "2", "--theme", "2", "--region", "5", "--management", "2", "--risk", "다소 공격적", "--out", saved)
	if err != nil {
		t.Fatalf("strategy error = %v\n%s", err, out)
	}
	for _, want := range []string{"글로벌 성장", "Stocks 60%  Bonds 30%  Cash 10%", "069500.KS", "분기 리밸런싱", "Strategy saved to " + saved} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("model calls = %d, want 1", *calls)
	}

	askSrv, _ := clovaServer(t, "현재 채권 비중 30%는 중립적인 수준입니다.")
	cfg.LLM.BaseURL = askSrv.URL
	out, err = run(t, cfg, "ask", "채권", "비중은?", "--strategy", saved, "--json")
	if err != nil {
		t.Fatalf("ask error = %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got["answer"] != "현재 채권 비중 30%는 중립적인 수준입니다." {
		t.Errorf("answer = %v", got)
	}

	out, err = run(t, cfg, "ask", "분산", "투자?", "--strategy", saved)
	if err != nil || !strings.Contains(out, "Based on 글로벌 성장") {
		t.Errorf("ask text = %q, %v", out, err)
	}
}

func TestStrategyRejectsUnknownChoice(t *testing.T) {
	srv, calls := clovaServer(t, strategyAnswer)
	_, err := run(t, testConfig(t, srv.URL), "strategy", "--name", "김투자", "--risk", "9")
	if apperrors.KindOf(err) != apperrors.KindInvalidInput {
		t.Errorf("kind = %s (%v)", apperrors.KindOf(err), err)
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Error("model was called for an incomplete profile")
	}
}

func TestInsight(t *testing.T) {
	srv, _ := clovaServer(t, `{"marketSummary": "금리 동결", "suggestedActions": "현금 확보", "rationale": "변동성"}`)
	news := filepath.Join(t.TempDir(), "news.txt")
	if err := os.WriteFile(news, []byte("연준이 금리를 동결했습니다."), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, testConfig(t, srv.URL), "insight", "--file", news)
	if err != nil {
		t.Fatalf("insight error = %v", err)
	}
	for _, want := range []string{"Market summary", "금리 동결", "현금 확보", "변동성"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}
