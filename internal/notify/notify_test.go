package notify

import (
	"context"
	"errors"
	"mime"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestNotifier(failures int) (*EmailNotifier, *[]sentMail, *int) {
	e := NewEmailNotifier(EmailConfig{
		Host:     "smtp.example.com",
		Username: "bot@example.com",
		Password: "pw",
		SiteURL:  "https://navigator.example.com/timing",
	}, zerolog.Nop())
	e.retry.Sleep = func(context.Context, time.Duration) error { return nil }

	var sent []sentMail
	calls := 0
	e.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		calls++
		if calls <= failures {
			return errors.New("421 try again later")
		}
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}
	return e, &sent, &calls
}

func indicators() []models.IndicatorSpec {
	return []models.IndicatorSpec{
		{Name: models.IndicatorRSI, FullName: "Relative Strength Index"},
		{Name: models.IndicatorMACD},
		{Name: models.IndicatorBollingerBands, FullName: "<script>"},
	}
}

func subjectOf(t *testing.T, msg string) string {
	t.Helper()
	for _, line := range strings.Split(msg, "\r\n") {
		if strings.HasPrefix(line, "Subject: ") {
			s, err := new(mime.WordDecoder).DecodeHeader(strings.TrimPrefix(line, "Subject: "))
			if err != nil {
				t.Fatalf("decode subject: %v", err)
			}
			return s
		}
	}
	t.Fatal("no Subject header")
	return ""
}

func TestSendWelcome(t *testing.T) {
	e, sent, _ := newTestNotifier(0)

	if err := e.SendWelcome(context.Background(), "user@example.com", "AAPL", indicators()); err != nil {
		t.Fatalf("SendWelcome() error = %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(*sent))
	}
	m := (*sent)[0]
	if m.addr != "smtp.example.com:587" || m.from != "bot@example.com" || m.to[0] != "user@example.com" {
		t.Errorf("envelope = %+v", m)
	}
	if got := subjectOf(t, m.msg); got != "📈 AAPL 주식 신호 알림 구독 완료" {
		t.Errorf("subject = %q", got)
	}
	for _, want := range []string{
		"Content-Type: text/html; charset=UTF-8",
		"<b>AAPL</b>",
		"Relative Strength Index (RSI)",
		"Moving Average Convergence Divergence (MACD)",
		"&lt;script&gt; (BollingerBands)",
		"오전 5시",
	} {
		if !strings.Contains(m.msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSendSignal(t *testing.T) {
	e, sent, _ := newTestNotifier(0)

	alert := models.SignalAlert{
		Ticker:      "005930.KS",
		FinalSignal: models.StrongSell,
		Indicators:  indicators(),
		Rationale:   "과매수 구간입니다.",
		LatestClose: 71200,
		AsOf:        time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
	}
	if err := e.SendSignal(context.Background(), "user@example.com", alert); err != nil {
		t.Fatalf("SendSignal() error = %v", err)
	}
	m := (*sent)[0].msg
	if got := subjectOf(t, m); got != "🔔 오늘의 005930.KS 매매 신호: 강한 매도" {
		t.Errorf("subject = %q", got)
	}
	for _, want := range []string{"#dc2626", "71200.00 (2024-06-03)", "과매수 구간입니다.", "https://navigator.example.com/timing"} {
		if !strings.Contains(m, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestEmailRetries(t *testing.T) {
	e, sent, calls := newTestNotifier(2)
	if err := e.SendWelcome(context.Background(), "user@example.com", "AAPL", indicators()); err != nil {
		t.Fatalf("SendWelcome() error = %v", err)
	}
	if *calls != 3 || len(*sent) != 1 {
		t.Errorf("calls = %d, sent = %d", *calls, len(*sent))
	}

	e, _, calls = newTestNotifier(10)
	if err := e.SendWelcome(context.Background(), "user@example.com", "AAPL", indicators()); err == nil {
		t.Error("expected error after exhausting retries")
	}
	if *calls != 3 {
		t.Errorf("calls = %d, want 3", *calls)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf strings.Builder
	n := NewLogNotifier(zerolog.New(&buf))

	if err := n.SendWelcome(context.Background(), "a@b.co", "MSFT", indicators()); err != nil {
		t.Fatal(err)
	}
	if err := n.SendSignal(context.Background(), "a@b.co", models.SignalAlert{Ticker: "MSFT", FinalSignal: models.Buy}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"ticker":"MSFT"`) || !strings.Contains(out, "매수") {
		t.Errorf("log output = %s", out)
	}
}
