package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/logging"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
	"github.com/seyoungseyoung/GoldenEyeNavigator/pkg/utils"
)

const senderName = "GoldenEye Navigator"

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SiteURL is linked from signal emails.
	SiteURL string
	// Schedule describes the delivery time in welcome emails.
	Schedule string
}

type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends notifications via email using SMTP.
type EmailNotifier struct {
	cfg    EmailConfig
	retry  utils.RetryConfig
	send   sendFunc
	logger zerolog.Logger
}

// NewEmailNotifier creates a new EmailNotifier.
func NewEmailNotifier(cfg EmailConfig, logger zerolog.Logger) *EmailNotifier {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "한국 시간(KST) 오전 5시"
	}
	e := &EmailNotifier{
		cfg:    cfg,
		retry:  utils.FixedDelay(3, 2*time.Second),
		logger: logger.With().Str("component", "email").Logger(),
	}
	e.send = e.deliver
	return e
}

// SendWelcome sends the subscription confirmation.
func (e *EmailNotifier) SendWelcome(ctx context.Context, email, ticker string, indicators []models.IndicatorSpec) error {
	body, err := renderWelcome(ticker, indicators, e.cfg.Schedule)
	if err != nil {
		return fmt.Errorf("rendering welcome email: %w", err)
	}
	subject := fmt.Sprintf("📈 %s 주식 신호 알림 구독 완료", ticker)
	return e.sendHTML(ctx, email, subject, body)
}

// SendSignal sends the daily signal digest.
func (e *EmailNotifier) SendSignal(ctx context.Context, email string, alert models.SignalAlert) error {
	body, err := renderSignal(alert, e.cfg.SiteURL)
	if err != nil {
		return fmt.Errorf("rendering signal email: %w", err)
	}
	subject := fmt.Sprintf("🔔 오늘의 %s 매매 신호: %s", alert.Ticker, alert.FinalSignal.Korean())
	return e.sendHTML(ctx, email, subject, body)
}

func (e *EmailNotifier) sendHTML(ctx context.Context, to, subject, body string) error {
	from := fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", senderName), e.cfg.From)
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"Date: " + time.Now().Format(time.RFC1123Z),
	}
	msg := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	var auth smtp.Auth
	if e.cfg.Username != "" && e.cfg.Password != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	retry := e.retry
	retry.OnRetry = func(attempt int, err error) {
		e.logger.Warn().Err(err).Int("attempt", attempt).Str("to", logging.MaskEmail(to)).Msg("Email delivery failed, retrying")
	}
	err := utils.Retry(ctx, retry, func() error {
		return e.send(addr, auth, e.cfg.From, []string{to}, []byte(msg))
	})
	if err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	e.logger.Info().Str("to", logging.MaskEmail(to)).Str("subject", subject).Msg("Email sent")
	return nil
}

// deliver uses implicit TLS on port 465 and STARTTLS (when offered) otherwise.
func (e *EmailNotifier) deliver(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	if e.cfg.Port != 465 {
		return smtp.SendMail(addr, auth, from, to, msg)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: e.cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("SMTP MAIL command failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("SMTP RCPT command failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}
