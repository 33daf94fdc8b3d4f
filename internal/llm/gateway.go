// Package llm invokes an external chat model and coerces its free-form answer
// into a JSON object.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/pkg/utils"
)

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage is shorthand for a single user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// CompletionRequest is a single upstream call.
type CompletionRequest struct {
	SystemPrompt string
	Messages     []Message
}

// Completer performs exactly one upstream call and returns the raw text answer.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Observer receives per-attempt outcomes, e.g. for metrics.
type Observer interface {
	ObserveLLMAttempt(provider, outcome string, duration time.Duration)
}

// Object is a decoded JSON object whose values are decoded lazily.
type Object map[string]json.RawMessage

// Decode re-encodes the object into v.
func (o Object) Decode(v any) error {
	data, err := json.Marshal(map[string]json.RawMessage(o))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// String returns the value of key when it is a JSON string.
func (o Object) String(key string) (string, bool) {
	raw, ok := o[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Number returns the value of key when it is a JSON number or a string holding one.
func (o Object) Number(key string) (float64, bool) {
	raw, ok := o[key]
	if !ok {
		return 0, false
	}
	return Number(raw)
}

// Number accepts a JSON number or a string holding one. NaN and infinities
// are rejected.
func Number(raw json.RawMessage) (float64, bool) {
	if strings.TrimSpace(string(raw)) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// JSON returns the compact encoding of the object, for logs.
func (o Object) JSON() string {
	data, err := json.Marshal(map[string]json.RawMessage(o))
	if err != nil {
		return ""
	}
	return string(data)
}

// Options tunes the retry loop around a Completer.
type Options struct {
	MaxAttempts int
	RetryDelay  time.Duration
	// Sleep replaces the wait between attempts (tests).
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultOptions returns three attempts one second apart.
func DefaultOptions() Options {
	return Options{MaxAttempts: 3, RetryDelay: time.Second}
}

// Gateway retries a Completer and extracts a JSON object from its answers.
type Gateway struct {
	completer Completer
	opts      Options
	logger    zerolog.Logger
	observer  Observer
}

// NewGateway creates a gateway over completer.
func NewGateway(completer Completer, opts Options, logger zerolog.Logger) *Gateway {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Gateway{
		completer: completer,
		opts:      opts,
		logger:    logger.With().Str("component", "llm_gateway").Str("provider", completer.Name()).Logger(),
	}
}

// WithObserver attaches an attempt observer.
func (g *Gateway) WithObserver(o Observer) *Gateway {
	g.observer = o
	return g
}

// Invoke sends the conversation with systemPrompt and returns the first JSON object
// recovered from an answer. When wrapKey is set, a plain-prose answer is returned
// as {wrapKey: prose}. Transport failures and unusable answers are retried with a
// fixed delay; the error of the final attempt is returned after exhaustion.
func (g *Gateway) Invoke(ctx context.Context, conversation []Message, systemPrompt, wrapKey string) (Object, error) {
	if len(conversation) == 0 {
		return nil, apperrors.NewValidationError("conversation", 0, "at least one message is required")
	}

	req := CompletionRequest{SystemPrompt: systemPrompt, Messages: conversation}
	attempt := 0

	retry := utils.FixedDelay(g.opts.MaxAttempts, g.opts.RetryDelay)
	retry.Sleep = g.opts.Sleep
	retry.OnRetry = func(n int, err error) {
		g.logger.Warn().Err(err).Int("attempt", n).Int("max_attempts", g.opts.MaxAttempts).
			Dur("retry_in", g.opts.RetryDelay).Msg("Model call failed, retrying")
	}

	obj, err := utils.RetryWithResult(ctx, retry, func() (Object, error) {
		attempt++
		return g.attempt(ctx, req, wrapKey, attempt)
	})
	if err != nil {
		g.logger.Error().Err(err).Int("attempts", attempt).Msg("Model call exhausted retries")
		return nil, fmt.Errorf("llm %s failed after %d attempts: %w", g.completer.Name(), attempt, err)
	}
	return obj, nil
}

// InvokeInto is Invoke followed by decoding the object into v.
func (g *Gateway) InvokeInto(ctx context.Context, conversation []Message, systemPrompt, wrapKey string, v any) error {
	obj, err := g.Invoke(ctx, conversation, systemPrompt, wrapKey)
	if err != nil {
		return err
	}
	if err := obj.Decode(v); err != nil {
		return apperrors.NewModelOutputError(g.completer.Name(), "", err)
	}
	return nil
}

func (g *Gateway) attempt(ctx context.Context, req CompletionRequest, wrapKey string, n int) (Object, error) {
	start := time.Now()

	raw, err := g.completer.Complete(ctx, req)
	if err != nil {
		g.observe("transport_error", start)
		return nil, err
	}

	obj, layer, err := Extract(raw, wrapKey)
	if err != nil {
		g.observe("parse_error", start)
		return nil, apperrors.NewModelOutputError(g.completer.Name(), raw, err)
	}

	g.observe("success", start)
	g.logger.Debug().Int("attempt", n).Str("layer", layer).Dur("duration", time.Since(start)).Msg("Model answer parsed")
	return obj, nil
}

func (g *Gateway) observe(outcome string, start time.Time) {
	if g.observer != nil {
		g.observer.ObserveLLMAttempt(g.completer.Name(), outcome, time.Since(start))
	}
}
