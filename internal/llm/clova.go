package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/logging"
)

const (
	DefaultClovaBaseURL = "https://clovastudio.stream.ntruss.com"
	DefaultClovaModel   = "HCX-003"
)

var errMalformedEnvelope = errors.New("invalid API response structure")

// Sampling holds the fixed generation parameters sent with every call.
type Sampling struct {
	MaxTokens     int
	Temperature   float64
	TopP          float64
	TopK          int
	RepeatPenalty float64
}

// DefaultSampling returns the parameters tuned for indicator selection.
func DefaultSampling() Sampling {
	return Sampling{
		MaxTokens:     2048,
		Temperature:   0.6,
		TopP:          0.8,
		TopK:          0,
		RepeatPenalty: 5.0,
	}
}

// ClovaConfig configures the HyperCLOVA X chat-completions client.
type ClovaConfig struct {
	BaseURL   string
	Model     string
	APIKey    string
	RequestID string
	Sampling  Sampling
	Timeout   time.Duration
}

// ClovaCompleter calls the HyperCLOVA X Studio chat-completions API.
type ClovaCompleter struct {
	cfg        ClovaConfig
	httpClient *http.Client
}

// NewClovaCompleter creates a completer. Empty BaseURL and Model select the defaults.
func NewClovaCompleter(cfg ClovaConfig) *ClovaCompleter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultClovaBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultClovaModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &ClovaCompleter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *ClovaCompleter) Name() string {
	return "clova"
}

type clovaRequest struct {
	Stream           bool      `json:"stream"`
	TopK             int       `json:"topK"`
	IncludeAIFilters bool      `json:"includeAiFilters"`
	MaxTokens        int       `json:"maxTokens"`
	Temperature      float64   `json:"temperature"`
	RepeatPenalty    float64   `json:"repeatPenalty"`
	TopP             float64   `json:"topP"`
	StopBefore       []string  `json:"stopBefore"`
	Messages         []Message `json:"messages"`
}

type clovaResponse struct {
	Status struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	Result *struct {
		Message *struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"result"`
}

// Complete sends the system prompt followed by the conversation.
func (c *ClovaCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]Message, 0, len(req.Messages)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: req.SystemPrompt})
	messages = append(messages, req.Messages...)

	payload, err := json.Marshal(clovaRequest{
		Stream:           false,
		TopK:             c.cfg.Sampling.TopK,
		IncludeAIFilters: true,
		MaxTokens:        c.cfg.Sampling.MaxTokens,
		Temperature:      c.cfg.Sampling.Temperature,
		RepeatPenalty:    c.cfg.Sampling.RepeatPenalty,
		TopP:             c.cfg.Sampling.TopP,
		StopBefore:       []string{},
		Messages:         messages,
	})
	if err != nil {
		return "", fmt.Errorf("encoding clova request: %w", err)
	}

	url := fmt.Sprintf("%s/testapp/v1/chat-completions/%s", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating clova request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("X-NCP-CLOVASTUDIO-REQUEST-ID", c.cfg.RequestID)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", apperrors.NewUpstreamError(c.Name(), 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.NewUpstreamError(c.Name(), resp.StatusCode, "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.NewUpstreamError(c.Name(), resp.StatusCode, logging.MaskSecrets(strings.TrimSpace(string(body))), nil)
	}

	var envelope clovaResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", apperrors.NewUpstreamError(c.Name(), resp.StatusCode, "", fmt.Errorf("%w: %v", errMalformedEnvelope, err))
	}
	if envelope.Result == nil || envelope.Result.Message == nil || envelope.Result.Message.Content == "" {
		return "", apperrors.NewUpstreamError(c.Name(), resp.StatusCode, "", errMalformedEnvelope)
	}

	return envelope.Result.Message.Content, nil
}
