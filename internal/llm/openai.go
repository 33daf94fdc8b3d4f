package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures an OpenAI-compatible chat client.
type OpenAIConfig struct {
	BaseURL  string
	Model    string
	APIKey   string
	Sampling Sampling
}

// OpenAICompleter implements Completer using the OpenAI chat completions API.
type OpenAICompleter struct {
	client   *openai.Client
	model    string
	sampling Sampling
}

// NewOpenAICompleter creates a new OpenAI completer.
func NewOpenAICompleter(cfg OpenAIConfig) *OpenAICompleter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAICompleter{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		sampling: cfg.Sampling,
	}
}

func (c *OpenAICompleter) Name() string {
	return "openai"
}

// Complete sends the prompt with a system message to the model.
func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.sampling.MaxTokens,
		Temperature: float32(c.sampling.Temperature),
		TopP:        float32(c.sampling.TopP),
	})
	if err != nil {
		return "", c.upstreamError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", apperrors.NewUpstreamError(c.Name(), 0, "", errMalformedEnvelope)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAICompleter) upstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.NewUpstreamError(c.Name(), apiErr.HTTPStatusCode, apiErr.Message, nil)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperrors.NewUpstreamError(c.Name(), reqErr.HTTPStatusCode, string(reqErr.Body), reqErr.Err)
	}
	return apperrors.NewUpstreamError(c.Name(), 0, "", fmt.Errorf("openai completion failed: %w", err))
}
