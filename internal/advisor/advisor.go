// Package advisor drafts personalised investment strategies from survey
// answers and answers free-form questions about strategies and market news.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/llm"
)

// AnswerKey wraps a plain-text Q&A answer into an object.
const AnswerKey = "answer"

// Invoker is the part of the LLM gateway the advisor needs.
type Invoker interface {
	Invoke(ctx context.Context, conversation []llm.Message, systemPrompt, wrapKey string) (llm.Object, error)
}

// Advisor runs the strategy, Q&A and market insight flows.
type Advisor struct {
	invoker Invoker
	logger  zerolog.Logger
}

// New creates an advisor over invoker.
func New(invoker Invoker, logger zerolog.Logger) *Advisor {
	return &Advisor{
		invoker: invoker,
		logger:  logger.With().Str("component", "advisor").Logger(),
	}
}

// GenerateStrategy drafts a strategy for profile and normalises its allocation.
// A draft that still breaks the final contract goes through one editing round.
func (a *Advisor) GenerateStrategy(ctx context.Context, profile Profile) (Strategy, error) {
	if err := profile.Validate(); err != nil {
		return Strategy{}, err
	}

	conversation := []llm.Message{llm.UserMessage(profile.prompt())}
	obj, err := a.invoker.Invoke(ctx, conversation, generatorPrompt, "")
	if err != nil {
		return Strategy{}, fmt.Errorf("drafting strategy: %w", err)
	}
	draft, err := ParseStrategy(obj, false)
	if err != nil {
		a.logger.Warn().Err(err).Str("raw", obj.JSON()).Msg("Strategy draft rejected")
		return Strategy{}, err
	}

	if total := draft.AssetAllocation.Total(); total != 100 {
		draft.AssetAllocation = draft.AssetAllocation.Normalize()
		a.logger.Debug().Float64("total", total).Msg("Allocation normalised")
	}
	if draft.PortfolioName == "" {
		draft.PortfolioName = strings.TrimSpace(profile.Name) + "님의 맞춤 포트폴리오"
	}
	if draft.Final() {
		a.logger.Info().Int("recommendations", len(draft.Recommendations)).Msg("Strategy generated")
		return draft, nil
	}

	a.logger.Info().Int("recommendations", len(draft.Recommendations)).Msg("Strategy draft needs editing")
	return a.Refine(ctx, draft)
}

// Refine asks the model to edit draft into a final strategy with 3 to 4
// recommendations and an allocation summing to 100.
func (a *Advisor) Refine(ctx context.Context, draft Strategy) (Strategy, error) {
	data, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return Strategy{}, err
	}
	prompt := "Review this draft strategy and return the final version:\n```json\n" + string(data) + "\n```"

	obj, err := a.invoker.Invoke(ctx, []llm.Message{llm.UserMessage(prompt)}, validatorPrompt, "")
	if err != nil {
		return Strategy{}, fmt.Errorf("refining strategy: %w", err)
	}
	// Rounding drift in the editor's allocation is repaired before the final check.
	if alloc, ok := obj["assetAllocation"]; ok {
		var weights Allocation
		if json.Unmarshal(alloc, &weights) == nil && weights.Total() > 0 {
			if fixed, err := json.Marshal(weights.Normalize()); err == nil {
				obj["assetAllocation"] = fixed
			}
		}
	}
	final, err := ParseStrategy(obj, true)
	if err != nil {
		a.logger.Warn().Err(err).Str("raw", obj.JSON()).Msg("Refined strategy rejected")
		return Strategy{}, err
	}
	a.logger.Info().Int("recommendations", len(final.Recommendations)).Msg("Strategy refined")
	return final, nil
}

// Ask answers a financial question in Korean. strategy, when non-nil, is the
// context the answer is grounded on.
func (a *Advisor) Ask(ctx context.Context, question string, strategy *Strategy) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperrors.NewValidationError("question", question, "question is required")
	}

	system := qaPrompt
	if strategy != nil {
		data, err := json.MarshalIndent(strategy, "", "  ")
		if err != nil {
			return "", err
		}
		system = qaStrategyPrompt + "```json\n" + string(data) + "\n```"
	}
	prompt := fmt.Sprintf("Answer this financial question: %q", question)

	obj, err := a.invoker.Invoke(ctx, []llm.Message{llm.UserMessage(prompt)}, system, AnswerKey)
	if err != nil {
		return "", fmt.Errorf("answering question: %w", err)
	}
	answer, ok := obj.String(AnswerKey)
	if !ok || strings.TrimSpace(answer) == "" {
		return "", apperrors.NewSchemaError("qa", []apperrors.Violation{{Field: AnswerKey, Message: "must be a non-empty string"}})
	}
	a.logger.Debug().Bool("with_strategy", strategy != nil).Int("answer_len", len(answer)).Msg("Question answered")
	return strings.TrimSpace(answer), nil
}

// AnalyzeMarket summarises market news and suggests actions.
func (a *Advisor) AnalyzeMarket(ctx context.Context, news string) (MarketInsight, error) {
	news = strings.TrimSpace(news)
	if news == "" {
		return MarketInsight{}, apperrors.NewValidationError("marketNews", news, "market news is required")
	}

	prompt := "Analyse the following market news and trends:\n" + news
	obj, err := a.invoker.Invoke(ctx, []llm.Message{llm.UserMessage(prompt)}, insightPrompt, "")
	if err != nil {
		return MarketInsight{}, fmt.Errorf("analysing market news: %w", err)
	}
	insight, err := parseInsight(obj)
	if err != nil {
		a.logger.Warn().Err(err).Str("raw", obj.JSON()).Msg("Market insight rejected")
		return MarketInsight{}, err
	}
	return insight, nil
}
