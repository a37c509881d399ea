// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/pdiddy/world-engine/internal/markdown"
	"github.com/pdiddy/world-engine/pkg/types"
)

// OpenAIBackend implements Service using the official openai-go SDK
// (chat completions).
type OpenAIBackend struct {
	Model   string
	Opts    []option.RequestOption
	Limiter *rate.Limiter
}

// NewOpenAIBackend builds an OpenAIBackend from config.
func NewOpenAIBackend(cfg types.AIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai backend requires an API key")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai backend requires a model identifier")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	b := &OpenAIBackend{Model: cfg.Model, Opts: opts}
	if cfg.RequestsPerMinute > 0 {
		b.Limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	return b, nil
}

// FactsAndSubtopics generates facts and subtopics for a topic in a single
// JSON-only completion.
func (o *OpenAIBackend) FactsAndSubtopics(ctx context.Context, topicName, topicDescription string, ancestralFacts []string, numSubtopics int) ([]string, []types.SubtopicDetail, error) {
	prompt, err := renderFactsPrompt(topicName, topicDescription, ancestralFacts, numSubtopics)
	if err != nil {
		return nil, nil, genErr(OpFacts, topicName, fmt.Errorf("rendering prompt: %w", err))
	}

	raw, err := o.complete(ctx, prompt)
	if err != nil {
		return nil, nil, genErr(OpFacts, topicName, err)
	}

	resp, err := parseFactsResponse(raw)
	if err != nil {
		return nil, nil, genErr(OpFacts, topicName, err)
	}
	return resp.Facts, resp.Subtopics, nil
}

// Article expands facts into a Markdown article, stripping any hyperlinks
// the model emits despite the prompt.
func (o *OpenAIBackend) Article(ctx context.Context, topicName string, facts, ancestralFacts []string) (string, error) {
	prompt, err := renderArticlePrompt(topicName, facts, ancestralFacts)
	if err != nil {
		return "", genErr(OpArticle, topicName, fmt.Errorf("rendering prompt: %w", err))
	}

	raw, err := o.complete(ctx, prompt)
	if err != nil {
		return "", genErr(OpArticle, topicName, err)
	}
	if raw == "" {
		return "", genErr(OpArticle, topicName, fmt.Errorf("model returned empty article"))
	}

	return markdown.StripLinks(raw), nil
}

// complete sends one user message and returns the first choice's content.
func (o *OpenAIBackend) complete(ctx context.Context, prompt string) (string, error) {
	if o.Limiter != nil {
		if err := o.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	client := openai.NewClient(o.Opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
