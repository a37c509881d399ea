// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/world-engine/internal/httputil"
	"github.com/pdiddy/world-engine/internal/markdown"
	"github.com/pdiddy/world-engine/pkg/types"
)

// defaultClaudeURL is the Claude Messages API endpoint.
const defaultClaudeURL = "https://api.anthropic.com/v1/messages"

const (
	factsMaxTokens   = 4096
	articleMaxTokens = 8192
)

// ClaudeBackend implements Service against the Claude Messages API.
type ClaudeBackend struct {
	APIKey  string
	Model   string
	BaseURL string // empty uses defaultClaudeURL
	Client  *http.Client
	Limiter *rate.Limiter // optional request pacing
}

// NewClaudeBackend builds a ClaudeBackend from config. A zero
// RequestsPerMinute disables pacing.
func NewClaudeBackend(cfg types.AIConfig) (*ClaudeBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude backend requires an API key")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("claude backend requires a model identifier")
	}
	b := &ClaudeBackend{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	}
	if cfg.RequestsPerMinute > 0 {
		b.Limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	return b, nil
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// FactsAndSubtopics generates facts and subtopics for a topic in a single
// JSON-only completion.
func (c *ClaudeBackend) FactsAndSubtopics(ctx context.Context, topicName, topicDescription string, ancestralFacts []string, numSubtopics int) ([]string, []types.SubtopicDetail, error) {
	prompt, err := renderFactsPrompt(topicName, topicDescription, ancestralFacts, numSubtopics)
	if err != nil {
		return nil, nil, genErr(OpFacts, topicName, fmt.Errorf("rendering prompt: %w", err))
	}

	raw, err := c.complete(ctx, prompt, factsMaxTokens)
	if err != nil {
		return nil, nil, genErr(OpFacts, topicName, err)
	}

	resp, err := parseFactsResponse(raw)
	if err != nil {
		return nil, nil, genErr(OpFacts, topicName, err)
	}
	return resp.Facts, resp.Subtopics, nil
}

// Article expands facts into a Markdown article. Any hyperlinks the model
// emits despite the prompt are stripped before the article is returned.
func (c *ClaudeBackend) Article(ctx context.Context, topicName string, facts, ancestralFacts []string) (string, error) {
	prompt, err := renderArticlePrompt(topicName, facts, ancestralFacts)
	if err != nil {
		return "", genErr(OpArticle, topicName, fmt.Errorf("rendering prompt: %w", err))
	}

	raw, err := c.complete(ctx, prompt, articleMaxTokens)
	if err != nil {
		return "", genErr(OpArticle, topicName, err)
	}
	if raw == "" {
		return "", genErr(OpArticle, topicName, fmt.Errorf("model returned empty article"))
	}

	return markdown.StripLinks(raw), nil
}

// complete sends one user message and returns the concatenated text blocks.
func (c *ClaudeBackend) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := c.BaseURL
	if url == "" {
		url = defaultClaudeURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	var text bytes.Buffer
	for _, block := range cResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no text content in Claude API response")
	}
	return text.String(), nil
}
