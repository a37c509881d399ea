// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/world-engine/pkg/types"
)

func TestMain(m *testing.M) {
	// Keep retry backoff out of test wall time.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

// --- prompt rendering ---

func TestRenderFactsPrompt(t *testing.T) {
	prompt, err := renderFactsPrompt("Geode City", "A city inside a geode.",
		[]string{"The geode was discovered in 1971.", "Its crystals glow faintly."}, 4)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"Topic: Geode City",
		"A city inside a geode.",
		"- The geode was discovered in 1971.",
		"- Its crystals glow faintly.",
		"exactly 4 subtopics",
		"at least 8 distinct facts",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRenderFactsPromptNoAncestors(t *testing.T) {
	prompt, err := renderFactsPrompt("Geode City", "A city inside a geode.", nil, 8)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(prompt, "Ancestral facts:\n(none)") {
		t.Error("empty ancestral facts should render as (none)")
	}
}

func TestRenderArticlePrompt(t *testing.T) {
	prompt, err := renderArticlePrompt("Geode City",
		[]string{"Founded in 1971."}, []string{"The planet has two moons."})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"Topic: Geode City",
		"- Founded in 1971.",
		"- The planet has two moons.",
		"MUST NOT contain any external or internal hyperlinks",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

// --- response parsing ---

func TestParseFactsResponse(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantErr       bool
		wantFacts     int
		wantSubtopics int
	}{
		{
			name:          "plain JSON",
			raw:           `{"facts": ["a", "b"], "subtopics": [{"name": "X", "description": "about X"}]}`,
			wantFacts:     2,
			wantSubtopics: 1,
		},
		{
			name:          "fenced JSON",
			raw:           "```json\n{\"facts\": [\"a\"], \"subtopics\": []}\n```",
			wantFacts:     1,
			wantSubtopics: 0,
		},
		{
			name:    "no facts",
			raw:     `{"facts": [], "subtopics": [{"name": "X", "description": "d"}]}`,
			wantErr: true,
		},
		{
			name:    "not JSON",
			raw:     "Sure! Here are some facts about the topic.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseFactsResponse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(resp.Facts) != tt.wantFacts {
				t.Errorf("got %d facts, want %d", len(resp.Facts), tt.wantFacts)
			}
			if len(resp.Subtopics) != tt.wantSubtopics {
				t.Errorf("got %d subtopics, want %d", len(resp.Subtopics), tt.wantSubtopics)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\": 1}\n```\n", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// --- stub ---

func TestStubDeterministic(t *testing.T) {
	stub := Stub{}
	ctx := context.Background()

	facts1, subs1, err := stub.FactsAndSubtopics(ctx, "Salvage Clans", "desc", nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	facts2, subs2, err := stub.FactsAndSubtopics(ctx, "Salvage Clans", "desc", nil, 4)
	if err != nil {
		t.Fatal(err)
	}

	if len(facts1) != 5 {
		t.Errorf("got %d facts, want 5", len(facts1))
	}
	if len(subs1) != 4 {
		t.Errorf("got %d subtopics, want 4", len(subs1))
	}
	for i := range facts1 {
		if facts1[i] != facts2[i] {
			t.Errorf("fact %d differs across runs: %q vs %q", i, facts1[i], facts2[i])
		}
	}
	for i := range subs1 {
		if subs1[i] != subs2[i] {
			t.Errorf("subtopic %d differs across runs", i)
		}
	}

	article, err := stub.Article(ctx, "Salvage Clans", facts1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(article, "# Salvage Clans\n") {
		t.Errorf("article missing heading: %q", article)
	}
	for _, f := range facts1 {
		if !strings.Contains(article, f) {
			t.Errorf("article missing fact %q", f)
		}
	}
}

func TestStubSubtopicCap(t *testing.T) {
	stub := Stub{}
	_, subs, err := stub.FactsAndSubtopics(context.Background(), "T", "d", nil, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != len(stubAspects) {
		t.Errorf("got %d subtopics, want %d", len(subs), len(stubAspects))
	}
}

// --- retries ---

// flakyService fails a fixed number of times before succeeding.
type flakyService struct {
	failures int
	calls    int
}

func (f *flakyService) FactsAndSubtopics(_ context.Context, topicName, _ string, _ []string, _ int) ([]string, []types.SubtopicDetail, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, nil, genErr(OpFacts, topicName, fmt.Errorf("transient failure %d", f.calls))
	}
	return []string{"fact"}, nil, nil
}

func (f *flakyService) Article(_ context.Context, topicName string, _, _ []string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", genErr(OpArticle, topicName, fmt.Errorf("transient failure %d", f.calls))
	}
	return "# Article", nil
}

func TestRetryingEventualSuccess(t *testing.T) {
	flaky := &flakyService{failures: 2}
	svc := WithRetries(flaky, 3)

	facts, _, err := svc.FactsAndSubtopics(context.Background(), "T", "d", nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(facts) != 1 {
		t.Errorf("got %d facts, want 1", len(facts))
	}
	if flaky.calls != 3 {
		t.Errorf("got %d calls, want 3", flaky.calls)
	}
}

func TestRetryingExhaustion(t *testing.T) {
	flaky := &flakyService{failures: 10}
	svc := WithRetries(flaky, 2)

	_, _, err := svc.FactsAndSubtopics(context.Background(), "T", "d", nil, 4)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if flaky.calls != 3 {
		t.Errorf("got %d calls, want 3 (initial plus 2 retries)", flaky.calls)
	}

	// The underlying generation error stays reachable through the wrap.
	var genError *Error
	if !errors.As(err, &genError) {
		t.Errorf("cannot unwrap to generation error: %v", err)
	}
	if genError.Op != OpFacts || genError.Topic != "T" {
		t.Errorf("unwrapped wrong error: %+v", genError)
	}
}

func TestRetryingContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	flaky := &flakyService{failures: 10}
	svc := WithRetries(flaky, 5)

	_, _, err := svc.FactsAndSubtopics(ctx, "T", "d", nil, 4)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	// First attempt runs, then the backoff select observes cancellation.
	if flaky.calls != 1 {
		t.Errorf("got %d calls, want 1", flaky.calls)
	}
}

// --- factory ---

func TestNewService(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.AIConfig
		wantErr bool
	}{
		{
			name: "claude",
			cfg:  types.AIConfig{Provider: types.ProviderClaude, Model: "m", APIKey: "k"},
		},
		{
			name: "default provider is claude",
			cfg:  types.AIConfig{Model: "m", APIKey: "k"},
		},
		{
			name: "openai",
			cfg:  types.AIConfig{Provider: types.ProviderOpenAI, Model: "m", APIKey: "k"},
		},
		{
			name: "stub needs no key",
			cfg:  types.AIConfig{Provider: types.ProviderStub},
		},
		{
			name:    "claude without key",
			cfg:     types.AIConfig{Provider: types.ProviderClaude, Model: "m"},
			wantErr: true,
		},
		{
			name:    "claude without model",
			cfg:     types.AIConfig{Provider: types.ProviderClaude, APIKey: "k"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     types.AIConfig{Provider: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if svc == nil {
				t.Fatal("nil service")
			}
		})
	}
}
