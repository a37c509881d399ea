// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate produces facts, subtopics, and articles from a generative
// AI backend. The corpus builder depends only on the Service interface; one
// implementation exists per provider, plus a deterministic stub.
//
// See docs/ARCHITECTURE § Generation Service.
package generate

import (
	"context"
	"fmt"

	"github.com/pdiddy/world-engine/pkg/types"
)

// Service is the generation capability the corpus builder consumes.
// Both operations may block on network I/O; implementations honor ctx
// cancellation. Successful FactsAndSubtopics calls return a non-empty
// facts slice; subtopic entries may carry empty names, which the builder
// skips at enqueue time.
type Service interface {
	// FactsAndSubtopics generates discrete facts about a topic and
	// candidate subtopics for further exploration. ancestralFacts is the
	// accumulated context from all previously processed topics;
	// numSubtopics is the requested number of children.
	FactsAndSubtopics(ctx context.Context, topicName, topicDescription string, ancestralFacts []string, numSubtopics int) ([]string, []types.SubtopicDetail, error)

	// Article expands a topic's facts into a Markdown article, using the
	// same ancestral context the facts were generated against. The
	// returned Markdown contains no hyperlinks.
	Article(ctx context.Context, topicName string, facts, ancestralFacts []string) (string, error)
}

// Op identifies which generation operation failed.
type Op string

const (
	OpFacts   Op = "facts"
	OpArticle Op = "article"
)

// Error reports a generation failure for one topic, identifying the
// operation and topic so build logs can name what failed.
type Error struct {
	Topic string
	Op    Op
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generating %s for topic %q: %v", e.Op, e.Topic, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// genErr wraps err as a generation Error unless it already is one.
func genErr(op Op, topic string, err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return &Error{Topic: topic, Op: op, Err: err}
}

// NewService builds the configured provider backend, wrapped with retries.
// The stub provider is returned bare: it cannot fail, so retries would
// only obscure test behavior.
func NewService(cfg types.AIConfig) (Service, error) {
	switch cfg.Provider {
	case types.ProviderClaude, "":
		backend, err := NewClaudeBackend(cfg)
		if err != nil {
			return nil, err
		}
		return WithRetries(backend, cfg.MaxRetries), nil
	case types.ProviderOpenAI:
		backend, err := NewOpenAIBackend(cfg)
		if err != nil {
			return nil, err
		}
		return WithRetries(backend, cfg.MaxRetries), nil
	case types.ProviderStub:
		return Stub{}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
