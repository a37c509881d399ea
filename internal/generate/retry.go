// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/world-engine/pkg/types"
)

// backoffBase controls the base duration for exponential backoff between
// retries. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Retrying wraps a Service with exponential-backoff retries. Retrying lives
// inside the generation service boundary: the corpus builder itself never
// retries, it only sees the final outcome.
type Retrying struct {
	Service    Service
	MaxRetries int // attempts beyond the first; <= 0 uses 3
}

// WithRetries wraps svc so each generation call is retried on failure.
func WithRetries(svc Service, maxRetries int) Retrying {
	return Retrying{Service: svc, MaxRetries: maxRetries}
}

// FactsAndSubtopics retries the wrapped call with exponential backoff.
func (r Retrying) FactsAndSubtopics(ctx context.Context, topicName, topicDescription string, ancestralFacts []string, numSubtopics int) ([]string, []types.SubtopicDetail, error) {
	var (
		facts     []string
		subtopics []types.SubtopicDetail
	)
	err := r.retry(ctx, func() error {
		var callErr error
		facts, subtopics, callErr = r.Service.FactsAndSubtopics(ctx, topicName, topicDescription, ancestralFacts, numSubtopics)
		return callErr
	})
	if err != nil {
		return nil, nil, err
	}
	return facts, subtopics, nil
}

// Article retries the wrapped call with exponential backoff.
func (r Retrying) Article(ctx context.Context, topicName string, facts, ancestralFacts []string) (string, error) {
	var article string
	err := r.retry(ctx, func() error {
		var callErr error
		article, callErr = r.Service.Article(ctx, topicName, facts, ancestralFacts)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return article, nil
}

func (r Retrying) retry(ctx context.Context, call func() error) error {
	maxRetries := r.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := call(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
