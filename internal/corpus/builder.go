// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus grows a hierarchical corpus of topic articles by
// breadth-first expansion of a root topic. Each dequeued topic gets two
// generation calls (facts+subtopics, then article); its facts then join a
// single shared ancestral-facts list visible to every topic processed
// after it.
//
// The traversal is strictly sequential. The ancestral-facts list must be a
// consistent snapshot at each step, and only a sequential scheduler gives
// that linear ordering for free. Parallelizing across queue items would
// change which facts are visible to which topics and needs an explicit
// merge policy; pacing and retries belong inside the generation backends
// instead.
//
// See docs/ARCHITECTURE § Corpus Builder.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/world-engine/internal/generate"
	"github.com/pdiddy/world-engine/pkg/types"
)

// ErrInvalidInput marks rejected build parameters: an empty root topic
// name or a negative max depth.
var ErrInvalidInput = errors.New("invalid build input")

// workItem is one pending queue entry. Items are values; the same topic
// name can sit in the queue several times (once per proposing parent) and
// duplicates are dropped at dequeue.
type workItem struct {
	name        string
	description string
	depth       int
}

// Failure records a topic skipped because a generation call failed.
type Failure struct {
	// Topic is the topic name that failed.
	Topic string

	// Depth is the depth the topic was dequeued at.
	Depth int

	// Err is the generation error.
	Err error
}

// Builder runs one corpus build at a time. It owns the traversal queue,
// the visited set, the ancestral-facts list, and the resulting corpus; a
// Builder must not be shared by concurrent callers.
type Builder struct {
	svc generate.Service
	cfg types.BuildConfig
	log io.Writer

	failures []Failure
}

// New returns a Builder using the given generation service. Progress lines
// are written to logw; pass nil to discard them. Zero values in cfg fall
// back to defaults (RootSubtopics 8, ChildSubtopics 4).
func New(svc generate.Service, cfg types.BuildConfig, logw io.Writer) *Builder {
	if logw == nil {
		logw = io.Discard
	}
	if cfg.RootSubtopics <= 0 {
		cfg.RootSubtopics = 8
	}
	if cfg.ChildSubtopics <= 0 {
		cfg.ChildSubtopics = 4
	}
	return &Builder{svc: svc, cfg: cfg, log: logw}
}

// Failures returns the topics skipped during the most recent Build call.
// It is empty after a fail-fast abort and when every topic succeeded.
func (b *Builder) Failures() []Failure {
	return b.failures
}

// Build expands the root topic breadth-first into a corpus, bounded by
// cfg.MaxDepth (inclusive, root = 0).
//
// Each topic is processed at most once: a name already visited is dropped
// when dequeued, so a topic proposed by several parents lands at whichever
// depth it was first dequeued. Both generation calls for a topic see the
// ancestral facts as they stood before the topic was processed; the
// topic's own facts are appended only after its article is generated.
//
// On a generation failure the topic is skipped and recorded (see
// Failures) and its would-be subtopics are never enqueued; with
// cfg.FailFast the whole build aborts instead and no partial corpus is
// returned. Context cancellation always aborts.
func (b *Builder) Build(ctx context.Context, rootName, rootDescription string) (*types.Corpus, error) {
	if strings.TrimSpace(rootName) == "" {
		return nil, fmt.Errorf("%w: root topic name is empty", ErrInvalidInput)
	}
	if b.cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: max depth %d is negative", ErrInvalidInput, b.cfg.MaxDepth)
	}

	b.failures = nil

	result := types.NewCorpus()
	visited := make(map[string]bool)
	var ancestralFacts []string
	queue := []workItem{{name: rootName, description: rootDescription, depth: 0}}

	fmt.Fprintf(b.log, "Starting corpus build for topic %q with max depth %d\n", rootName, b.cfg.MaxDepth)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := queue[0]
		queue = queue[1:]
		indent := strings.Repeat("  ", item.depth+1)

		if visited[item.name] {
			fmt.Fprintf(b.log, "%sSkipping already visited topic %q\n", indent, item.name)
			continue
		}
		if item.depth > b.cfg.MaxDepth {
			fmt.Fprintf(b.log, "%sSkipping topic %q beyond max depth (%d > %d)\n", indent, item.name, item.depth, b.cfg.MaxDepth)
			continue
		}

		fmt.Fprintf(b.log, "%sProcessing topic %q (depth %d)\n", indent, item.name, item.depth)
		visited[item.name] = true

		numSubtopics := b.cfg.ChildSubtopics
		if item.depth == 0 {
			numSubtopics = b.cfg.RootSubtopics
		}

		facts, subtopics, err := b.svc.FactsAndSubtopics(ctx, item.name, item.description, ancestralFacts, numSubtopics)
		if err != nil {
			if abortErr := b.recordFailure(ctx, item, err); abortErr != nil {
				return nil, abortErr
			}
			continue
		}
		fmt.Fprintf(b.log, "%s  Generated %d facts and %d subtopics\n", indent, len(facts), len(subtopics))

		// The article sees the same ancestral snapshot as the facts call:
		// this topic's facts are not yet part of the ancestral context.
		article, err := b.svc.Article(ctx, item.name, facts, ancestralFacts)
		if err != nil {
			if abortErr := b.recordFailure(ctx, item, err); abortErr != nil {
				return nil, abortErr
			}
			continue
		}

		result.Add(item.name, types.ArticleData{
			Article:   article,
			Facts:     facts,
			Subtopics: subtopics,
			Depth:     item.depth,
		})

		ancestralFacts = append(ancestralFacts, facts...)

		if item.depth < b.cfg.MaxDepth {
			for _, sub := range subtopics {
				switch {
				case sub.Name == "":
					fmt.Fprintf(b.log, "%s  Skipping subtopic with missing name\n", indent)
				case visited[sub.Name]:
					fmt.Fprintf(b.log, "%s  Subtopic %q already visited\n", indent, sub.Name)
				default:
					// Not checked against queue contents: the same name can
					// be enqueued by several parents before any dequeue; the
					// later copies are dropped by the visited check above.
					queue = append(queue, workItem{name: sub.Name, description: sub.Description, depth: item.depth + 1})
					fmt.Fprintf(b.log, "%s  Queued subtopic %q (depth %d)\n", indent, sub.Name, item.depth+1)
				}
			}
		}
	}

	fmt.Fprintf(b.log, "Corpus build complete: %d topics processed, %d failed\n", result.Len(), len(b.failures))
	return result, nil
}

// recordFailure applies the failure policy for a topic whose generation
// failed. It returns a non-nil error when the build must abort: fail-fast
// mode, or a failure caused by context cancellation.
func (b *Builder) recordFailure(ctx context.Context, item workItem, err error) error {
	if b.cfg.FailFast {
		return fmt.Errorf("topic %q (depth %d): %w", item.name, item.depth, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	fmt.Fprintf(b.log, "%sSkipping topic %q after generation failure: %v\n", strings.Repeat("  ", item.depth+1), item.name, err)
	b.failures = append(b.failures, Failure{Topic: item.name, Depth: item.depth, Err: err})
	return nil
}
