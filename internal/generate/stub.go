// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/world-engine/pkg/types"
)

// stubAspects names the facets the stub derives subtopics from.
var stubAspects = []string{
	"History", "Governance", "Technology", "Culture",
	"Trade", "Conflicts", "Geography", "Beliefs",
}

// Stub is a deterministic Service that fabricates facts and articles
// without network calls. It backs the --dry-run flag so traversal shape,
// output layout, and store ingestion can be exercised offline.
type Stub struct {
	// FactsPerTopic is the number of facts fabricated per topic (default 5).
	FactsPerTopic int
}

// FactsAndSubtopics fabricates facts named after the topic and derives
// subtopic names from a fixed aspect list, so repeated runs produce the
// same corpus.
func (s Stub) FactsAndSubtopics(_ context.Context, topicName, _ string, _ []string, numSubtopics int) ([]string, []types.SubtopicDetail, error) {
	n := s.FactsPerTopic
	if n <= 0 {
		n = 5
	}

	facts := make([]string, n)
	for i := range facts {
		facts[i] = fmt.Sprintf("%s: placeholder fact %d.", topicName, i+1)
	}

	var subtopics []types.SubtopicDetail
	for i := 0; i < numSubtopics && i < len(stubAspects); i++ {
		subtopics = append(subtopics, types.SubtopicDetail{
			Name:        fmt.Sprintf("%s of %s", stubAspects[i], topicName),
			Description: fmt.Sprintf("The %s of %s.", strings.ToLower(stubAspects[i]), topicName),
		})
	}

	return facts, subtopics, nil
}

// Article renders the facts as a Markdown article skeleton.
func (s Stub) Article(_ context.Context, topicName string, facts, _ []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", topicName)
	for _, f := range facts {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return b.String(), nil
}
