// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/world-engine/pkg/types"
)

// factsPromptTmpl asks the model for discrete facts about a topic plus
// candidate subtopics, as a single JSON object. New facts must be
// consistent with and build on the ancestral facts.
var factsPromptTmpl = template.Must(template.New("facts").Parse(`You are a worldbuilding corpus generator. Given a topic, its description, and all ancestral facts for context, generate discrete facts about the topic and subtopics to explore further.

Requirements for facts:
- Generate at least 8 distinct facts.
- Make sure new facts are consistent with and build off of the ancestral facts.
- Be specific: generously include names, places, historical figures, and dates.
- Use numbers and figures to quantify and add detail. For example, facts about trade should name specific trade partners, treaties, and trade goods.

Requirements for subtopics:
- Generate exactly {{.NumSubtopics}} subtopics, each with a name and a brief description.
- Subtopics must be consistent with and build off of the ancestral facts.

Respond with a JSON object containing a "facts" array of strings and a "subtopics" array of {"name", "description"} objects. Do not include any text outside the JSON object.

Example response:
{"facts": ["The Kelp Wars of 2041 ended with the Treaty of the Outer Shelf."], "subtopics": [{"name": "The Treaty of the Outer Shelf", "description": "Terms and consequences of the treaty that ended the Kelp Wars."}]}

Topic: {{.TopicName}}

Topic description:
{{.TopicDescription}}

Ancestral facts:
{{.AncestralFacts}}
`))

// articlePromptTmpl asks the model to expand a topic's facts into a
// Markdown article. The article must carry no hyperlinks; backends also
// strip any that slip through.
var articlePromptTmpl = template.Must(template.New("article").Parse(`You are a worldbuilding corpus generator. Expand the following facts about a topic into a coherent, well-structured article.

Requirements:
- The article MUST be in Markdown format.
- The article MUST NOT contain any external or internal hyperlinks.
- The length should be appropriate for the number and detail of facts provided.
- Stay consistent with the ancestral facts.

Respond with the article Markdown only, no preamble.

Topic: {{.TopicName}}

Facts about this topic:
{{.Facts}}

Ancestral facts:
{{.AncestralFacts}}
`))

// factsPromptData feeds factsPromptTmpl.
type factsPromptData struct {
	TopicName        string
	TopicDescription string
	AncestralFacts   string
	NumSubtopics     int
}

// articlePromptData feeds articlePromptTmpl.
type articlePromptData struct {
	TopicName      string
	Facts          string
	AncestralFacts string
}

// factsResponse is the JSON envelope the facts prompt asks for.
type factsResponse struct {
	Facts     []string               `json:"facts"`
	Subtopics []types.SubtopicDetail `json:"subtopics"`
}

// renderFactsPrompt executes the facts prompt template.
func renderFactsPrompt(topicName, topicDescription string, ancestralFacts []string, numSubtopics int) (string, error) {
	var buf bytes.Buffer
	err := factsPromptTmpl.Execute(&buf, factsPromptData{
		TopicName:        topicName,
		TopicDescription: topicDescription,
		AncestralFacts:   formatFactList(ancestralFacts),
		NumSubtopics:     numSubtopics,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderArticlePrompt executes the article prompt template.
func renderArticlePrompt(topicName string, facts, ancestralFacts []string) (string, error) {
	var buf bytes.Buffer
	err := articlePromptTmpl.Execute(&buf, articlePromptData{
		TopicName:      topicName,
		Facts:          formatFactList(facts),
		AncestralFacts: formatFactList(ancestralFacts),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatFactList renders facts as a dashed list, or "(none)" when empty.
func formatFactList(facts []string) string {
	if len(facts) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, f := range facts {
		b.WriteString("- ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// parseFactsResponse decodes the JSON envelope from a facts call and
// validates the contract: a successful call carries at least one fact.
func parseFactsResponse(raw string) (*factsResponse, error) {
	var resp factsResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &resp); err != nil {
		return nil, fmt.Errorf("parsing facts response JSON: %w", err)
	}
	if len(resp.Facts) == 0 {
		return nil, fmt.Errorf("facts response contains no facts")
	}
	return &resp, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence if the model
// wrapped its response in one.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
