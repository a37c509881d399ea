// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"sort"

	"go.yaml.in/yaml/v3"
)

// SubtopicDetail is a child topic proposed while generating a parent topic.
// A subtopic is a candidate only; it joins the corpus when it is dequeued
// and processed by the builder.
type SubtopicDetail struct {
	// Name is the subtopic's name, used as its corpus key if processed.
	Name string `json:"name" yaml:"name"`

	// Description is freeform context handed to the generation backend
	// when the subtopic is expanded.
	Description string `json:"description" yaml:"description"`
}

// ArticleData is the persisted record for one processed topic. It is
// created once, after both generation calls for the topic complete, and
// never modified afterward.
type ArticleData struct {
	// Article is the full Markdown content of the generated article.
	// Articles contain no hyperlinks.
	Article string `json:"article" yaml:"article"`

	// Facts are the discrete assertions the article was expanded from,
	// in generation order. Facts are opaque strings; they are accumulated
	// into the ancestral context but never parsed or deduplicated.
	Facts []string `json:"facts" yaml:"facts"`

	// Subtopics are the child topics proposed for further exploration.
	Subtopics []SubtopicDetail `json:"subtopics" yaml:"subtopics"`

	// Depth is the topic's distance from the root (root = 0), recorded
	// at the depth the topic was first dequeued.
	Depth int `json:"depth" yaml:"depth"`
}

// Corpus maps topic names to their generated articles while preserving
// processing order. Go maps are unordered, so the order is carried in an
// explicit slice: Names returns topics in the order they were processed.
//
// A Corpus grows monotonically during a build and is read-only afterward.
type Corpus struct {
	entries map[string]ArticleData
	order   []string
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{entries: make(map[string]ArticleData)}
}

// Add inserts a record under the topic name. Re-adding an existing name
// overwrites the record (last write wins) but keeps the name's original
// position in processing order.
func (c *Corpus) Add(name string, data ArticleData) {
	if _, exists := c.entries[name]; !exists {
		c.order = append(c.order, name)
	}
	c.entries[name] = data
}

// Get returns the record for a topic name.
func (c *Corpus) Get(name string) (ArticleData, bool) {
	data, ok := c.entries[name]
	return data, ok
}

// Len returns the number of topics in the corpus.
func (c *Corpus) Len() int {
	return len(c.entries)
}

// Names returns topic names in processing order. The returned slice is a
// copy; callers may modify it.
func (c *Corpus) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// MarshalJSON encodes the corpus as a topic-name-to-record object.
func (c *Corpus) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.entries)
}

// UnmarshalJSON decodes a topic-name-to-record object. Processing order is
// not recoverable from JSON; names are ordered by record depth, then name.
func (c *Corpus) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return err
	}
	c.order = sortedNames(c.entries)
	return nil
}

// MarshalYAML encodes the corpus as a topic-name-to-record mapping.
func (c *Corpus) MarshalYAML() (any, error) {
	return c.entries, nil
}

// UnmarshalYAML decodes a topic-name-to-record mapping, ordering names by
// depth, then name, as with JSON.
func (c *Corpus) UnmarshalYAML(value *yaml.Node) error {
	if err := value.Decode(&c.entries); err != nil {
		return err
	}
	c.order = sortedNames(c.entries)
	return nil
}

// sortedNames orders topic names by depth then name, a stable stand-in for
// processing order when round-tripping through serialized form.
func sortedNames(entries map[string]ArticleData) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if entries[a].Depth != entries[b].Depth {
			return entries[a].Depth < entries[b].Depth
		}
		return a < b
	})
	return names
}
