package types

import (
	"encoding/json"
	"reflect"
	"testing"

	"go.yaml.in/yaml/v3"
)

func TestCorpusAddPreservesOrder(t *testing.T) {
	c := NewCorpus()
	c.Add("A", ArticleData{Depth: 0})
	c.Add("B", ArticleData{Depth: 1})
	c.Add("C", ArticleData{Depth: 1})

	if got, want := c.Names(), []string{"A", "B", "C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestCorpusAddOverwriteKeepsPosition(t *testing.T) {
	c := NewCorpus()
	c.Add("A", ArticleData{Article: "first", Depth: 0})
	c.Add("B", ArticleData{Depth: 1})
	c.Add("A", ArticleData{Article: "second", Depth: 0})

	if got, want := c.Names(), []string{"A", "B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	entry, _ := c.Get("A")
	if entry.Article != "second" {
		t.Errorf("A.Article = %q, want last write to win", entry.Article)
	}
}

func TestCorpusJSONRoundTrip(t *testing.T) {
	c := NewCorpus()
	c.Add("Root", ArticleData{
		Article:   "# Root",
		Facts:     []string{"f1", "f2"},
		Subtopics: []SubtopicDetail{{Name: "Child", Description: "d"}},
		Depth:     0,
	})
	c.Add("Child", ArticleData{Article: "# Child", Facts: []string{"f3"}, Depth: 1})

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Corpus
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", got.Len())
	}
	root, ok := got.Get("Root")
	if !ok {
		t.Fatal("Root missing after round trip")
	}
	if !reflect.DeepEqual(root.Facts, []string{"f1", "f2"}) {
		t.Errorf("Root.Facts = %v", root.Facts)
	}
	// Serialized form drops processing order; names come back sorted by
	// depth, then name.
	if got, want := got.Names(), []string{"Root", "Child"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestCorpusYAMLRoundTrip(t *testing.T) {
	c := NewCorpus()
	c.Add("Root", ArticleData{Article: "# Root", Facts: []string{"f1"}, Depth: 0})

	data, err := yaml.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Corpus
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	entry, ok := got.Get("Root")
	if !ok {
		t.Fatal("Root missing after round trip")
	}
	if entry.Article != "# Root" {
		t.Errorf("Article = %q", entry.Article)
	}
}
