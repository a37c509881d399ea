// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/world-engine/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) *Store {
	t.Helper()
	cfg := types.StoreConfig{
		CorpusDir:  t.TempDir(),
		MaxResults: 20,
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testCorpus() *types.Corpus {
	c := types.NewCorpus()
	c.Add("Tidal Consortium", types.ArticleData{
		Article: "# Tidal Consortium\n\nA confederation of floating platforms harvesting tidal energy.",
		Facts:   []string{"Founded in 2041.", "Operates 300 platforms."},
		Subtopics: []types.SubtopicDetail{
			{Name: "Platform Engineering", Description: "How the platforms are built."},
		},
		Depth: 0,
	})
	c.Add("Platform Engineering", types.ArticleData{
		Article: "# Platform Engineering\n\nThe consortium builds its platforms from recycled hulls.",
		Facts:   []string{"Hulls are sourced from decommissioned tankers."},
		Depth:   1,
	})
	c.Add("Tidal Law", types.ArticleData{
		Article: "# Tidal Law\n\nMaritime statutes govern platform disputes.",
		Facts:   []string{"The 2044 accord settled territorial waters."},
		Depth:   1,
	})
	return c
}

func ingestTestCorpus(t *testing.T, s *Store) int64 {
	t.Helper()
	meta := BuildMeta{
		RootTopic:  "Tidal Consortium",
		MaxDepth:   2,
		Provider:   "stub",
		Model:      "none",
		StartedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC),
	}
	id, err := s.Ingest(context.Background(), meta, testCorpus())
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// --- tests ---

func TestIngestAndLoadCorpus(t *testing.T) {
	store := testSetup(t)
	id := ingestTestCorpus(t, store)

	loaded, err := store.LoadCorpus(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 3 {
		t.Fatalf("loaded %d articles, want 3", loaded.Len())
	}

	// Processing order must survive the round trip.
	wantOrder := []string{"Tidal Consortium", "Platform Engineering", "Tidal Law"}
	gotOrder := loaded.Names()
	for i, name := range wantOrder {
		if gotOrder[i] != name {
			t.Errorf("position %d: got %q, want %q", i, gotOrder[i], name)
		}
	}

	entry, ok := loaded.Get("Tidal Consortium")
	if !ok {
		t.Fatal("root article missing")
	}
	if len(entry.Facts) != 2 {
		t.Errorf("got %d facts, want 2", len(entry.Facts))
	}
	if len(entry.Subtopics) != 1 || entry.Subtopics[0].Name != "Platform Engineering" {
		t.Errorf("subtopics not preserved: %+v", entry.Subtopics)
	}
}

func TestLoadCorpusUnknownBuild(t *testing.T) {
	store := testSetup(t)
	ingestTestCorpus(t, store)

	if _, err := store.LoadCorpus(context.Background(), 42); err == nil {
		t.Fatal("expected error for unknown build")
	}
}

func TestBuildsAndLatest(t *testing.T) {
	store := testSetup(t)
	first := ingestTestCorpus(t, store)
	second := ingestTestCorpus(t, store)

	builds, err := store.Builds(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(builds) != 2 {
		t.Fatalf("got %d builds, want 2", len(builds))
	}
	// Most recent first.
	if builds[0].ID != second || builds[1].ID != first {
		t.Errorf("build order: got [%d %d], want [%d %d]",
			builds[0].ID, builds[1].ID, second, first)
	}
	if builds[0].RootTopic != "Tidal Consortium" {
		t.Errorf("root topic: got %q", builds[0].RootTopic)
	}
	if builds[0].Topics != 3 {
		t.Errorf("topic count: got %d, want 3", builds[0].Topics)
	}
	if builds[0].StartedAt.IsZero() {
		t.Error("started_at not preserved")
	}

	latest, err := store.LatestBuildID(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if latest != second {
		t.Errorf("latest build: got %d, want %d", latest, second)
	}
}

func TestLatestBuildIDEmptyStore(t *testing.T) {
	store := testSetup(t)
	if _, err := store.LatestBuildID(context.Background()); err == nil {
		t.Fatal("expected error for empty store")
	}
}

func TestRetrieveFullText(t *testing.T) {
	store := testSetup(t)
	ingestTestCorpus(t, store)

	results, err := store.Retrieve(context.Background(), QueryOptions{
		Query: "tankers",
		Depth: -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Name != "Platform Engineering" {
		t.Errorf("got %q, want Platform Engineering", results[0].Name)
	}
	if !strings.Contains(results[0].Snippet, "[tankers]") {
		t.Errorf("snippet does not highlight match: %q", results[0].Snippet)
	}
}

func TestRetrieveDepthFilter(t *testing.T) {
	store := testSetup(t)
	ingestTestCorpus(t, store)

	results, err := store.Retrieve(context.Background(), QueryOptions{
		Query: "platforms OR statutes",
		Depth: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Depth != 1 {
			t.Errorf("result %q at depth %d, want 1", r.Name, r.Depth)
		}
	}
	if len(results) == 0 {
		t.Fatal("expected depth-1 matches")
	}
}

func TestRetrieveBuildFilter(t *testing.T) {
	store := testSetup(t)
	first := ingestTestCorpus(t, store)
	ingestTestCorpus(t, store)

	results, err := store.Retrieve(context.Background(), QueryOptions{
		Query: "tidal",
		Build: first,
		Depth: -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected matches in first build")
	}
	for _, r := range results {
		if r.BuildID != first {
			t.Errorf("result from build %d, want %d", r.BuildID, first)
		}
	}
}

func TestRetrieveEmptyQueryListsAll(t *testing.T) {
	store := testSetup(t)
	id := ingestTestCorpus(t, store)

	results, err := store.Retrieve(context.Background(), QueryOptions{
		Build: id,
		Depth: -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	// Empty queries come back in processing order.
	if results[0].Name != "Tidal Consortium" {
		t.Errorf("first result %q, want Tidal Consortium", results[0].Name)
	}
}

func TestRetrieveMaxResults(t *testing.T) {
	store := testSetup(t)
	id := ingestTestCorpus(t, store)

	results, err := store.Retrieve(context.Background(), QueryOptions{
		Build:      id,
		Depth:      -1,
		MaxResults: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestExportJSON(t *testing.T) {
	store := testSetup(t)
	id := ingestTestCorpus(t, store)

	path := filepath.Join(t.TempDir(), "export.json")
	if err := store.ExportJSON(context.Background(), id, path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Build  BuildMeta     `json:"build"`
		Corpus *types.Corpus `json:"corpus"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Build.ID != id {
		t.Errorf("exported build id %d, want %d", doc.Build.ID, id)
	}
	if doc.Corpus.Len() != 3 {
		t.Errorf("exported %d articles, want 3", doc.Corpus.Len())
	}
}

func TestExportYAML(t *testing.T) {
	store := testSetup(t)
	id := ingestTestCorpus(t, store)

	path := filepath.Join(t.TempDir(), "export.yaml")
	if err := store.ExportYAML(context.Background(), id, path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Build  BuildMeta     `yaml:"build"`
		Corpus *types.Corpus `yaml:"corpus"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Build.RootTopic != "Tidal Consortium" {
		t.Errorf("exported root topic %q", doc.Build.RootTopic)
	}
	if doc.Corpus.Len() != 3 {
		t.Errorf("exported %d articles, want 3", doc.Corpus.Len())
	}
}

func TestExportUnknownBuild(t *testing.T) {
	store := testSetup(t)
	ingestTestCorpus(t, store)

	path := filepath.Join(t.TempDir(), "export.json")
	if err := store.ExportJSON(context.Background(), 42, path); err == nil {
		t.Fatal("expected error for unknown build")
	}
}
