// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists finished corpora in a SQLite index and supports
// full-text retrieval and export across builds.
//
// See docs/ARCHITECTURE § Corpus Store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/world-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "world.db"
)

// BuildMeta records one corpus build run.
type BuildMeta struct {
	// ID is the build's row ID, assigned on ingest.
	ID int64 `json:"id" yaml:"id"`

	// RootTopic is the root topic name the build expanded.
	RootTopic string `json:"root_topic" yaml:"root_topic"`

	// MaxDepth is the depth bound the build ran with.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// Provider and Model identify the generation backend used.
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`

	// StartedAt and FinishedAt bound the build run.
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// Topics is the number of articles in the corpus.
	Topics int `json:"topics" yaml:"topics"`

	// Failures is the number of topics skipped on generation failure.
	Failures int `json:"failures" yaml:"failures"`
}

// Store manages the corpus SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the corpus database at
// corpusDir/index/world.db, creating the schema if needed.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.CorpusDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS builds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			root_topic TEXT NOT NULL,
			max_depth INTEGER NOT NULL,
			provider TEXT,
			model TEXT,
			started_at TEXT,
			finished_at TEXT,
			topics INTEGER,
			failures INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			build_id INTEGER NOT NULL REFERENCES builds(id),
			name TEXT NOT NULL,
			depth INTEGER NOT NULL,
			position INTEGER NOT NULL,
			article TEXT NOT NULL,
			facts TEXT,
			subtopics TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_build ON articles(build_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_depth ON articles(depth)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='articles_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE articles_fts USING fts5(name, article, content=articles, content_rowid=rowid)`,
			`CREATE TRIGGER articles_ai AFTER INSERT ON articles BEGIN
				INSERT INTO articles_fts(rowid, name, article) VALUES (new.rowid, new.name, new.article);
			END`,
			`CREATE TRIGGER articles_ad AFTER DELETE ON articles BEGIN
				INSERT INTO articles_fts(articles_fts, rowid, name, article) VALUES('delete', old.rowid, old.name, old.article);
			END`,
			`CREATE TRIGGER articles_au AFTER UPDATE ON articles BEGIN
				INSERT INTO articles_fts(articles_fts, rowid, name, article) VALUES('delete', old.rowid, old.name, old.article);
				INSERT INTO articles_fts(rowid, name, article) VALUES (new.rowid, new.name, new.article);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Ingest stores one finished corpus and its build metadata in a single
// transaction, returning the new build's ID.
func (s *Store) Ingest(ctx context.Context, meta BuildMeta, c *types.Corpus) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO builds (root_topic, max_depth, provider, model, started_at, finished_at, topics, failures)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.RootTopic, meta.MaxDepth, meta.Provider, meta.Model,
		timeString(meta.StartedAt), timeString(meta.FinishedAt),
		c.Len(), meta.Failures,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting build: %w", err)
	}
	buildID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading build id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO articles (build_id, name, depth, position, article, facts, subtopics)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for position, name := range c.Names() {
		entry, _ := c.Get(name)
		factsJSON, _ := json.Marshal(entry.Facts)
		subtopicsJSON, _ := json.Marshal(entry.Subtopics)
		if _, err := stmt.ExecContext(ctx,
			buildID, name, entry.Depth, position, entry.Article,
			string(factsJSON), string(subtopicsJSON),
		); err != nil {
			return 0, fmt.Errorf("inserting article %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing build: %w", err)
	}
	return buildID, nil
}

// Builds lists build metadata, most recent first.
func (s *Store) Builds(ctx context.Context) ([]BuildMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, root_topic, max_depth, provider, model, started_at, finished_at, topics, failures
		 FROM builds ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying builds: %w", err)
	}
	defer rows.Close()

	var builds []BuildMeta
	for rows.Next() {
		var (
			m                     BuildMeta
			startedAt, finishedAt string
		)
		if err := rows.Scan(&m.ID, &m.RootTopic, &m.MaxDepth, &m.Provider, &m.Model,
			&startedAt, &finishedAt, &m.Topics, &m.Failures); err != nil {
			return nil, fmt.Errorf("scanning build row: %w", err)
		}
		m.StartedAt = parseTime(startedAt)
		m.FinishedAt = parseTime(finishedAt)
		builds = append(builds, m)
	}
	return builds, rows.Err()
}

// LatestBuildID returns the most recent build's ID, or an error when the
// store is empty.
func (s *Store) LatestBuildID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT max(id) FROM builds`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("no builds in store")
	}
	if id == 0 {
		return 0, fmt.Errorf("no builds in store")
	}
	return id, nil
}

// LoadCorpus reconstructs a build's corpus in processing order.
func (s *Store) LoadCorpus(ctx context.Context, buildID int64) (*types.Corpus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, depth, article, facts, subtopics
		 FROM articles WHERE build_id = ? ORDER BY position`, buildID)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	c := types.NewCorpus()
	for rows.Next() {
		var (
			name, article            string
			depth                    int
			factsJSON, subtopicsJSON sql.NullString
		)
		if err := rows.Scan(&name, &depth, &article, &factsJSON, &subtopicsJSON); err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}

		entry := types.ArticleData{Article: article, Depth: depth}
		if factsJSON.Valid {
			json.Unmarshal([]byte(factsJSON.String), &entry.Facts)
		}
		if subtopicsJSON.Valid {
			json.Unmarshal([]byte(subtopicsJSON.String), &entry.Subtopics)
		}
		c.Add(name, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if c.Len() == 0 {
		return nil, fmt.Errorf("build %d not found", buildID)
	}
	return c, nil
}

func timeString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
