// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"strings"
)

// QueryOptions narrows a retrieval.
type QueryOptions struct {
	// Query is the FTS5 match expression. Empty matches every article.
	Query string

	// Build restricts results to one build. Zero matches all builds.
	Build int64

	// Depth restricts results to one tree depth. Negative matches all
	// depths.
	Depth int

	// MaxResults caps the result count. Zero uses the store default.
	MaxResults int
}

// QueryResult is one retrieved article.
type QueryResult struct {
	// BuildID identifies the build the article belongs to.
	BuildID int64 `json:"build_id" yaml:"build_id"`

	// Name is the topic name.
	Name string `json:"name" yaml:"name"`

	// Depth is the topic's distance from the root.
	Depth int `json:"depth" yaml:"depth"`

	// Snippet is an excerpt of the article around the match, or the
	// article head for unranked queries.
	Snippet string `json:"snippet" yaml:"snippet"`
}

// Retrieve runs a full-text query over stored articles, best matches
// first.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}

	var (
		conditions []string
		args       []any
	)
	if opts.Build > 0 {
		conditions = append(conditions, "a.build_id = ?")
		args = append(args, opts.Build)
	}
	if opts.Depth >= 0 {
		conditions = append(conditions, "a.depth = ?")
		args = append(args, opts.Depth)
	}

	var query string
	if strings.TrimSpace(opts.Query) != "" {
		conditions = append([]string{"articles_fts MATCH ?"}, conditions...)
		args = append([]any{opts.Query}, args...)
		query = `SELECT a.build_id, a.name, a.depth,
				snippet(articles_fts, 1, '[', ']', '...', 16)
			 FROM articles_fts
			 JOIN articles a ON a.rowid = articles_fts.rowid
			 WHERE ` + strings.Join(conditions, " AND ") + `
			 ORDER BY bm25(articles_fts) LIMIT ?`
	} else {
		where := ""
		if len(conditions) > 0 {
			where = " WHERE " + strings.Join(conditions, " AND ")
		}
		query = `SELECT a.build_id, a.name, a.depth, substr(a.article, 1, 200)
			 FROM articles a` + where + `
			 ORDER BY a.build_id, a.position LIMIT ?`
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var r QueryResult
		if err := rows.Scan(&r.BuildID, &r.Name, &r.Depth, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
