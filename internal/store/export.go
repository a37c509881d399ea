// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/world-engine/pkg/types"
)

// exportDocument is the on-disk shape produced by exports.
type exportDocument struct {
	// Build is the exported build's metadata.
	Build BuildMeta `json:"build" yaml:"build"`

	// Corpus maps topic names to their generated data, in processing
	// order.
	Corpus *types.Corpus `json:"corpus" yaml:"corpus"`
}

// ExportJSON writes one build's corpus and metadata to path as indented
// JSON.
func (s *Store) ExportJSON(ctx context.Context, buildID int64, path string) error {
	doc, err := s.exportDocument(ctx, buildID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// ExportYAML writes one build's corpus and metadata to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, buildID int64, path string) error {
	doc, err := s.exportDocument(ctx, buildID)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

func (s *Store) exportDocument(ctx context.Context, buildID int64) (*exportDocument, error) {
	corpus, err := s.LoadCorpus(ctx, buildID)
	if err != nil {
		return nil, err
	}

	builds, err := s.Builds(ctx)
	if err != nil {
		return nil, err
	}
	var meta BuildMeta
	for _, b := range builds {
		if b.ID == buildID {
			meta = b
			break
		}
	}
	if meta.ID == 0 {
		return nil, fmt.Errorf("build %d not found", buildID)
	}

	return &exportDocument{Build: meta, Corpus: corpus}, nil
}
