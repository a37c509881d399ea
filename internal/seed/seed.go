// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seed loads root-topic definitions from a YAML seed file. A seed
// file maps short keys to worldbuilding briefs:
//
//	worlds:
//	  tidal_consortium:
//	    topic: The Tidal Consortium of the Coral Kelp Republics
//	    description: A sprawling network of submersible Aqua-Domes ...
package seed

import (
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/world-engine/pkg/types"
)

// File is a parsed seed file.
type File struct {
	// Worlds maps seed keys to root-topic definitions.
	Worlds map[string]types.Seed `json:"worlds" yaml:"worlds"`
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	if len(f.Worlds) == 0 {
		return nil, fmt.Errorf("seed file %s defines no worlds", path)
	}
	for key, s := range f.Worlds {
		if s.Topic == "" {
			return nil, fmt.Errorf("seed %q has no topic", key)
		}
	}
	return &f, nil
}

// Get returns the seed for a key.
func (f *File) Get(key string) (types.Seed, error) {
	s, ok := f.Worlds[key]
	if !ok {
		return types.Seed{}, fmt.Errorf("seed %q not found (available: %v)", key, f.Keys())
	}
	return s, nil
}

// Keys returns the seed keys in sorted order.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.Worlds))
	for k := range f.Worlds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
