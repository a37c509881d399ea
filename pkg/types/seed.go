// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Seed is a root topic definition loaded from a seed file. The description
// carries the full worldbuilding brief the generation backend expands from.
type Seed struct {
	// Topic is the root topic name (e.g. "The Geode City of Lithos").
	Topic string `json:"topic" yaml:"topic"`

	// Description is the detailed brief for the topic.
	Description string `json:"description" yaml:"description"`
}
