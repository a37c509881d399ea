// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Provider identifies the generative AI backend.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
	ProviderStub   Provider = "stub"
)

// AIConfig holds shared settings for the generation backends.
type AIConfig struct {
	// Provider selects the backend: claude, openai, or stub.
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider's default API endpoint. Empty uses
	// the default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed generation
	// calls (default 3). Retries happen inside the generation service;
	// the corpus builder never retries.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RequestsPerMinute caps the request rate to the AI API. Zero
	// disables pacing.
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
}

// BuildConfig holds settings for the corpus build traversal.
type BuildConfig struct {
	// MaxDepth is the inclusive depth bound for the traversal. The root
	// topic is depth 0. Must be >= 0.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// RootSubtopics is the number of subtopics requested for the root
	// topic (default 8). The root gets broader exploration than interior
	// topics.
	RootSubtopics int `json:"root_subtopics" yaml:"root_subtopics"`

	// ChildSubtopics is the number of subtopics requested for non-root
	// topics (default 4).
	ChildSubtopics int `json:"child_subtopics" yaml:"child_subtopics"`

	// FailFast aborts the whole build on the first generation failure.
	// When false (the default) a failed topic is skipped: it is absent
	// from the corpus, its subtopics are never enqueued, and the failure
	// is recorded in the build's failure summary.
	FailFast bool `json:"fail_fast" yaml:"fail_fast"`
}

// StoreConfig holds settings for the corpus index.
type StoreConfig struct {
	// CorpusDir is the base directory for the corpus index (contains index/).
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// OutputConfig holds settings for per-run file output.
type OutputConfig struct {
	// OutputDir is the base directory for run output. Each build writes
	// into a fresh run_<i> subdirectory beneath it.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// Config groups all configuration for the engine.
type Config struct {
	AI     AIConfig     `json:"ai" yaml:"ai"`
	Build  BuildConfig  `json:"build" yaml:"build"`
	Store  StoreConfig  `json:"store" yaml:"store"`
	Output OutputConfig `json:"output" yaml:"output"`
}
