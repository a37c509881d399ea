// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/world-engine/internal/corpus"
	"github.com/pdiddy/world-engine/internal/generate"
	"github.com/pdiddy/world-engine/internal/output"
	"github.com/pdiddy/world-engine/internal/seed"
	"github.com/pdiddy/world-engine/internal/store"
	"github.com/pdiddy/world-engine/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a corpus from a root topic",
	Long: `Build expands a root topic into a full corpus. The root topic comes
either from --topic and --description, or from a seed file entry selected
with --seed.

Topics are explored breadth-first down to --max-depth. Each topic yields a
set of facts, a Markdown article, and candidate subtopics; all facts
accumulate into a shared context that every later topic is generated
against. Failed topics are skipped and reported unless --fail-fast is set.

The finished corpus is written to a fresh run_<i> directory under
--output-dir (full_output.json plus one .md file per topic) and indexed
in the corpus database unless --no-store is set.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("topic", "", "root topic name")
	buildCmd.Flags().String("description", "", "root topic description")
	buildCmd.Flags().String("seed-file", "seeds.yaml", "YAML file of predefined world seeds")
	buildCmd.Flags().String("seed", "", "seed key to build from the seed file")
	buildCmd.Flags().Int("max-depth", 2, "inclusive depth bound (root topic is depth 0)")
	buildCmd.Flags().Int("root-subtopics", 8, "subtopics requested for the root topic")
	buildCmd.Flags().Int("child-subtopics", 4, "subtopics requested for non-root topics")
	buildCmd.Flags().Bool("fail-fast", false, "abort the whole build on the first generation failure")
	buildCmd.Flags().String("provider", "claude", "generation backend: claude, openai, or stub")
	buildCmd.Flags().String("model", "claude-sonnet-4-5-20250929", "AI model identifier")
	buildCmd.Flags().String("api-key", "", "API key (default: .secrets/ or environment)")
	buildCmd.Flags().String("base-url", "", "override the provider's API endpoint")
	buildCmd.Flags().Int("max-retries", 3, "retry attempts per generation call")
	buildCmd.Flags().Int("requests-per-minute", 0, "cap on generation requests per minute (0 disables)")
	buildCmd.Flags().String("output-dir", "output", "base directory for run output")
	buildCmd.Flags().String("corpus-dir", "corpus", "base directory for the corpus index")
	buildCmd.Flags().Bool("no-store", false, "skip indexing the corpus in the database")
	buildCmd.Flags().Bool("dry-run", false, "use the deterministic stub backend (no API calls)")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	rootTopic, rootDescription, err := resolveRoot(cmd)
	if err != nil {
		return err
	}

	aiCfg, err := aiConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	buildCfg := buildConfigFromFlags(cmd)

	svc, err := generate.NewService(aiCfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := corpus.New(svc, buildCfg, os.Stderr)

	fmt.Fprintf(os.Stderr, "Building corpus for %q (max depth %d, provider %s)\n",
		rootTopic, buildCfg.MaxDepth, aiCfg.Provider)

	startedAt := time.Now()
	c, err := builder.Build(ctx, rootTopic, rootDescription)
	if err != nil {
		return err
	}
	finishedAt := time.Now()

	failures := builder.Failures()
	fmt.Fprintf(os.Stderr, "Generated %d article(s), %d failure(s), in %s\n",
		c.Len(), len(failures), finishedAt.Sub(startedAt).Round(time.Second))
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "  failed: %q (depth %d): %v\n", f.Topic, f.Depth, f.Err)
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	runDir, err := output.NextRunDir(outputDir)
	if err != nil {
		return err
	}
	if err := output.WriteCorpus(runDir, c); err != nil {
		return err
	}
	fmt.Printf("Corpus written to %s\n", runDir)

	if noStore, _ := cmd.Flags().GetBool("no-store"); noStore {
		return nil
	}

	corpusDir, _ := cmd.Flags().GetString("corpus-dir")
	db, err := store.NewStore(types.StoreConfig{CorpusDir: corpusDir})
	if err != nil {
		return err
	}
	defer db.Close()

	buildID, err := db.Ingest(ctx, store.BuildMeta{
		RootTopic:  rootTopic,
		MaxDepth:   buildCfg.MaxDepth,
		Provider:   string(aiCfg.Provider),
		Model:      aiCfg.Model,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Failures:   len(failures),
	}, c)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed as build %d\n", buildID)

	return nil
}

// resolveRoot picks the root topic from --topic/--description or a seed
// file entry. Explicit --topic wins over --seed.
func resolveRoot(cmd *cobra.Command) (string, string, error) {
	topic, _ := cmd.Flags().GetString("topic")
	description, _ := cmd.Flags().GetString("description")
	seedKey, _ := cmd.Flags().GetString("seed")

	if topic != "" {
		return topic, description, nil
	}
	if seedKey == "" {
		return "", "", fmt.Errorf("root topic required: provide --topic or --seed")
	}

	seedFile, _ := cmd.Flags().GetString("seed-file")
	f, err := seed.Load(seedFile)
	if err != nil {
		return "", "", err
	}
	s, err := f.Get(seedKey)
	if err != nil {
		return "", "", err
	}
	return s.Topic, s.Description, nil
}

// aiConfigFromFlags resolves the generation backend settings. The API key
// resolution order is flag, then loaded secrets, then environment.
func aiConfigFromFlags(cmd *cobra.Command) (types.AIConfig, error) {
	provider, _ := cmd.Flags().GetString("provider")
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		provider = string(types.ProviderStub)
	}

	model, _ := cmd.Flags().GetString("model")
	baseURL, _ := cmd.Flags().GetString("base-url")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	rpm, _ := cmd.Flags().GetInt("requests-per-minute")

	cfg := types.AIConfig{
		Provider:          types.Provider(provider),
		Model:             model,
		BaseURL:           baseURL,
		MaxRetries:        maxRetries,
		RequestsPerMinute: rpm,
	}

	cfg.APIKey, _ = cmd.Flags().GetString("api-key")
	if cfg.APIKey == "" {
		cfg.APIKey = resolveAPIKey(cfg.Provider)
	}
	return cfg, nil
}

// resolveAPIKey looks up a provider's key in loaded secrets, then viper
// (environment or config file).
func resolveAPIKey(provider types.Provider) string {
	if key := secretsAPIKey(provider); key != "" {
		return key
	}
	switch provider {
	case types.ProviderClaude:
		return viper.GetString("anthropic_api_key")
	case types.ProviderOpenAI:
		return viper.GetString("openai_api_key")
	}
	return ""
}

func buildConfigFromFlags(cmd *cobra.Command) types.BuildConfig {
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	rootSubtopics, _ := cmd.Flags().GetInt("root-subtopics")
	childSubtopics, _ := cmd.Flags().GetInt("child-subtopics")
	failFast, _ := cmd.Flags().GetBool("fail-fast")

	return types.BuildConfig{
		MaxDepth:       maxDepth,
		RootSubtopics:  rootSubtopics,
		ChildSubtopics: childSubtopics,
		FailFast:       failFast,
	}
}
