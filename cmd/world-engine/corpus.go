// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/world-engine/internal/store"
	"github.com/pdiddy/world-engine/pkg/types"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the corpus index (list, retrieve, export)",
	Long: `Corpus manages the local SQLite index of finished builds. Use
subcommands to list builds, query articles with full-text search, or
export a build to YAML or JSON.`,
}

// --- list subcommand ---

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed builds",
	RunE:  runCorpusList,
}

func runCorpusList(cmd *cobra.Command, args []string) error {
	db, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	builds, err := db.Builds(context.Background())
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		fmt.Println("No builds indexed.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-40s  %-6s  %-7s  %-9s  %s\n",
		"Build", "Root topic", "Depth", "Topics", "Failures", "Finished")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, b := range builds {
		root := b.RootTopic
		if len(root) > 40 {
			root = root[:37] + "..."
		}
		finished := ""
		if !b.FinishedAt.IsZero() {
			finished = b.FinishedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-40s  %-6d  %-7d  %-9d  %s\n",
			b.ID, root, b.MaxDepth, b.Topics, b.Failures, finished)
	}
	return nil
}

// --- retrieve subcommand ---

var corpusRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query indexed articles with full-text search",
	Long: `Retrieve searches indexed articles with FTS5 full-text search. Results
can be narrowed to one build with --build or one tree depth with --depth.
An empty query lists articles in processing order.`,
	RunE: runCorpusRetrieve,
}

func runCorpusRetrieve(cmd *cobra.Command, args []string) error {
	db, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := store.QueryOptions{Depth: -1}
	if len(args) > 0 {
		opts.Query = strings.Join(args, " ")
	}
	opts.Build, _ = cmd.Flags().GetInt64("build")
	if cmd.Flags().Changed("depth") {
		opts.Depth, _ = cmd.Flags().GetInt("depth")
	}
	opts.MaxResults, _ = cmd.Flags().GetInt("max-results")

	results, err := db.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-5s  %-5s  %-35s  %s\n",
		"Rank", "Build", "Depth", "Topic", "Snippet")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for i, r := range results {
		name := r.Name
		if len(name) > 35 {
			name = name[:32] + "..."
		}
		snippet := strings.ReplaceAll(r.Snippet, "\n", " ")
		if len(snippet) > 55 {
			snippet = snippet[:52] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-5d  %-5d  %-35s  %s\n",
			i+1, r.BuildID, r.Depth, name, snippet)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var corpusExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a build to YAML or JSON",
	Long: `Export writes one build's corpus and metadata to
<corpus-dir>/index/export.yaml or export.json. The most recent build is
exported unless --build selects another.`,
	RunE: runCorpusExport,
}

func runCorpusExport(cmd *cobra.Command, args []string) error {
	db, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	buildID, _ := cmd.Flags().GetInt64("build")
	if buildID == 0 {
		buildID, err = db.LatestBuildID(ctx)
		if err != nil {
			return err
		}
	}

	corpusDir, _ := cmd.Flags().GetString("corpus-dir")
	format, _ := cmd.Flags().GetString("format")

	switch format {
	case "yaml", "":
		path := filepath.Join(corpusDir, "index", "export.yaml")
		if err := db.ExportYAML(ctx, buildID, path); err != nil {
			return err
		}
		fmt.Printf("Exported build %d to %s\n", buildID, path)
	case "json":
		path := filepath.Join(corpusDir, "index", "export.json")
		if err := db.ExportJSON(ctx, buildID, path); err != nil {
			return err
		}
		fmt.Printf("Exported build %d to %s\n", buildID, path)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	corpusDir, _ := cmd.Flags().GetString("corpus-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return store.NewStore(types.StoreConfig{
		CorpusDir:  corpusDir,
		MaxResults: maxResults,
	})
}

func init() {
	corpusCmd.PersistentFlags().String("corpus-dir", "corpus", "base directory for the corpus index")
	corpusCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	corpusRetrieveCmd.Flags().Int64("build", 0, "restrict to one build (0 = all)")
	corpusRetrieveCmd.Flags().Int("depth", -1, "restrict to one tree depth (-1 = all)")
	corpusRetrieveCmd.Flags().Bool("json", false, "emit results as JSON")

	corpusExportCmd.Flags().Int64("build", 0, "build to export (0 = most recent)")
	corpusExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	corpusCmd.AddCommand(corpusListCmd)
	corpusCmd.AddCommand(corpusRetrieveCmd)
	corpusCmd.AddCommand(corpusExportCmd)
	rootCmd.AddCommand(corpusCmd)
}
