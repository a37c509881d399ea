// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/world-engine/internal/seed"
)

var seedsCmd = &cobra.Command{
	Use:   "seeds",
	Short: "List the world seeds in a seed file",
	Long: `Seeds lists the predefined world briefs in a seed file. Each entry's
key can be passed to "build --seed" to expand that world into a corpus.`,
	RunE: runSeeds,
}

func init() {
	seedsCmd.Flags().String("seed-file", "seeds.yaml", "YAML file of predefined world seeds")

	rootCmd.AddCommand(seedsCmd)
}

func runSeeds(cmd *cobra.Command, args []string) error {
	seedFile, _ := cmd.Flags().GetString("seed-file")
	f, err := seed.Load(seedFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%-24s  %s\n", "Key", "Topic")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, key := range f.Keys() {
		s, _ := f.Get(key)
		topic := s.Topic
		if len(topic) > 54 {
			topic = topic[:51] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-24s  %s\n", key, topic)
	}
	return nil
}
