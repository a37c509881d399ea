// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the world-engine CLI.
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/world-engine/internal/secrets"
	"github.com/pdiddy/world-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretsAPIKey returns the loaded API key for a provider, or "".
func secretsAPIKey(provider types.Provider) string {
	return secrets.APIKey(loadedSecrets, provider)
}

// rootCmd is the base command for the world-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "world-engine",
	Short: "Breadth-first fictional world corpus generator",
	Long: `world-engine grows a corpus of interlinked encyclopedia articles about a
fictional world. Starting from a single root topic, it asks a generative AI
backend for facts and subtopics, explores the subtopics breadth-first down
to a depth bound, and renders one Markdown article per topic. Every topic
is generated against the accumulated facts of all topics processed before
it, so the corpus stays internally consistent.

Finished corpora are written to per-run output directories and indexed in
a local SQLite database for full-text retrieval and export.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./world-engine.yaml or ~/.config/world-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("world-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "world-engine"))
		}
	}

	viper.SetEnvPrefix("WORLD_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	// A .env file in the working directory seeds the environment before
	// viper reads it. Missing files are fine.
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
