// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output writes a finished corpus to a per-run output directory:
// one full_output.json with every record, plus one Markdown file per topic.
// The core build has no awareness of file systems; everything here consumes
// the corpus as a finished value.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/world-engine/pkg/types"
)

// runDirPattern matches run directory names: run_<i>.
var runDirPattern = regexp.MustCompile(`^run_(\d+)$`)

// illegalFilenameChars matches characters that are unsafe in filenames
// across platforms.
var illegalFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// NextRunDir creates and returns the next run_<i> directory under baseDir,
// where i is one greater than the highest existing run number (run_0 when
// none exist). baseDir is created if missing.
func NextRunDir(baseDir string) (string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output base directory: %w", err)
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return "", fmt.Errorf("reading output base directory: %w", err)
	}

	maxRun := -1
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m := runDirPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		if n > maxRun {
			maxRun = n
		}
	}

	dir := filepath.Join(baseDir, fmt.Sprintf("run_%d", maxRun+1))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}
	return dir, nil
}

// SanitizeFilename converts a topic name into a filesystem-legal filename
// stem. Illegal characters become underscores; a name that sanitizes to
// nothing becomes "topic".
func SanitizeFilename(name string) string {
	s := illegalFilenameChars.ReplaceAllString(name, "_")
	s = strings.Trim(s, " ._")
	if s == "" {
		return "topic"
	}
	return s
}

// WriteCorpus writes full_output.json plus one <topic>.md per article into
// dir. Topic names that sanitize to the same filename get a numeric suffix
// so no article silently overwrites another.
func WriteCorpus(dir string, c *types.Corpus) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling corpus: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "full_output.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing full_output.json: %w", err)
	}

	used := make(map[string]int)
	for _, name := range c.Names() {
		entry, _ := c.Get(name)

		stem := SanitizeFilename(name)
		if n := used[stem]; n > 0 {
			stem = fmt.Sprintf("%s_%d", stem, n)
		}
		used[SanitizeFilename(name)]++

		path := filepath.Join(dir, stem+".md")
		if err := os.WriteFile(path, []byte(entry.Article), 0o644); err != nil {
			return fmt.Errorf("writing article %s: %w", path, err)
		}
	}
	return nil
}
