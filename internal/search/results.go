package search

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResultsDirName holds ranked copies of the latest query's matches.
const ResultsDirName = "search-results"

// WriteResults replaces resultsDir with rank-prefixed copies of the
// matched sprites, so "01_icon.png" is the best match. The previous
// results are discarded first.
func WriteResults(spritesDir, resultsDir string, matches []Match) error {
	if err := os.RemoveAll(resultsDir); err != nil {
		return fmt.Errorf("clearing results directory: %w", err)
	}
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}

	for rank, m := range matches {
		src := filepath.Join(spritesDir, m.Name+".png")
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("copying match %s: %w", m.Name, err)
		}
		dst := filepath.Join(resultsDir, fmt.Sprintf("%02d_%s.png", rank+1, m.Name))
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return fmt.Errorf("copying match %s: %w", m.Name, err)
		}
	}
	return nil
}
