package search

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Fingerprint digests the identity of a sprite directory: the sorted
// (name, size, mtime) triples of its .png files. Any added, removed or
// rewritten sprite changes the digest. Returns the digest and the number
// of sprites seen.
func Fingerprint(dir string) (digest.Digest, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("scanning sprite directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	digester := digest.SHA256.Digester()
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return "", 0, fmt.Errorf("stat %s: %w", name, err)
		}
		fmt.Fprintf(digester.Hash(), "%s\x00%d\x00%d\n", name, info.Size(), info.ModTime().UnixNano())
	}
	return digester.Digest(), len(names), nil
}
