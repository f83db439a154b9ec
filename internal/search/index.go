package search

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	// Query images arrive in whatever format the user has at hand.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Index is a loaded (and fresh) sprite index for one directory.
type Index struct {
	Dir     string
	Meta    Meta
	records []Record
}

// Match is one search result.
type Match struct {
	Name     string
	Distance int
}

// EnsureFresh returns a usable index for dir, rebuilding when the stored
// one is absent, was built for different directory contents, or a rebuild
// is forced. Freshness is decided from the index header alone.
func EnsureFresh(ctx context.Context, dir string, forceRebuild bool) (*Index, error) {
	fp, count, err := Fingerprint(dir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, IndexFileName)
	if !forceRebuild {
		meta, err := readMeta(path)
		if err != nil {
			slog.Warn("sprite index unreadable, rebuilding", "path", path, "error", err)
		} else if meta != nil && meta.SchemaVersion == schemaVersion && meta.Fingerprint == fp.String() {
			records, err := loadRecords(path)
			if err != nil {
				slog.Warn("sprite index unreadable, rebuilding", "path", path, "error", err)
			} else {
				return &Index{Dir: dir, Meta: *meta, records: records}, nil
			}
		}
	}

	records, err := build(ctx, dir)
	if err != nil {
		return nil, err
	}

	meta := Meta{
		SchemaVersion: schemaVersion,
		Fingerprint:   fp.String(),
		BuiltAt:       time.Now(),
		Count:         count,
	}
	if err := writeStore(path, meta, records); err != nil {
		return nil, err
	}
	slog.Info("sprite index built", "dir", dir, "sprites", len(records))
	return &Index{Dir: dir, Meta: meta, records: records}, nil
}

// build extracts descriptors for every sprite in dir, in parallel, and
// returns them in name order.
func build(ctx context.Context, dir string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning sprite directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	records := make([]Record, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := LoadImage(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("indexing %s: %w", name, err)
			}
			desc, err := Describe(img)
			if err != nil {
				return fmt.Errorf("indexing %s: %w", name, err)
			}
			records[i] = Record{Name: strings.TrimSuffix(name, ".png"), Desc: desc}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// Search ranks the indexed sprites by descriptor distance to the query
// image, ascending, ties broken by name, and returns the top k.
func (ix *Index) Search(query image.Image, k int) ([]Match, error) {
	queryDesc, err := Describe(query)
	if err != nil {
		return nil, fmt.Errorf("describing query image: %w", err)
	}

	matches := make([]Match, len(ix.records))
	for i, r := range ix.records {
		matches[i] = Match{Name: r.Name, Distance: queryDesc.Distance(r.Desc)}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Name < matches[j].Name
	})

	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Len reports the number of indexed sprites.
func (ix *Index) Len() int {
	return len(ix.records)
}

// LoadImage decodes a query image. PNG, JPEG and GIF come from the
// stdlib; BMP and WebP from the registered x/image decoders.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return img, nil
}
