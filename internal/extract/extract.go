// Package extract orchestrates the full sprite extraction run: archive
// open, manifest load, atlas decode across a worker pool, and ordered
// commit of the sliced sprites to disk.
package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/game-strategy-hq/di-asset-extractor/internal/atlas"
	"github.com/game-strategy-hq/di-asset-extractor/internal/export"
	"github.com/game-strategy-hq/di-asset-extractor/internal/mpk"
	"github.com/game-strategy-hq/di-asset-extractor/internal/repository"
	"github.com/game-strategy-hq/di-asset-extractor/internal/texture"
)

// ErrMissingRepository means the archive carries no resource.repository
// manifest, without which sheet assets cannot be located.
var ErrMissingRepository = errors.New("resource.repository not found in archive")

// Options configure one extraction run.
type Options struct {
	// MpksDir holds Resources.mpkinfo and its volumes.
	MpksDir string
	// OutDir receives the sprite PNGs.
	OutDir string
	// Workers bounds concurrent atlas decodes; <= 0 means GOMAXPROCS.
	Workers int
	// Mip selects the texture mip slice; -1 picks the largest.
	Mip int
	// Progress, if set, is called after each atlas commits.
	Progress func(done, total int, asset string)
}

// Failure attributes one non-fatal error to the asset (and frame, when
// known) it occurred in.
type Failure struct {
	Asset string
	Frame string
	Err   error
}

func (f Failure) String() string {
	if f.Frame != "" {
		return fmt.Sprintf("%s [%s]: %v", f.Asset, f.Frame, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Asset, f.Err)
}

// Stats summarize a finished (or interrupted) run.
type Stats struct {
	Atlases  int
	Sprites  int
	Failures []Failure
	Elapsed  time.Duration
}

// Runner drives extraction against one opened archive. It caches decoded
// sheets across atlases, since several atlases often share one texture.
type Runner struct {
	opts    Options
	archive *mpk.Archive
	repo    *repository.Repository
	encoder export.Encoder

	sheetGroup singleflight.Group
	sheetCache sync.Map // guid pack path -> *image.NRGBA
}

// NewRunner opens the archive under opts.MpksDir and loads its resource
// manifest. Index or manifest problems are fatal here; per-asset problems
// surface later as run failures.
func NewRunner(opts Options) (*Runner, error) {
	archive, err := mpk.Open(opts.MpksDir)
	if err != nil {
		return nil, err
	}

	repo, err := loadRepository(archive)
	if err != nil {
		archive.Close()
		return nil, err
	}

	return &Runner{
		opts:    opts,
		archive: archive,
		repo:    repo,
		encoder: export.PNGEncoder{},
	}, nil
}

func loadRepository(archive *mpk.Archive) (*repository.Repository, error) {
	entry, ok := archive.Index().FindContaining("resource.repository")
	if !ok {
		return nil, ErrMissingRepository
	}
	raw, err := archive.ReadEntry(entry)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", entry.Name, err)
	}
	data, err := texture.DecodeEntry(raw)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", entry.Name, err)
	}
	return repository.Parse(data)
}

// Close releases the archive's volume handles.
func (r *Runner) Close() error {
	return r.archive.Close()
}

// SetProgress installs the per-atlas progress callback. Must be called
// before Run.
func (r *Runner) SetProgress(fn func(done, total int, asset string)) {
	r.opts.Progress = fn
}

// Atlases returns the archive's atlas entries in index order.
func (r *Runner) Atlases() []mpk.Entry {
	return r.archive.Index().WithSuffix(".plist")
}

type framed struct {
	frame string
	img   *image.NRGBA
}

type result struct {
	idx      int
	asset    string
	sprites  []framed
	failures []Failure
}

// Run processes every atlas in the archive. Workers decode concurrently;
// a single sink commits results in index order so output names are stable
// run over run. Per-asset failures are collected, not fatal. Cancellation
// stops launching new atlases and returns once in-flight ones settle.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	atlases := r.Atlases()
	stats := &Stats{}
	if len(atlases) == 0 {
		stats.Elapsed = time.Since(start)
		return stats, nil
	}

	workers := r.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Decoded results waiting on the sink are bounded so sheets for
	// far-ahead atlases never pile up in memory.
	inflight := semaphore.NewWeighted(int64(workers) * 2)
	results := make(chan *result, workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(results)

		wg, wctx := errgroup.WithContext(gctx)
		wg.SetLimit(workers)
		for i, entry := range atlases {
			if err := inflight.Acquire(wctx, 1); err != nil {
				break
			}
			i, entry := i, entry
			wg.Go(func() error {
				res := r.processAtlas(wctx, i, entry)
				select {
				case results <- res:
				case <-wctx.Done():
					inflight.Release(1)
				}
				return nil
			})
		}
		return wg.Wait()
	})

	names := export.NewNames()
	g.Go(func() error {
		pending := make(map[int]*result)
		next := 0
		for res := range results {
			pending[res.idx] = res
			for {
				cur, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				r.commit(cur, names, stats)
				inflight.Release(1)
				next++
				if r.opts.Progress != nil {
					r.opts.Progress(next, len(atlases), cur.asset)
				}
			}
		}
		return nil
	})

	err := g.Wait()
	stats.Elapsed = time.Since(start)
	if err == nil {
		err = ctx.Err()
	}
	return stats, err
}

func (r *Runner) processAtlas(ctx context.Context, idx int, entry mpk.Entry) *result {
	res := &result{idx: idx, asset: entry.Name}
	fail := func(err error) *result {
		res.failures = append(res.failures, Failure{Asset: entry.Name, Err: err})
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	raw, err := r.archive.ReadEntry(entry)
	if err != nil {
		return fail(err)
	}
	data, err := texture.DecodeEntry(raw)
	if err != nil {
		return fail(err)
	}
	a, err := atlas.Parse(data)
	if err != nil {
		return fail(err)
	}

	sheet, err := r.sheet(a.Texture)
	if err != nil {
		return fail(err)
	}

	for _, f := range a.Frames {
		img, err := atlas.Slice(sheet, f)
		if err != nil {
			res.failures = append(res.failures, Failure{Asset: entry.Name, Frame: f.Name, Err: err})
			continue
		}
		res.sprites = append(res.sprites, framed{frame: f.Name, img: img})
	}
	return res
}

// sheet resolves an atlas's logical texture name to its decoded image,
// deduplicating concurrent decodes of the same sheet.
func (r *Runner) sheet(texName string) (*image.NRGBA, error) {
	entry, ok := r.repo.FindTexture(texName)
	if !ok {
		return nil, fmt.Errorf("no Texture2D manifest entry for %q", texName)
	}
	key := entry.Path()

	if img, ok := r.sheetCache.Load(key); ok {
		return img.(*image.NRGBA), nil
	}

	v, err, _ := r.sheetGroup.Do(key, func() (interface{}, error) {
		// Index names embed the GUID path inside a longer pack path, so an
		// exact lookup only works for bare names; fall back to fragment
		// matching.
		packEntry, ok := r.archive.Index().Lookup(key)
		if !ok {
			packEntry, ok = r.archive.Index().FindContaining(key)
		}
		if !ok {
			return nil, fmt.Errorf("sheet %s missing from index", key)
		}
		raw, err := r.archive.ReadEntry(packEntry)
		if err != nil {
			return nil, err
		}
		payload, err := texture.DecodeEntry(raw)
		if err != nil {
			return nil, err
		}
		t, err := texture.Parse(payload)
		if err != nil {
			return nil, err
		}
		img, err := t.Decode(r.opts.Mip)
		if err != nil {
			return nil, err
		}
		r.sheetCache.Store(key, img)
		slog.Debug("decoded sheet", "path", key, "size", img.Bounds().Max)
		return img, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sheet for %q: %w", texName, err)
	}
	return v.(*image.NRGBA), nil
}

func (r *Runner) commit(res *result, names *export.Names, stats *Stats) {
	stats.Atlases++
	stats.Failures = append(stats.Failures, res.failures...)
	for _, fr := range res.sprites {
		name := names.Allocate(export.BaseName(fr.frame))
		if _, err := r.encoder.Encode(r.opts.OutDir, export.Sprite{Name: name, Image: fr.img}); err != nil {
			stats.Failures = append(stats.Failures, Failure{Asset: res.asset, Frame: fr.frame, Err: err})
			continue
		}
		stats.Sprites++
	}
}
