package mpk

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Archive is one opened MPK container: the parsed master index plus lazily
// opened volume files. Volume handles are opened at most once per run and
// shared across workers; ReadAt carries its own offset so reads need no
// mutual exclusion. Close releases all handles.
type Archive struct {
	dir  string
	base string
	idx  *Index

	mu      sync.Mutex
	files   map[int]*os.File
	sizes   map[int]int64
	missing map[int]bool
}

// Open locates the master index file in dir, parses it and prepares the
// volume set. The index file is `<base>.mpkinfo`; `Resources.mpkinfo` is
// preferred when several are present.
func Open(dir string) (*Archive, error) {
	indexPath, err := findIndexFile(dir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("reading index %s: %w", indexPath, err)
	}

	idx, err := ParseIndex(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(indexPath), err)
	}

	a := &Archive{
		dir:     dir,
		base:    volumeBase(indexPath),
		idx:     idx,
		files:   make(map[int]*os.File),
		sizes:   make(map[int]int64),
		missing: make(map[int]bool),
	}

	slog.Debug("Opened mpk archive",
		"index", filepath.Base(indexPath),
		"entries", idx.Len(),
		"volumes", a.PresentVolumes())

	return a, nil
}

func findIndexFile(dir string) (string, error) {
	preferred := filepath.Join(dir, "Resources.mpkinfo")
	if _, err := os.Stat(preferred); err == nil {
		return preferred, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.mpkinfo"))
	if err != nil {
		return "", fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no .mpkinfo file in %s", ErrMissingIndex, dir)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// volumeBase derives the volume file stem from the index filename. Any
// index named resource-something shares the Resources volume set.
func volumeBase(indexPath string) string {
	stem := strings.TrimSuffix(filepath.Base(indexPath), filepath.Ext(indexPath))
	if strings.HasPrefix(strings.ToLower(stem), "resource") {
		return "Resources"
	}
	return stem
}

// Index returns the parsed master index.
func (a *Archive) Index() *Index {
	return a.idx
}

// VolumePath returns the path of the numbered volume file. Volume 0 has no
// numeric suffix.
func (a *Archive) VolumePath(volume int) string {
	if volume == 0 {
		return filepath.Join(a.dir, a.base+".mpk")
	}
	return filepath.Join(a.dir, fmt.Sprintf("%s%d.mpk", a.base, volume))
}

// PresentVolumes counts the volume files physically present, stopping at
// the first gap in the numbering.
func (a *Archive) PresentVolumes() int {
	n := 0
	for {
		if _, err := os.Stat(a.VolumePath(n)); err != nil {
			return n
		}
		n++
	}
}

// ReadEntry reads the stored payload of one index record.
func (a *Archive) ReadEntry(e Entry) ([]byte, error) {
	return a.ReadAt(e.Volume, e.Offset, e.Length)
}

// ReadAt returns exactly length bytes from the given volume at the given
// offset. The volume file is opened on first use and kept open for the
// archive's lifetime.
func (a *Archive) ReadAt(volume int, offset, length uint32) ([]byte, error) {
	f, size, err := a.volumeFile(volume)
	if err != nil {
		return nil, err
	}

	end := int64(offset) + int64(length)
	if end > size {
		return nil, fmt.Errorf("%w: %s is %d bytes, need %d..%d",
			ErrTruncatedVolume, filepath.Base(a.VolumePath(volume)), size, offset, end)
	}

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("reading %s at %d: %w", filepath.Base(a.VolumePath(volume)), offset, err)
	}
	return buf, nil
}

func (a *Archive) volumeFile(volume int) (*os.File, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.missing[volume] {
		return nil, 0, fmt.Errorf("%w: %s", ErrMissingVolume, a.VolumePath(volume))
	}
	if f, ok := a.files[volume]; ok {
		return f, a.sizes[volume], nil
	}

	path := a.VolumePath(volume)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			a.missing[volume] = true
			return nil, 0, fmt.Errorf("%w: %s", ErrMissingVolume, path)
		}
		return nil, 0, fmt.Errorf("opening volume %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat volume %s: %w", path, err)
	}

	a.files[volume] = f
	a.sizes[volume] = info.Size()
	slog.Debug("Opened volume", "path", filepath.Base(path), "size", info.Size())
	return f, info.Size(), nil
}

// Close releases all open volume handles.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for n, f := range a.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing volume %d: %w", n, err)
		}
		delete(a.files, n)
	}
	return firstErr
}
