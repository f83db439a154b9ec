package mpk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy for index parsing and volume access. Index errors are
// fatal to a run; volume errors surface per read.
var (
	ErrMissingIndex    = errors.New("missing mpk index")
	ErrCorruptIndex    = errors.New("corrupt mpk index")
	ErrMissingVolume   = errors.New("missing mpk volume")
	ErrTruncatedVolume = errors.New("truncated mpk volume")
)

// Entry locates one stored asset payload within the volume set. Records are
// immutable after parsing. The payload itself carries its codec marker and
// decompressed size, so the index only stores location.
type Entry struct {
	Name   string
	Volume int
	Offset uint32
	Length uint32
}

// Index is the parsed MPKINFO master index. Entries keep file order, which
// is the deterministic processing order for extraction.
type Index struct {
	entries []Entry
	byName  map[string]int
}

// MPKINFO layout (little endian):
//
//	4 bytes   header tag (ignored)
//	uint32    entry count
//	per entry:
//	  uint16  name length
//	  bytes   UTF-8 name
//	  uint32  payload offset
//	  uint32  payload length
//	  uint32  raw volume field; the volume number is this value / 2
//
// Zero-length entries are placeholders and are dropped.
func ParseIndex(data []byte) (*Index, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %d bytes is too small for a header", ErrCorruptIndex, len(data))
	}

	p := 4 // header tag
	count := int(binary.LittleEndian.Uint32(data[p:]))
	p += 4

	// A record is at least 14 bytes (empty name), so a count the remaining
	// bytes cannot hold is structural corruption, caught before the count
	// sizes any allocation.
	const minRecordSize = 14
	if count > (len(data)-8)/minRecordSize {
		return nil, fmt.Errorf("%w: declared count %d exceeds what %d bytes can hold", ErrCorruptIndex, count, len(data))
	}

	entries := make([]Entry, 0, count)
	byName := make(map[string]int, count)
	for i := 0; i < count; i++ {
		if p+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated at entry %d of %d", ErrCorruptIndex, i, count)
		}
		nameLen := int(binary.LittleEndian.Uint16(data[p:]))
		p += 2

		if p+nameLen+12 > len(data) {
			return nil, fmt.Errorf("%w: truncated at entry %d of %d", ErrCorruptIndex, i, count)
		}
		name := string(data[p : p+nameLen])
		p += nameLen

		offset := binary.LittleEndian.Uint32(data[p:])
		length := binary.LittleEndian.Uint32(data[p+4:])
		rawVolume := binary.LittleEndian.Uint32(data[p+8:])
		p += 12

		if length == 0 {
			continue
		}
		entries = append(entries, Entry{
			Name:   name,
			Volume: int(rawVolume / 2),
			Offset: offset,
			Length: length,
		})
		byName[name] = len(entries) - 1
	}

	return &Index{entries: entries, byName: byName}, nil
}

// Entries returns all records in index order.
func (idx *Index) Entries() []Entry {
	return idx.entries
}

// Len returns the number of usable records.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Lookup finds a record by exact name.
func (idx *Index) Lookup(name string) (Entry, bool) {
	i, ok := idx.byName[name]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// WithSuffix returns all records whose name ends with the given suffix, in
// index order.
func (idx *Index) WithSuffix(suffix string) []Entry {
	var out []Entry
	for _, e := range idx.entries {
		if strings.HasSuffix(e.Name, suffix) {
			out = append(out, e)
		}
	}
	return out
}

// FindContaining returns the first record whose name contains the given
// fragment, scanning in index order. Texture assets are stored under GUID
// paths, so callers match on the GUID fragment rather than an exact name.
func (idx *Index) FindContaining(fragment string) (Entry, bool) {
	for _, e := range idx.entries {
		if strings.Contains(e.Name, fragment) || strings.HasSuffix(e.Name, fragment) {
			return e, true
		}
	}
	return Entry{}, false
}

// MaxVolume returns the highest volume number any record references.
func (idx *Index) MaxVolume() int {
	max := 0
	for _, e := range idx.entries {
		if e.Volume > max {
			max = e.Volume
		}
	}
	return max
}
