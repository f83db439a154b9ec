// Package repository parses the container's resource.repository manifest,
// which maps logical resource names to the GUID pack paths under which
// their payloads are stored in the volume index.
package repository

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var ErrCorrupt = errors.New("corrupt resource repository")

// Entry is one manifest record. The 16-byte GUID determines the pack path
// of the resource payload; folder and type are indices into the shared
// string tables.
type Entry struct {
	Name        string
	GUID        [16]byte
	FolderIndex int
	TypeIndex   int
}

// Repository is the parsed manifest: a resource-type table, a folder-path
// table and the GUID-keyed entries.
type Repository struct {
	Version uint32

	types   []string
	folders []string
	entries []Entry
	typeIdx map[string]int
}

// Manifest layout (little endian): uint32 version, uint16 + uint32 flags,
// a uint16-length-prefixed semicolon-joined type table, the same for the
// folder table, then entries until end of data. Each entry: two reserved
// uint16s, one flag byte, 16-byte GUID, uint16-prefixed UTF-8 name, uint16
// folder index, uint16 type index, uint16 related-GUID count followed by 16
// bytes per related GUID. A partial trailing entry terminates the list.
func Parse(data []byte) (*Repository, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("%w: %d bytes is too small for a header", ErrCorrupt, len(data))
	}

	p := 0
	version := binary.LittleEndian.Uint32(data[p:])
	p += 4
	p += 2 // uint16 flag
	p += 4 // uint32 flag

	types, next, err := readTable(data, p)
	if err != nil {
		return nil, fmt.Errorf("%w: type table: %v", ErrCorrupt, err)
	}
	p = next

	folders, next, err := readTable(data, p)
	if err != nil {
		return nil, fmt.Errorf("%w: folder table: %v", ErrCorrupt, err)
	}
	p = next

	r := &Repository{
		Version: version,
		types:   types,
		folders: folders,
		typeIdx: make(map[string]int, len(types)),
	}
	for i, name := range types {
		r.typeIdx[name] = i
	}

	for p < len(data) {
		e, next, ok := readEntry(data, p)
		if !ok {
			// Trailing partial record; everything before it is usable.
			slog.Debug("Repository entry list ends with partial record", "offset", p)
			break
		}
		r.entries = append(r.entries, e)
		p = next
	}

	return r, nil
}

func readTable(data []byte, p int) ([]string, int, error) {
	if p+2 > len(data) {
		return nil, 0, errors.New("length prefix out of range")
	}
	n := int(binary.LittleEndian.Uint16(data[p:]))
	p += 2
	if p+n > len(data) {
		return nil, 0, fmt.Errorf("table of %d bytes out of range", n)
	}
	s := string(data[p : p+n])
	return strings.Split(s, ";"), p + n, nil
}

func readEntry(data []byte, p int) (Entry, int, bool) {
	// 2 + 2 reserved, 1 flag, 16 GUID, 2 name length.
	if p+23 > len(data) {
		return Entry{}, 0, false
	}
	p += 5

	var e Entry
	copy(e.GUID[:], data[p:p+16])
	p += 16

	nameLen := int(binary.LittleEndian.Uint16(data[p:]))
	p += 2
	if p+nameLen+6 > len(data) {
		return Entry{}, 0, false
	}
	e.Name = string(data[p : p+nameLen])
	p += nameLen

	e.FolderIndex = int(binary.LittleEndian.Uint16(data[p:]))
	e.TypeIndex = int(binary.LittleEndian.Uint16(data[p+2:]))
	related := int(binary.LittleEndian.Uint16(data[p+4:]))
	p += 6

	if p+related*16 > len(data) {
		return Entry{}, 0, false
	}
	p += related * 16

	return e, p, true
}

// Entries returns all manifest records in file order.
func (r *Repository) Entries() []Entry {
	return r.entries
}

// Types returns the resource-type table.
func (r *Repository) Types() []string {
	return r.types
}

// TypeName resolves an entry's type index.
func (r *Repository) TypeName(e Entry) string {
	if e.TypeIndex < 0 || e.TypeIndex >= len(r.types) {
		return fmt.Sprintf("Unknown(%d)", e.TypeIndex)
	}
	return r.types[e.TypeIndex]
}

// FolderPath resolves an entry's folder index.
func (r *Repository) FolderPath(e Entry) string {
	if e.FolderIndex < 0 || e.FolderIndex >= len(r.folders) {
		return fmt.Sprintf("Unknown(%d)", e.FolderIndex)
	}
	return r.folders[e.FolderIndex]
}

// FindByName returns entries whose logical name contains the given string,
// case-insensitively, in file order.
func (r *Repository) FindByName(name string) []Entry {
	needle := strings.ToLower(name)
	var out []Entry
	for _, e := range r.entries {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			out = append(out, e)
		}
	}
	return out
}

// FindTexture resolves an atlas's logical texture name (with or without a
// .png suffix) to its Texture2D manifest entry.
func (r *Repository) FindTexture(logicalName string) (Entry, bool) {
	texType, ok := r.typeIdx["Texture2D"]
	if !ok {
		return Entry{}, false
	}
	needle := strings.ToLower(strings.TrimSuffix(logicalName, ".png"))
	for _, e := range r.entries {
		if e.TypeIndex == texType && strings.Contains(strings.ToLower(e.Name), needle) {
			return e, true
		}
	}
	return Entry{}, false
}

// GUIDPath renders the pack path of a GUID. The first byte doubles as the
// directory name and the start of the filename:
//
//	[0c 36 39 8b ...] -> "0c/0c36398b-90f9-47cb-b98f-6e469a788c2e"
func GUIDPath(guid [16]byte) string {
	return fmt.Sprintf("%02x/%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		guid[0],
		guid[0], guid[1], guid[2], guid[3],
		guid[4], guid[5],
		guid[6], guid[7],
		guid[8], guid[9],
		guid[10], guid[11], guid[12], guid[13], guid[14], guid[15])
}

// Path renders the entry's own pack path.
func (e Entry) Path() string {
	return GUIDPath(e.GUID)
}
