// Package atlas parses cocos2d sprite-atlas plists and slices the decoded
// sheet image into the individual sprites the atlas describes.
package atlas

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"howett.net/plist"
)

var (
	ErrCorruptAtlas     = errors.New("corrupt atlas")
	ErrFrameOutOfBounds = errors.New("atlas frame out of bounds")
)

// Frame is one sprite's placement within a sheet. X/Y locate the stored
// region; W/H are the sprite's unrotated dimensions, so a rotated frame
// occupies an HxW region of the sheet. SourceW/SourceH restore the
// untrimmed size, with the trimmed region offset by OffsetX/OffsetY from
// the source center (+y up, per cocos2d).
type Frame struct {
	Name    string
	X, Y    int
	W, H    int
	Rotated bool

	SourceW, SourceH int
	OffsetX, OffsetY int
}

// Atlas is one parsed sheet description: the logical texture name it maps
// onto and its frames in name order.
type Atlas struct {
	Texture string
	Frames  []Frame
}

type plistFrame struct {
	Frame      string `plist:"frame"`
	Rotated    bool   `plist:"rotated"`
	Offset     string `plist:"offset"`
	SourceSize string `plist:"sourceSize"`
}

type plistMetadata struct {
	TextureFileName string `plist:"textureFileName"`
}

type plistRoot struct {
	Frames   map[string]plistFrame `plist:"frames"`
	Metadata plistMetadata         `plist:"metadata"`
}

// Parse reads an XML or binary cocos2d atlas plist. Frames are returned
// sorted by name so processing order is stable across runs.
func Parse(data []byte) (*Atlas, error) {
	var root plistRoot
	if _, err := plist.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptAtlas, err)
	}
	if len(root.Frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrCorruptAtlas)
	}

	a := &Atlas{Texture: root.Metadata.TextureFileName}
	for name, pf := range root.Frames {
		f, err := parseFrame(name, pf)
		if err != nil {
			return nil, err
		}
		a.Frames = append(a.Frames, f)
	}
	sort.Slice(a.Frames, func(i, j int) bool {
		return a.Frames[i].Name < a.Frames[j].Name
	})
	return a, nil
}

func parseFrame(name string, pf plistFrame) (Frame, error) {
	f := Frame{Name: name, Rotated: pf.Rotated}

	rect, err := parseInts(pf.Frame, 4)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: frame %q: %v", ErrCorruptAtlas, name, err)
	}
	f.X, f.Y, f.W, f.H = rect[0], rect[1], rect[2], rect[3]

	// Untrimmed frames omit sourceSize and offset.
	f.SourceW, f.SourceH = f.W, f.H
	if pf.SourceSize != "" {
		size, err := parseInts(pf.SourceSize, 2)
		if err != nil {
			return Frame{}, fmt.Errorf("%w: frame %q: %v", ErrCorruptAtlas, name, err)
		}
		f.SourceW, f.SourceH = size[0], size[1]
	}
	if pf.Offset != "" {
		off, err := parseInts(pf.Offset, 2)
		if err != nil {
			return Frame{}, fmt.Errorf("%w: frame %q: %v", ErrCorruptAtlas, name, err)
		}
		f.OffsetX, f.OffsetY = off[0], off[1]
	}
	return f, nil
}

// parseInts reads a cocos2d tuple string such as "{{2,2},{80,96}}" or
// "{40,48}", ignoring braces and requiring exactly want numbers.
func parseInts(s string, want int) ([]int, error) {
	clean := strings.NewReplacer("{", "", "}", "", " ", "").Replace(s)
	parts := strings.Split(clean, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d values in %q", want, s)
	}
	out := make([]int, want)
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q in %q", p, s)
		}
		out[i] = int(v)
	}
	return out, nil
}

// Trimmed reports whether the frame dropped transparent borders when it
// was packed.
func (f Frame) Trimmed() bool {
	return f.SourceW != f.W || f.SourceH != f.H || f.OffsetX != 0 || f.OffsetY != 0
}
