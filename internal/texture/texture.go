// Package texture decodes the engine's packed texture payloads into
// straight-alpha RGBA images: stream decompression of the stored bytes,
// then pixel decoding for the raw and block-compressed GPU formats.
package texture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
)

// Pixel format ids carried in the texture header.
const (
	FormatRGBA8   = 5
	FormatBC1     = 18
	FormatBC7     = 25
	FormatASTC4x4 = 36
	FormatASTC6x6 = 40
	FormatASTC8x8 = 43
)

var formatNames = map[byte]string{
	FormatRGBA8:   "R8G8B8A8",
	FormatBC1:     "BC1",
	FormatBC7:     "BC7",
	FormatASTC4x4: "ASTC_4x4",
	FormatASTC6x6: "ASTC_6x6",
	FormatASTC8x8: "ASTC_8x8",
}

// FormatName returns the human-readable name of a pixel format id.
func FormatName(format byte) string {
	if name, ok := formatNames[format]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", format)
}

// Header is the fixed 40-byte texture descriptor at the start of a texture
// payload. Only the fields the decoder needs are retained; the sampler
// state bytes are skipped.
type Header struct {
	Format     byte
	MipCount   byte
	Width      int
	Height     int
	DataSize   uint32
	SliceCount int
}

const headerSize = 40

func parseHeader(data []byte) Header {
	return Header{
		Format:     data[0x05],
		MipCount:   data[0x06],
		Width:      int(binary.LittleEndian.Uint16(data[0x0C:])),
		Height:     int(binary.LittleEndian.Uint16(data[0x0E:])),
		DataSize:   binary.LittleEndian.Uint32(data[0x20:]),
		SliceCount: int(binary.LittleEndian.Uint16(data[0x26:])),
	}
}

// Slice is one stored mip level. Size counts the 16-byte slice header plus
// the marker-prefixed payload that follows it.
type Slice struct {
	Size    uint32
	Width   int
	Height  int
	Depth   int
	Pitch   int
	DataLen uint32
}

const sliceHeaderSize = 16

func parseSlice(data []byte) Slice {
	return Slice{
		Size:    binary.LittleEndian.Uint32(data[0x00:]),
		Width:   int(binary.LittleEndian.Uint16(data[0x04:])),
		Height:  int(binary.LittleEndian.Uint16(data[0x06:])),
		Depth:   int(binary.LittleEndian.Uint16(data[0x08:])),
		Pitch:   int(binary.LittleEndian.Uint16(data[0x0A:])),
		DataLen: binary.LittleEndian.Uint32(data[0x0C:]),
	}
}

// Texture is a parsed texture payload: header, slice directory and the
// backing bytes. Slices are ordered as stored, smallest mip first; the last
// slice is the full-resolution image.
type Texture struct {
	Header Header
	Slices []Slice

	data []byte
}

// Parse reads the texture header and walks the slice directory. The pixel
// data itself stays untouched until Decode.
func Parse(data []byte) (*Texture, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is too small for a texture header", ErrDecompression, len(data))
	}

	t := &Texture{Header: parseHeader(data), data: data}

	offset := headerSize
	for i := 0; i < t.Header.SliceCount; i++ {
		if offset+sliceHeaderSize > len(data) {
			break
		}
		s := parseSlice(data[offset:])
		if s.Size < sliceHeaderSize {
			return nil, fmt.Errorf("%w: slice %d declares %d bytes, below its own header size", ErrDecompression, i, s.Size)
		}
		t.Slices = append(t.Slices, s)
		offset += int(s.Size)
	}

	if len(t.Slices) == 0 {
		return nil, fmt.Errorf("%w: texture has no slices", ErrDecompression)
	}
	return t, nil
}

// Decode decompresses and decodes one mip slice to a straight-alpha RGBA
// image. Pass mip -1 for the highest-resolution slice (the last one).
func (t *Texture) Decode(mip int) (*image.NRGBA, error) {
	if mip == -1 {
		mip = len(t.Slices) - 1
	}
	if mip < 0 || mip >= len(t.Slices) {
		return nil, fmt.Errorf("mip level %d not available, texture has %d slices", mip, len(t.Slices))
	}

	offset := headerSize
	for i := 0; i < mip; i++ {
		offset += int(t.Slices[i].Size)
	}
	s := t.Slices[mip]

	end := offset + int(s.Size)
	if end > len(t.data) {
		return nil, fmt.Errorf("%w: slice %d runs past the payload (%d > %d)", ErrDecompression, mip, end, len(t.data))
	}
	payload := t.data[offset+sliceHeaderSize : end]

	raw, err := decodeSlicePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("slice %d: %w", mip, err)
	}

	return decodePixels(t.Header.Format, raw, s.Width, s.Height)
}

// decodeSlicePayload resolves the mandatory per-slice codec marker. Unlike
// archive entries, a slice without a known marker is an error.
func decodeSlicePayload(payload []byte) ([]byte, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: slice payload of %d bytes has no marker", ErrDecompression, len(payload))
	}
	switch {
	case bytes.HasPrefix(payload, markerRaw):
		return payload[4:], nil
	case bytes.HasPrefix(payload, markerLZ4):
		return decompressLZ4Frame(payload)
	default:
		return nil, fmt.Errorf("%w: slice marker %q", ErrUnsupportedCodec, payload[:4])
	}
}

// decodePixels converts decompressed slice bytes to RGBA according to the
// pixel format. Output is deterministic for identical input.
func decodePixels(format byte, data []byte, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrDecompression, width, height)
	}

	switch format {
	case FormatRGBA8:
		need := width * height * 4
		if len(data) < need {
			return nil, fmt.Errorf("%w: %s needs %d bytes for %dx%d, have %d",
				ErrDecompression, FormatName(format), need, width, height, len(data))
		}
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		copy(img.Pix, data[:need])
		return img, nil

	case FormatBC1:
		return decodeBC1(data, width, height)

	case FormatBC7:
		return decodeBC7(data, width, height)

	case FormatASTC4x4:
		return decodeASTC(data, width, height, 4, 4)

	case FormatASTC6x6:
		return decodeASTC(data, width, height, 6, 6)

	case FormatASTC8x8:
		return decodeASTC(data, width, height, 8, 8)

	default:
		return nil, fmt.Errorf("%w: pixel format %s", ErrUnsupportedCodec, FormatName(format))
	}
}

// DecodeSheet is the one-call path from a stored archive payload to the
// full-resolution RGBA sheet.
func DecodeSheet(payload []byte) (*image.NRGBA, error) {
	data, err := DecodeEntry(payload)
	if err != nil {
		return nil, err
	}
	t, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return t.Decode(-1)
}
