package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

var (
	ErrUnsupportedCodec = errors.New("unsupported codec")
	ErrDecompression    = errors.New("decompression failed")
)

// Payload codec markers. Every stored payload in this container starts with
// one of these four-byte tags; texture slices additionally carry a marker
// per slice.
var (
	markerRaw       = []byte("NNNN")
	markerLZ4       = []byte("ZZZ4")
	markerContainer = []byte("CCCC")
)

// DecodeEntry decompresses an archive-entry payload. Entries are either a
// plain `ZZZ4` stream frame, a `CCCC` container wrapping one nested frame
// (used by resource.repository), or raw bytes with no marker.
func DecodeEntry(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, markerContainer):
		inner := data[4:]
		if bytes.HasPrefix(inner, markerLZ4) {
			return decompressLZ4Frame(inner)
		}
		return inner, nil
	case bytes.HasPrefix(data, markerLZ4):
		return decompressLZ4Frame(data)
	default:
		return data, nil
	}
}

// decompressLZ4Frame decodes one `ZZZ4` frame: 4-byte magic, uint32 LE
// declared decompressed size, LZ4 block data.
func decompressLZ4Frame(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: stream frame of %d bytes has no size prefix", ErrDecompression, len(data))
	}
	size := int(binary.LittleEndian.Uint32(data[4:8]))
	src := data[8:]

	out := make([]byte, size)
	if n, err := lz4.UncompressBlock(src, out); err == nil && n == size {
		return out, nil
	}

	// The vendor's encoder emits a nonstandard final sequence that strict
	// decoders reject; retry with the tolerant block decoder.
	return decompressBlock(src, size)
}

// decompressBlock decodes a raw LZ4 block into exactly size bytes,
// tolerating the vendor's truncated final sequence. A back-reference that
// addresses data before the start of the output is corruption. Producing
// fewer bytes than declared is an error as well.
func decompressBlock(src []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	s, d := 0, 0

	for s < len(src) && d < size {
		token := src[s]
		s++

		litLen := int(token >> 4)
		if litLen == 15 {
			for s < len(src) {
				extra := src[s]
				s++
				litLen += int(extra)
				if extra != 255 {
					break
				}
			}
		}

		n := litLen
		if rem := len(src) - s; n > rem {
			n = rem
		}
		if rem := size - d; n > rem {
			n = rem
		}
		copy(dst[d:], src[s:s+n])
		s += n
		d += n

		if d >= size || s+2 > len(src) {
			break
		}

		offset := int(binary.LittleEndian.Uint16(src[s:]))
		s += 2
		if offset == 0 {
			break
		}

		matchLen := int(token&0x0F) + 4
		if matchLen == 19 {
			for s < len(src) {
				extra := src[s]
				s++
				matchLen += int(extra)
				if extra != 255 {
					break
				}
			}
		}

		m := d - offset
		if m < 0 {
			return nil, fmt.Errorf("%w: back-reference %d bytes before output start", ErrDecompression, -m)
		}
		for i := 0; i < matchLen && d < size; i++ {
			dst[d] = dst[m+i%offset]
			d++
		}
	}

	if d != size {
		return nil, fmt.Errorf("%w: produced %d of %d declared bytes", ErrDecompression, d, size)
	}
	return dst, nil
}
