package texture

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lz4Frame wraps data in a ZZZ4 stream frame using the standard block
// compressor.
func lz4Frame(t *testing.T, data []byte) []byte {
	t.Helper()

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	require.NoError(t, err)
	if n == 0 {
		// Incompressible input is stored as one literal run.
		compressed, n = rawLZ4Block(data), len(rawLZ4Block(data))
	}

	var b bytes.Buffer
	b.Write(markerLZ4)
	binary.Write(&b, binary.LittleEndian, uint32(len(data)))
	b.Write(compressed[:n])
	return b.Bytes()
}

// rawLZ4Block encodes data as a single literal-only LZ4 sequence.
func rawLZ4Block(data []byte) []byte {
	var b bytes.Buffer
	n := len(data)
	if n < 15 {
		b.WriteByte(byte(n) << 4)
	} else {
		b.WriteByte(0xF0)
		for rem := n - 15; ; rem -= 255 {
			if rem < 255 {
				b.WriteByte(byte(rem))
				break
			}
			b.WriteByte(255)
		}
	}
	b.Write(data)
	return b.Bytes()
}

func TestDecodeEntryRaw(t *testing.T) {
	t.Parallel()

	payload := []byte("no marker here, passed through untouched")
	out, err := DecodeEntry(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestDecodeEntryLZ4(t *testing.T) {
	t.Parallel()

	want := bytes.Repeat([]byte("sprite sheet pixels "), 64)
	out, err := DecodeEntry(lz4Frame(t, want))
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestDecodeEntryContainer(t *testing.T) {
	t.Parallel()

	want := bytes.Repeat([]byte("resource.repository payload "), 32)

	t.Run("wrapping lz4", func(t *testing.T) {
		t.Parallel()
		payload := append([]byte("CCCC"), lz4Frame(t, want)...)
		out, err := DecodeEntry(payload)
		require.NoError(t, err)
		assert.Equal(t, want, out)
	})

	t.Run("wrapping raw", func(t *testing.T) {
		t.Parallel()
		payload := append([]byte("CCCC"), want...)
		out, err := DecodeEntry(payload)
		require.NoError(t, err)
		assert.Equal(t, want, out)
	})
}

func TestDecodeEntryDeterministic(t *testing.T) {
	t.Parallel()

	frame := lz4Frame(t, bytes.Repeat([]byte{0xAB, 0xCD, 0x01}, 500))
	first, err := DecodeEntry(frame)
	require.NoError(t, err)
	second, err := DecodeEntry(frame)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLZ4FrameTruncatedHeader(t *testing.T) {
	t.Parallel()

	_, err := DecodeEntry([]byte("ZZZ4\x08"))
	assert.ErrorIs(t, err, ErrDecompression)
}

func TestFallbackBlockDecoder(t *testing.T) {
	t.Parallel()

	// Literals "abcd" then a match of length 4 at offset 4, ending on the
	// match. Strict decoders reject a stream whose final sequence is not
	// literal-only; the fallback must produce "abcdabcd".
	src := []byte{0x40, 'a', 'b', 'c', 'd', 0x04, 0x00}
	out, err := decompressBlock(src, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdabcd"), out)
}

func TestFallbackBlockOverlappingMatch(t *testing.T) {
	t.Parallel()

	// One literal then an offset-1 match: classic RLE expansion.
	src := []byte{0x1F, 'x', 0x01, 0x00, 0x00}
	out, err := decompressBlock(src, 20)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{'x'}, 20), out)
}

func TestFallbackBlockBadBackReference(t *testing.T) {
	t.Parallel()

	// Match offset 5 with only 1 byte of output addresses data before the
	// start of the stream.
	src := []byte{0x10, 'x', 0x05, 0x00}
	_, err := decompressBlock(src, 16)
	assert.ErrorIs(t, err, ErrDecompression)
}

func TestFallbackBlockShortOutput(t *testing.T) {
	t.Parallel()

	// Declares 64 bytes but only carries 3 literals.
	src := []byte{0x30, 'a', 'b', 'c'}
	_, err := decompressBlock(src, 64)
	assert.ErrorIs(t, err, ErrDecompression)
}

func TestLZ4FrameSizeMismatch(t *testing.T) {
	t.Parallel()

	// A valid block for 8 bytes of output with a declared size of 16 must
	// fail rather than return a short buffer.
	frame := lz4Frame(t, []byte("12345678"))
	binary.LittleEndian.PutUint32(frame[4:], 16)
	_, err := DecodeEntry(frame)
	assert.ErrorIs(t, err, ErrDecompression)
}
