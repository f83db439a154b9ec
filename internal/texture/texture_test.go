package texture

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSlice struct {
	width   int
	height  int
	payload []byte // marker-prefixed slice payload
}

// buildTexture assembles a texture payload: 40-byte header followed by one
// 16-byte slice header plus payload per slice.
func buildTexture(format byte, slices []testSlice) []byte {
	var body bytes.Buffer
	for _, s := range slices {
		size := uint32(sliceHeaderSize + len(s.payload))
		binary.Write(&body, binary.LittleEndian, size)
		binary.Write(&body, binary.LittleEndian, uint16(s.width))
		binary.Write(&body, binary.LittleEndian, uint16(s.height))
		binary.Write(&body, binary.LittleEndian, uint16(1)) // depth
		binary.Write(&body, binary.LittleEndian, uint16(s.width*4))
		binary.Write(&body, binary.LittleEndian, uint32(len(s.payload)))
		body.Write(s.payload)
	}

	header := make([]byte, headerSize)
	header[0x05] = format
	header[0x06] = byte(len(slices))
	last := slices[len(slices)-1]
	binary.LittleEndian.PutUint16(header[0x0C:], uint16(last.width))
	binary.LittleEndian.PutUint16(header[0x0E:], uint16(last.height))
	binary.LittleEndian.PutUint32(header[0x20:], uint32(body.Len()))
	binary.LittleEndian.PutUint16(header[0x26:], uint16(len(slices)))

	return append(header, body.Bytes()...)
}

func rawSlicePayload(pixels []byte) []byte {
	return append([]byte("NNNN"), pixels...)
}

func TestParseTexture(t *testing.T) {
	t.Parallel()

	pixels := bytes.Repeat([]byte{10, 20, 30, 255}, 4)
	data := buildTexture(FormatRGBA8, []testSlice{
		{width: 1, height: 1, payload: rawSlicePayload(pixels[:4])},
		{width: 2, height: 2, payload: rawSlicePayload(pixels)},
	})

	tex, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, byte(FormatRGBA8), tex.Header.Format)
	assert.Equal(t, 2, tex.Header.Width)
	assert.Equal(t, 2, tex.Header.Height)
	require.Len(t, tex.Slices, 2)
	assert.Equal(t, 1, tex.Slices[0].Width)
	assert.Equal(t, 2, tex.Slices[1].Width)
}

func TestParseTextureTooSmall(t *testing.T) {
	t.Parallel()

	_, err := Parse(make([]byte, 12))
	assert.ErrorIs(t, err, ErrDecompression)
}

func TestParseTextureNoSlices(t *testing.T) {
	t.Parallel()

	header := make([]byte, headerSize)
	header[0x05] = FormatRGBA8
	_, err := Parse(header)
	assert.ErrorIs(t, err, ErrDecompression)
}

func TestDecodeRGBA8(t *testing.T) {
	t.Parallel()

	pixels := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 128,
	}
	data := buildTexture(FormatRGBA8, []testSlice{
		{width: 2, height: 2, payload: rawSlicePayload(pixels)},
	})

	tex, err := Parse(data)
	require.NoError(t, err)
	img, err := tex.Decode(-1)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Rect.Dx())
	assert.Equal(t, 2, img.Rect.Dy())
	assert.Equal(t, pixels, img.Pix)
}

func TestDecodeMipSelection(t *testing.T) {
	t.Parallel()

	small := []byte{1, 2, 3, 4}
	big := bytes.Repeat([]byte{9, 9, 9, 255}, 4)
	data := buildTexture(FormatRGBA8, []testSlice{
		{width: 1, height: 1, payload: rawSlicePayload(small)},
		{width: 2, height: 2, payload: rawSlicePayload(big)},
	})

	tex, err := Parse(data)
	require.NoError(t, err)

	// -1 selects the last (highest resolution) slice.
	img, err := tex.Decode(-1)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Rect.Dx())

	img, err = tex.Decode(0)
	require.NoError(t, err)
	assert.Equal(t, 1, img.Rect.Dx())
	assert.Equal(t, small, img.Pix)

	_, err = tex.Decode(5)
	assert.Error(t, err)
}

func TestDecodeCompressedSlice(t *testing.T) {
	t.Parallel()

	pixels := bytes.Repeat([]byte{40, 50, 60, 255}, 16)
	data := buildTexture(FormatRGBA8, []testSlice{
		{width: 4, height: 4, payload: lz4Frame(t, pixels)},
	})

	tex, err := Parse(data)
	require.NoError(t, err)
	img, err := tex.Decode(-1)
	require.NoError(t, err)
	assert.Equal(t, pixels, img.Pix)
}

func TestDecodeUnknownSliceMarker(t *testing.T) {
	t.Parallel()

	data := buildTexture(FormatRGBA8, []testSlice{
		{width: 1, height: 1, payload: []byte("XXXX\x00\x00\x00\x00")},
	})

	tex, err := Parse(data)
	require.NoError(t, err)
	_, err = tex.Decode(-1)
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}

func TestDecodeUnknownPixelFormat(t *testing.T) {
	t.Parallel()

	data := buildTexture(99, []testSlice{
		{width: 1, height: 1, payload: rawSlicePayload([]byte{1, 2, 3, 4})},
	})

	tex, err := Parse(data)
	require.NoError(t, err)
	_, err = tex.Decode(-1)
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}

func TestDecodeShortPixelData(t *testing.T) {
	t.Parallel()

	// 2x2 RGBA8 needs 16 bytes; only 4 are present.
	data := buildTexture(FormatRGBA8, []testSlice{
		{width: 2, height: 2, payload: rawSlicePayload([]byte{1, 2, 3, 4})},
	})

	tex, err := Parse(data)
	require.NoError(t, err)
	_, err = tex.Decode(-1)
	assert.ErrorIs(t, err, ErrDecompression)
}

func TestDecodeSheet(t *testing.T) {
	t.Parallel()

	pixels := bytes.Repeat([]byte{7, 8, 9, 255}, 4)
	payload := buildTexture(FormatRGBA8, []testSlice{
		{width: 2, height: 2, payload: rawSlicePayload(pixels)},
	})

	// Archive entries may wrap the texture in a stream frame.
	img, err := DecodeSheet(lz4Frame(t, payload))
	require.NoError(t, err)
	assert.Equal(t, pixels, img.Pix)

	again, err := DecodeSheet(lz4Frame(t, payload))
	require.NoError(t, err)
	assert.Equal(t, img.Pix, again.Pix)
}

func TestFormatName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "BC7", FormatName(FormatBC7))
	assert.Equal(t, "ASTC_6x6", FormatName(FormatASTC6x6))
	assert.Equal(t, "Unknown(77)", FormatName(77))
}
