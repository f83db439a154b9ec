package texture

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bc1Block(c0, c1 uint16, indices uint32) []byte {
	block := make([]byte, 8)
	binary.LittleEndian.PutUint16(block, c0)
	binary.LittleEndian.PutUint16(block[2:], c1)
	binary.LittleEndian.PutUint32(block[4:], indices)
	return block
}

func TestDecodeBC1SolidColor(t *testing.T) {
	t.Parallel()

	// c0 > c1 selects the four-color palette; all indices 0 yield c0.
	red := uint16(0xF800)
	img, err := decodeBC1(bc1Block(red, 0x0000, 0), 4, 4)
	require.NoError(t, err)
	for i := 0; i < 16; i++ {
		assert.Equal(t, []byte{255, 0, 0, 255}, []byte(img.Pix[i*4:i*4+4]))
	}
}

func TestDecodeBC1Interpolated(t *testing.T) {
	t.Parallel()

	// Pure green and black endpoints, every texel using index 2: the
	// rounded 2/3-to-1/3 blend of c0 toward c1.
	c0 := uint16(0x07E0)
	c1 := uint16(0x0000)
	indices := uint32(0xAAAAAAAA) // 10 repeated
	img, err := decodeBC1(bc1Block(c0, c1, indices), 4, 4)
	require.NoError(t, err)

	want := third(255, 0)
	for i := 0; i < 16; i++ {
		assert.Equal(t, []byte{0, want, 0, 255}, []byte(img.Pix[i*4:i*4+4]))
	}
}

func TestDecodeBC1PunchThroughAlpha(t *testing.T) {
	t.Parallel()

	// c0 <= c1 selects the three-color palette where index 3 is
	// transparent black.
	indices := uint32(0xFFFFFFFF) // 11 repeated
	img, err := decodeBC1(bc1Block(0x0000, 0xFFFF, indices), 4, 4)
	require.NoError(t, err)
	for i := 0; i < 16; i++ {
		assert.Equal(t, []byte{0, 0, 0, 0}, []byte(img.Pix[i*4:i*4+4]))
	}
}

func TestDecodeBC1EdgeClipping(t *testing.T) {
	t.Parallel()

	// A 4x4 block backing a 3x2 image only fills the clipped region.
	img, err := decodeBC1(bc1Block(0xFFFF, 0x0000, 0), 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Rect.Dx())
	assert.Equal(t, 2, img.Rect.Dy())
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			o := img.PixOffset(x, y)
			assert.Equal(t, uint8(255), img.Pix[o+3])
		}
	}
}

func TestDecodeBC1ShortData(t *testing.T) {
	t.Parallel()

	_, err := decodeBC1(make([]byte, 4), 4, 4)
	assert.ErrorIs(t, err, ErrDecompression)
}

func TestExpand565(t *testing.T) {
	t.Parallel()

	r, g, b := expand565(0xFFFF)
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(255), g)
	assert.Equal(t, uint8(255), b)

	r, g, b = expand565(0xF800)
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(0), b)
}
