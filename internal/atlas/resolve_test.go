package atlas

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSheet builds a sheet where every pixel encodes its own coordinates,
// so slice tests can assert exactly which source pixel landed where.
func testSheet(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 1, A: 255})
		}
	}
	return img
}

func TestSlicePlain(t *testing.T) {
	t.Parallel()

	sheet := testSheet(16, 16)
	f := Frame{Name: "a", X: 3, Y: 5, W: 4, H: 2, SourceW: 4, SourceH: 2}

	out, err := Slice(sheet, f)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 4, 2), out.Bounds())

	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, color.NRGBA{R: uint8(3 + x), G: uint8(5 + y), B: 1, A: 255}, out.NRGBAAt(x, y))
		}
	}
}

func TestSliceRotated(t *testing.T) {
	t.Parallel()

	sheet := testSheet(16, 16)
	// A 2x3 sprite stored turned clockwise occupies 3x2 in the sheet.
	f := Frame{Name: "r", X: 4, Y: 6, W: 2, H: 3, SourceW: 2, SourceH: 3, Rotated: true}

	out, err := Slice(sheet, f)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 2, 3), out.Bounds())

	// Turning back counter-clockwise maps out(x,y) to sheet(X+H-1-y, Y+x).
	for y := 0; y < 3; y++ {
		for x := 0; x < 2; x++ {
			want := color.NRGBA{R: uint8(4 + 2 - y), G: uint8(6 + x), B: 1, A: 255}
			assert.Equal(t, want, out.NRGBAAt(x, y), "at (%d,%d)", x, y)
		}
	}
}

func TestSliceTrimmed(t *testing.T) {
	t.Parallel()

	sheet := testSheet(16, 16)
	f := Frame{
		Name: "t", X: 1, Y: 1, W: 2, H: 2,
		SourceW: 6, SourceH: 6, OffsetX: 1, OffsetY: -1,
	}

	out, err := Slice(sheet, f)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 6, 6), out.Bounds())

	// padLeft = (6-2)/2 + 1 = 3, padTop = (6-2)/2 - (-1) = 3.
	assert.Equal(t, color.NRGBA{R: 1, G: 1, B: 1, A: 255}, out.NRGBAAt(3, 3))
	assert.Equal(t, color.NRGBA{R: 2, G: 2, B: 1, A: 255}, out.NRGBAAt(4, 4))
	// Padding stays transparent.
	assert.Equal(t, color.NRGBA{}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{}, out.NRGBAAt(5, 5))
}

func TestSliceOutOfBounds(t *testing.T) {
	t.Parallel()

	sheet := testSheet(8, 8)

	_, err := Slice(sheet, Frame{Name: "x", X: 6, Y: 0, W: 4, H: 4, SourceW: 4, SourceH: 4})
	assert.ErrorIs(t, err, ErrFrameOutOfBounds)

	// Rotated bounds use the stored orientation.
	_, err = Slice(sheet, Frame{Name: "y", X: 0, Y: 6, W: 4, H: 1, SourceW: 4, SourceH: 1, Rotated: true})
	assert.ErrorIs(t, err, ErrFrameOutOfBounds)
}

func TestSliceUndersizedSource(t *testing.T) {
	t.Parallel()

	sheet := testSheet(8, 8)
	// A bogus sourceSize smaller than the frame still yields a canvas that
	// fits the sprite.
	f := Frame{Name: "u", X: 0, Y: 0, W: 4, H: 4, SourceW: 2, SourceH: 2}

	out, err := Slice(sheet, f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), out.Bounds())
}
