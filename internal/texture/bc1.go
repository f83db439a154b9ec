package texture

import (
	"encoding/binary"
	"fmt"
	"image"
)

// decodeBC1 decodes BC1 (DXT1) data: 8-byte 4x4 blocks, two RGB565
// endpoints and 2-bit palette indices, with the two-color ordering
// selecting between the four-color and the punch-through-alpha palette.
// Edge blocks are clipped to the image bounds.
func decodeBC1(data []byte, width, height int) (*image.NRGBA, error) {
	bw := (width + 3) / 4
	bh := (height + 3) / 4
	need := bw * bh * 8
	if len(data) < need {
		return nil, fmt.Errorf("%w: BC1 needs %d bytes for %dx%d, have %d",
			ErrDecompression, need, width, height, len(data))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			block := data[(by*bw+bx)*8:]
			c0 := binary.LittleEndian.Uint16(block)
			c1 := binary.LittleEndian.Uint16(block[2:])

			var pal [4][4]uint8
			r0, g0, b0 := expand565(c0)
			r1, g1, b1 := expand565(c1)
			pal[0] = [4]uint8{r0, g0, b0, 255}
			pal[1] = [4]uint8{r1, g1, b1, 255}
			if c0 > c1 {
				pal[2] = [4]uint8{third(r0, r1), third(g0, g1), third(b0, b1), 255}
				pal[3] = [4]uint8{third(r1, r0), third(g1, g0), third(b1, b0), 255}
			} else {
				pal[2] = [4]uint8{mid(r0, r1), mid(g0, g1), mid(b0, b1), 255}
				pal[3] = [4]uint8{0, 0, 0, 0}
			}

			bits := binary.LittleEndian.Uint32(block[4:])
			for py := 0; py < 4; py++ {
				y := by*4 + py
				if y >= height {
					break
				}
				for px := 0; px < 4; px++ {
					x := bx*4 + px
					if x >= width {
						break
					}
					c := pal[(bits>>(2*(4*py+px)))&3]
					o := img.PixOffset(x, y)
					copy(img.Pix[o:o+4], c[:])
				}
			}
		}
	}
	return img, nil
}

func expand565(c uint16) (r, g, b uint8) {
	r5 := uint8(c >> 11 & 0x1F)
	g6 := uint8(c >> 5 & 0x3F)
	b5 := uint8(c & 0x1F)
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// third is the rounded 2/3 : 1/3 endpoint blend of the four-color mode.
func third(a, b uint8) uint8 {
	return uint8((2*int(a) + int(b) + 1) / 3)
}

func mid(a, b uint8) uint8 {
	return uint8((int(a) + int(b) + 1) / 2)
}
