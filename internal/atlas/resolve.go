package atlas

import (
	"fmt"
	"image"
)

// Slice cuts one frame out of a decoded sheet and restores it to its
// untrimmed source size. Rotated frames are stored turned 90 degrees
// clockwise in the sheet and are turned back here.
func Slice(sheet *image.NRGBA, f Frame) (*image.NRGBA, error) {
	bounds := sheet.Bounds()
	regionW, regionH := f.W, f.H
	if f.Rotated {
		regionW, regionH = f.H, f.W
	}
	if f.X < 0 || f.Y < 0 || f.X+regionW > bounds.Dx() || f.Y+regionH > bounds.Dy() {
		return nil, fmt.Errorf("%w: %s at (%d,%d) %dx%d in %dx%d sheet",
			ErrFrameOutOfBounds, f.Name, f.X, f.Y, regionW, regionH, bounds.Dx(), bounds.Dy())
	}

	canvasW, canvasH := f.SourceW, f.SourceH
	if canvasW < f.W {
		canvasW = f.W
	}
	if canvasH < f.H {
		canvasH = f.H
	}
	out := image.NewNRGBA(image.Rect(0, 0, canvasW, canvasH))

	// Trim offsets are measured from the source center with +y up.
	padLeft := (canvasW-f.W)/2 + f.OffsetX
	padTop := (canvasH-f.H)/2 - f.OffsetY
	if padLeft < 0 {
		padLeft = 0
	}
	if padTop < 0 {
		padTop = 0
	}
	if padLeft+f.W > canvasW {
		padLeft = canvasW - f.W
	}
	if padTop+f.H > canvasH {
		padTop = canvasH - f.H
	}

	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			var sx, sy int
			if f.Rotated {
				sx, sy = f.X+f.H-1-y, f.Y+x
			} else {
				sx, sy = f.X+x, f.Y+y
			}
			si := sheet.PixOffset(bounds.Min.X+sx, bounds.Min.Y+sy)
			di := out.PixOffset(padLeft+x, padTop+y)
			copy(out.Pix[di:di+4], sheet.Pix[si:si+4])
		}
	}
	return out, nil
}
