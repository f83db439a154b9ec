package texture

import (
	"fmt"
	"image"
	"math/bits"
)

// decodeASTC decodes ASTC LDR data with the given block footprint (4x4, 6x6
// or 8x8): 16-byte blocks carrying a block-mode-encoded weight grid, integer
// sequence (trit/quint) packed weights and color endpoints, up to four
// partitions and an optional dual plane. Blocks the LDR profile cannot
// represent decode to the format's error color. Edge blocks are clipped to
// the image bounds.
func decodeASTC(data []byte, width, height, blockW, blockH int) (*image.NRGBA, error) {
	bw := (width + blockW - 1) / blockW
	bh := (height + blockH - 1) / blockH
	need := bw * bh * 16
	if len(data) < need {
		return nil, fmt.Errorf("%w: ASTC %dx%d needs %d bytes for %dx%d, have %d",
			ErrDecompression, blockW, blockH, need, width, height, len(data))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	texels := make([][4]uint8, blockW*blockH)
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			decodeASTCBlock(data[(by*bw+bx)*16:], blockW, blockH, texels)
			for py := 0; py < blockH; py++ {
				y := by*blockH + py
				if y >= height {
					break
				}
				for px := 0; px < blockW; px++ {
					x := bx*blockW + px
					if x >= width {
						break
					}
					o := img.PixOffset(x, y)
					copy(img.Pix[o:o+4], texels[py*blockW+px][:])
				}
			}
		}
	}
	return img, nil
}

// astcErrorColor is the error color the format mandates for blocks an
// LDR decoder cannot represent.
var astcErrorColor = [4]uint8{255, 0, 255, 255}

// astcBits is one 128-bit block, bit 0 the LSB of byte 0.
type astcBits struct {
	lo, hi uint64
}

func astcBlockBits(block []byte) astcBits {
	var b astcBits
	for i := 0; i < 8; i++ {
		b.lo |= uint64(block[i]) << (8 * i)
		b.hi |= uint64(block[8+i]) << (8 * i)
	}
	return b
}

// read extracts n bits (n <= 32) starting at bit lo.
func (b astcBits) read(lo, n int) uint32 {
	if n == 0 {
		return 0
	}
	var v uint64
	if lo < 64 {
		v = b.lo >> lo
		if lo+n > 64 {
			v |= b.hi << (64 - lo)
		}
	} else {
		v = b.hi >> (lo - 64)
	}
	return uint32(v & (1<<n - 1))
}

// reversed returns the block with bit i mapped to bit 127-i. Weight data is
// stored bit-reversed from the top of the block.
func (b astcBits) reversed() astcBits {
	return astcBits{lo: bits.Reverse64(b.hi), hi: bits.Reverse64(b.lo)}
}

// iseStream reads a bounded bit range; reads past the end yield zero bits,
// which is how truncated trailing trit/quint groups decode.
type iseStream struct {
	bits astcBits
	pos  int
	end  int
}

func (s *iseStream) next(n int) uint32 {
	if n == 0 || s.pos >= s.end {
		s.pos += n
		return 0
	}
	m := n
	if s.pos+m > s.end {
		m = s.end - s.pos
	}
	v := s.bits.read(s.pos, m)
	s.pos += n
	return v
}

// iseCoding is one integer-sequence range: plain bits plus at most one trit
// or quint per value.
type iseCoding struct {
	bits   int
	trits  bool
	quints bool
}

func (c iseCoding) bitCount(values int) int {
	n := values * c.bits
	if c.trits {
		n += (values*8 + 4) / 5
	}
	if c.quints {
		n += (values*7 + 2) / 3
	}
	return n
}

// iseValue is one decoded sequence value before unquantization: the plain
// bits and the trit or quint digit.
type iseValue struct {
	m  uint32
	tq uint32
}

func decodeISE(s *iseStream, count int, c iseCoding) []iseValue {
	out := make([]iseValue, count)
	switch {
	case c.trits:
		for i := 0; i < count; i += 5 {
			decodeTritGroup(s, out[i:], c.bits)
		}
	case c.quints:
		for i := 0; i < count; i += 3 {
			decodeQuintGroup(s, out[i:], c.bits)
		}
	default:
		for i := range out {
			out[i].m = s.next(c.bits)
		}
	}
	return out
}

// decodeTritGroup reads one interleaved group of up to five trit-coded
// values: m0 T1:0 m1 T3:2 m2 T4 m3 T6:5 m4 T7.
func decodeTritGroup(s *iseStream, out []iseValue, b int) {
	var m [5]uint32
	m[0] = s.next(b)
	t := s.next(2)
	m[1] = s.next(b)
	t |= s.next(2) << 2
	m[2] = s.next(b)
	t |= s.next(1) << 4
	m[3] = s.next(b)
	t |= s.next(2) << 5
	m[4] = s.next(b)
	t |= s.next(1) << 7

	trits := tritsFromT(t)
	for i := 0; i < len(out) && i < 5; i++ {
		out[i] = iseValue{m: m[i], tq: trits[i]}
	}
}

// decodeQuintGroup reads one interleaved group of up to three quint-coded
// values: m0 Q2:0 m1 Q4:3 m2 Q6:5.
func decodeQuintGroup(s *iseStream, out []iseValue, b int) {
	var m [3]uint32
	m[0] = s.next(b)
	q := s.next(3)
	m[1] = s.next(b)
	q |= s.next(2) << 3
	m[2] = s.next(b)
	q |= s.next(2) << 5

	quints := quintsFromQ(q)
	for i := 0; i < len(out) && i < 3; i++ {
		out[i] = iseValue{m: m[i], tq: quints[i]}
	}
}

// tritsFromT unpacks the shared 8-bit trit block into five trits, following
// the format's canonical bit manipulation.
func tritsFromT(t uint32) [5]uint32 {
	var out [5]uint32
	var c uint32
	if t>>2&7 == 7 {
		c = (t>>5&7)<<2 | t&3
		out[3], out[4] = 2, 2
	} else {
		c = t & 0x1F
		if t>>5&3 == 3 {
			out[4] = 2
			out[3] = t >> 7 & 1
		} else {
			out[4] = t >> 7 & 1
			out[3] = t >> 5 & 3
		}
	}
	switch {
	case c&3 == 3:
		out[2] = 2
		out[1] = c >> 2 & 1
		out[0] = (c>>4&1)<<1 | c>>3&1&^(c>>4&1)
	case c>>2&3 == 3:
		out[2] = 2
		out[1] = 2
		out[0] = c & 3
	default:
		out[2] = c >> 4 & 1
		out[1] = c >> 2 & 3
		out[0] = (c>>1&1)<<1 | c&1&^(c>>1&1)
	}
	return out
}

// quintsFromQ unpacks the shared 7-bit quint block into three quints.
func quintsFromQ(q uint32) [3]uint32 {
	var out [3]uint32
	if q>>1&3 == 3 && q>>5&3 == 0 {
		out[2] = (q&1)<<2 | (q>>4&1&^(q&1))<<1 | q>>3&1&^(q&1)
		out[1] = 4
		out[0] = 4
		return out
	}
	var c uint32
	if q>>1&3 == 3 {
		out[2] = 4
		c = (q>>3&3)<<3 | ((^q)>>5&3)<<1 | q&1
	} else {
		out[2] = q >> 5 & 3
		c = q & 0x1F
	}
	if c&7 == 5 {
		out[1] = 4
		out[0] = c >> 3 & 3
	} else {
		out[1] = c >> 3 & 3
		out[0] = c & 7
	}
	return out
}

// replicateBits widens an n-bit value to "to" bits by repeating its bit
// pattern downward.
func replicateBits(v uint32, n, to int) uint32 {
	var r uint32
	for shift := to - n; shift > -n; shift -= n {
		if shift >= 0 {
			r |= v << shift
		} else {
			r |= v >> -shift
		}
	}
	return r & (1<<to - 1)
}

// unquantColor maps one sequence value to an 8-bit color endpoint value.
func unquantColor(v iseValue, c iseCoding) uint8 {
	if !c.trits && !c.quints {
		return uint8(replicateBits(v.m, c.bits, 8))
	}

	var a uint32
	if v.m&1 != 0 {
		a = 0x1FF
	}
	b1 := v.m >> 1 & 1
	b2 := v.m >> 2 & 1
	b3 := v.m >> 3 & 1
	b4 := v.m >> 4 & 1
	b5 := v.m >> 5 & 1

	var mult, swiz uint32
	if c.trits {
		switch c.bits {
		case 1:
			mult = 204
		case 2:
			mult, swiz = 93, b1<<8|b1<<4|b1<<2|b1<<1
		case 3:
			mult, swiz = 44, b2<<8|b1<<7|b2<<3|b1<<2|b2<<1|b1
		case 4:
			mult, swiz = 22, b3<<8|b2<<7|b1<<6|b3<<2|b2<<1|b1
		case 5:
			mult, swiz = 11, b4<<8|b3<<7|b2<<6|b1<<5|b4<<1|b3
		case 6:
			mult, swiz = 5, b5<<8|b4<<7|b3<<6|b2<<5|b1<<4|b5
		}
	} else {
		switch c.bits {
		case 1:
			mult = 113
		case 2:
			mult, swiz = 54, b1<<8|b1<<3|b1<<2
		case 3:
			mult, swiz = 26, b2<<8|b1<<7|b2<<2|b1<<1|b2
		case 4:
			mult, swiz = 13, b3<<8|b2<<7|b1<<6|b3<<1|b2
		case 5:
			mult, swiz = 6, b4<<8|b3<<7|b2<<6|b1<<5|b4
		}
	}

	t := v.tq*mult + swiz
	t ^= a
	return uint8(a&0x80 | t>>2)
}

// unquantWeight maps one sequence value to a texel weight in 0..64.
func unquantWeight(v iseValue, c iseCoding) uint32 {
	var w uint32
	switch {
	case !c.trits && !c.quints:
		w = replicateBits(v.m, c.bits, 6)
	case c.trits && c.bits == 0:
		return [3]uint32{0, 32, 64}[v.tq]
	case c.quints && c.bits == 0:
		return [5]uint32{0, 16, 32, 48, 64}[v.tq]
	default:
		var a uint32
		if v.m&1 != 0 {
			a = 0x7F
		}
		b1 := v.m >> 1 & 1
		b2 := v.m >> 2 & 1

		var mult, swiz uint32
		if c.trits {
			switch c.bits {
			case 1:
				mult = 50
			case 2:
				mult, swiz = 23, b1<<6|b1<<2|b1
			case 3:
				mult, swiz = 11, b2<<6|b1<<5|b2<<1|b1
			}
		} else {
			switch c.bits {
			case 1:
				mult = 28
			case 2:
				mult, swiz = 13, b1<<6|b1<<1
			}
		}

		t := v.tq*mult + swiz
		t ^= a
		w = a&0x20 | t>>2
	}
	if w > 32 {
		w++
	}
	return w
}

// astcBlockMode is the decoded 11-bit block mode field.
type astcBlockMode struct {
	voidExtent bool
	gridW      int
	gridH      int
	dualPlane  bool
	weights    iseCoding
}

// low- and high-precision weight ranges indexed by the 3-bit r field (2..7).
var astcWeightCodings = [2][8]iseCoding{
	{
		2: {bits: 1},
		3: {trits: true},
		4: {bits: 2},
		5: {quints: true},
		6: {bits: 1, trits: true},
		7: {bits: 3},
	},
	{
		2: {bits: 1, quints: true},
		3: {bits: 2, trits: true},
		4: {bits: 4},
		5: {bits: 2, quints: true},
		6: {bits: 3, trits: true},
		7: {bits: 5},
	},
}

func decodeASTCBlockMode(b astcBits) (astcBlockMode, bool) {
	var m astcBlockMode
	if b.read(0, 9) == 0x1FC {
		m.voidExtent = true
		return m, true
	}
	if (b.read(0, 2) == 0 && b.read(6, 3) == 7) || b.read(0, 4) == 0 {
		return m, false
	}

	var r uint32
	zeroDH := false
	if b.read(0, 2) == 0 {
		r = b.read(3, 1)<<2 | b.read(2, 1)<<1 | b.read(4, 1)
		switch b.read(7, 2) {
		case 0:
			m.gridW = 12
			m.gridH = int(b.read(5, 2)) + 2
		case 1:
			m.gridW = int(b.read(5, 2)) + 2
			m.gridH = 12
		case 2:
			zeroDH = true
			m.gridW = int(b.read(5, 2)) + 6
			m.gridH = int(b.read(9, 2)) + 6
		case 3:
			if b.read(5, 1) == 0 {
				m.gridW, m.gridH = 6, 10
			} else {
				m.gridW, m.gridH = 10, 6
			}
		}
	} else {
		r = b.read(1, 1)<<2 | b.read(0, 1)<<1 | b.read(4, 1)
		a := int(b.read(5, 2))
		switch b.read(2, 2) {
		case 0:
			m.gridW = int(b.read(7, 2)) + 4
			m.gridH = a + 2
		case 1:
			m.gridW = int(b.read(7, 2)) + 8
			m.gridH = a + 2
		case 2:
			m.gridW = a + 2
			m.gridH = int(b.read(7, 2)) + 8
		case 3:
			if b.read(8, 1) == 0 {
				m.gridW = a + 2
				m.gridH = int(b.read(7, 1)) + 6
			} else {
				m.gridW = int(b.read(7, 1)) + 2
				m.gridH = a + 2
			}
		}
	}

	high := false
	if !zeroDH {
		high = b.read(9, 1) == 1
		m.dualPlane = b.read(10, 1) == 1
	}
	if high {
		m.weights = astcWeightCodings[1][r]
	} else {
		m.weights = astcWeightCodings[0][r]
	}
	return m, true
}

// isHDRMode reports whether a color endpoint mode is one of the HDR modes,
// which an LDR decoder renders as the error color.
func isHDRMode(cem uint32) bool {
	switch cem {
	case 2, 3, 7, 11, 14, 15:
		return true
	}
	return false
}

func fillASTC(out [][4]uint8, c [4]uint8) {
	for i := range out {
		out[i] = c
	}
}

func decodeASTCBlock(block []byte, bw, bh int, out [][4]uint8) {
	b := astcBlockBits(block[:16])

	mode, ok := decodeASTCBlockMode(b)
	if !ok {
		fillASTC(out, astcErrorColor)
		return
	}
	if mode.voidExtent {
		decodeASTCVoidExtent(b, out)
		return
	}
	if mode.gridW > bw || mode.gridH > bh {
		fillASTC(out, astcErrorColor)
		return
	}

	numPartitions := int(b.read(11, 2)) + 1
	if numPartitions == 4 && mode.dualPlane {
		fillASTC(out, astcErrorColor)
		return
	}

	planes := 1
	if mode.dualPlane {
		planes = 2
	}
	numWeights := mode.gridW * mode.gridH * planes
	weightBits := mode.weights.bitCount(numWeights)
	if numWeights > 64 || weightBits < 24 || weightBits > 96 {
		fillASTC(out, astcErrorColor)
		return
	}

	singleCEM := numPartitions == 1 || b.read(23, 2) == 0
	extraCemBits := 0
	if !singleCEM {
		extraCemBits = 3*numPartitions - 4
	}
	extraCemStart := 128 - weightBits - extraCemBits

	cems := decodeASTCCEMs(b, numPartitions, extraCemStart)
	numColorValues := 0
	for i := 0; i < numPartitions; i++ {
		if isHDRMode(cems[i]) {
			fillASTC(out, astcErrorColor)
			return
		}
		numColorValues += int(cems[i]>>2+1) * 2
	}
	if numColorValues > 18 {
		fillASTC(out, astcErrorColor)
		return
	}

	configBits := 17
	if numPartitions > 1 {
		if singleCEM {
			configBits = 29
		} else {
			configBits = 25 + 3*numPartitions
		}
	}
	if mode.dualPlane {
		configBits += 2
	}
	colorBits := 128 - weightBits - configBits

	colorCoding, ok := maxColorCoding(colorBits, numColorValues)
	if !ok {
		fillASTC(out, astcErrorColor)
		return
	}

	colorStart := 17
	if numPartitions > 1 {
		colorStart = 29
	}
	cs := &iseStream{bits: b, pos: colorStart, end: colorStart + colorBits}
	colorValues := make([]uint8, numColorValues)
	for i, v := range decodeISE(cs, numColorValues, colorCoding) {
		colorValues[i] = unquantColor(v, colorCoding)
	}

	var endpoints [4][2][4]uint8
	vOff := 0
	for i := 0; i < numPartitions; i++ {
		n := int(cems[i]>>2+1) * 2
		endpoints[i] = decodeASTCEndpoints(cems[i], colorValues[vOff:vOff+n])
		vOff += n
	}

	ws := &iseStream{bits: b.reversed(), end: weightBits}
	weights := make([]uint32, numWeights)
	for i, v := range decodeISE(ws, numWeights, mode.weights) {
		weights[i] = unquantWeight(v, mode.weights)
	}

	ccs := -1
	if mode.dualPlane {
		ccs = int(b.read(extraCemStart-2, 2))
	}

	seed := int(b.read(13, 10))
	small := bw*bh < 31
	for y := 0; y < bh; y++ {
		for x := 0; x < bw; x++ {
			part := 0
			if numPartitions > 1 {
				part = astcSelectPartition(seed, x, y, numPartitions, small)
			}
			e := endpoints[part]
			var px [4]uint8
			for ch := 0; ch < 4; ch++ {
				plane := 0
				if ch == ccs {
					plane = 1
				}
				w := astcInterpWeight(weights, mode, planes, plane, x, y, bw, bh)
				c0 := uint32(e[0][ch])<<8 | uint32(e[0][ch])
				c1 := uint32(e[1][ch])<<8 | uint32(e[1][ch])
				px[ch] = uint8((c0*(64-w) + c1*w + 32) >> 6 >> 8)
			}
			out[y*bw+x] = px
		}
	}
}

func decodeASTCVoidExtent(b astcBits, out [][4]uint8) {
	if b.read(9, 1) == 1 {
		// HDR void extent; not representable in the LDR profile.
		fillASTC(out, astcErrorColor)
		return
	}
	minS := b.read(12, 13)
	maxS := b.read(25, 13)
	minT := b.read(38, 13)
	maxT := b.read(51, 13)
	allOnes := minS == 0x1FFF && maxS == 0x1FFF && minT == 0x1FFF && maxT == 0x1FFF
	if !allOnes && (minS >= maxS || minT >= maxT) {
		fillASTC(out, astcErrorColor)
		return
	}
	fillASTC(out, [4]uint8{
		uint8(b.read(64, 16) >> 8),
		uint8(b.read(80, 16) >> 8),
		uint8(b.read(96, 16) >> 8),
		uint8(b.read(112, 16) >> 8),
	})
}

// decodeASTCCEMs reads the color endpoint mode of each partition. In the
// multi-partition split encoding the class selector sits at bits 23..24 and
// the per-partition bits spill from bit 25 into the area just below the
// weight data.
func decodeASTCCEMs(b astcBits, numPartitions, extraCemStart int) [4]uint32 {
	var cems [4]uint32
	if numPartitions == 1 {
		cems[0] = b.read(13, 4)
		return cems
	}

	sel := b.read(23, 2)
	if sel == 0 {
		m := b.read(25, 4)
		for i := 0; i < numPartitions; i++ {
			cems[i] = m
		}
		return cems
	}

	extraBit := func(pos int) uint32 {
		if pos < 4 {
			return b.read(25+pos, 1)
		}
		return b.read(extraCemStart+pos-4, 1)
	}
	for i := 0; i < numPartitions; i++ {
		class := sel - 1 + extraBit(i)
		lo := extraBit(numPartitions + 2*i)
		hi := extraBit(numPartitions + 2*i + 1)
		cems[i] = class*4 + hi<<1 + lo
	}
	return cems
}

// color endpoint ranges in decreasing order of precision; the encoder uses
// the largest one whose sequence fits the bits left over for color data.
var astcColorCodings = []iseCoding{
	{bits: 8},
	{bits: 6, trits: true},
	{bits: 5, quints: true},
	{bits: 7},
	{bits: 5, trits: true},
	{bits: 4, quints: true},
	{bits: 6},
	{bits: 4, trits: true},
	{bits: 3, quints: true},
	{bits: 5},
	{bits: 3, trits: true},
	{bits: 2, quints: true},
	{bits: 4},
	{bits: 2, trits: true},
	{bits: 1, quints: true},
	{bits: 3},
	{bits: 1, trits: true},
}

func maxColorCoding(availableBits, numValues int) (iseCoding, bool) {
	for _, c := range astcColorCodings {
		if c.bitCount(numValues) <= availableBits {
			return c, true
		}
	}
	return iseCoding{}, false
}

func clamp255(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// bitTransferSigned converts a base/offset value pair: the offset becomes a
// signed 6-bit delta and its top bit moves onto the base.
func bitTransferSigned(offset, base int) (int, int) {
	base = base>>1 | offset&0x80
	offset = offset >> 1 & 0x3F
	if offset&0x20 != 0 {
		offset -= 0x40
	}
	return offset, base
}

func blueContract(r, g, b, a int) [4]uint8 {
	return [4]uint8{clamp255((r + b) >> 1), clamp255((g + b) >> 1), clamp255(b), clamp255(a)}
}

// decodeASTCEndpoints expands one partition's unquantized color values into
// its two RGBA endpoints according to the LDR color endpoint mode.
func decodeASTCEndpoints(cem uint32, values []uint8) [2][4]uint8 {
	v := make([]int, 8)
	for i := range values {
		v[i] = int(values[i])
	}

	rgba := func(r, g, b, a int) [4]uint8 {
		return [4]uint8{clamp255(r), clamp255(g), clamp255(b), clamp255(a)}
	}

	switch cem {
	case 0: // luminance
		return [2][4]uint8{rgba(v[0], v[0], v[0], 255), rgba(v[1], v[1], v[1], 255)}

	case 1: // luminance, base+offset
		l0 := v[0]>>2 | v[1]&0xC0
		l1 := l0 + v[1]&0x3F
		return [2][4]uint8{rgba(l0, l0, l0, 255), rgba(l1, l1, l1, 255)}

	case 4: // luminance+alpha
		return [2][4]uint8{rgba(v[0], v[0], v[0], v[2]), rgba(v[1], v[1], v[1], v[3])}

	case 5: // luminance+alpha, base+offset
		o1, b1 := bitTransferSigned(v[1], v[0])
		o3, b3 := bitTransferSigned(v[3], v[2])
		return [2][4]uint8{rgba(b1, b1, b1, b3), rgba(b1+o1, b1+o1, b1+o1, b3+o3)}

	case 6: // RGB, base+scale
		return [2][4]uint8{
			rgba(v[0]*v[3]>>8, v[1]*v[3]>>8, v[2]*v[3]>>8, 255),
			rgba(v[0], v[1], v[2], 255),
		}

	case 8: // RGB
		if v[1]+v[3]+v[5] >= v[0]+v[2]+v[4] {
			return [2][4]uint8{rgba(v[0], v[2], v[4], 255), rgba(v[1], v[3], v[5], 255)}
		}
		return [2][4]uint8{blueContract(v[1], v[3], v[5], 255), blueContract(v[0], v[2], v[4], 255)}

	case 9: // RGB, base+offset
		o0, b0 := bitTransferSigned(v[1], v[0])
		o2, b2 := bitTransferSigned(v[3], v[2])
		o4, b4 := bitTransferSigned(v[5], v[4])
		if o0+o2+o4 >= 0 {
			return [2][4]uint8{rgba(b0, b2, b4, 255), rgba(b0+o0, b2+o2, b4+o4, 255)}
		}
		return [2][4]uint8{blueContract(b0+o0, b2+o2, b4+o4, 255), blueContract(b0, b2, b4, 255)}

	case 10: // RGB, base+scale, two alphas
		return [2][4]uint8{
			rgba(v[0]*v[3]>>8, v[1]*v[3]>>8, v[2]*v[3]>>8, v[4]),
			rgba(v[0], v[1], v[2], v[5]),
		}

	case 12: // RGBA
		if v[1]+v[3]+v[5] >= v[0]+v[2]+v[4] {
			return [2][4]uint8{rgba(v[0], v[2], v[4], v[6]), rgba(v[1], v[3], v[5], v[7])}
		}
		return [2][4]uint8{blueContract(v[1], v[3], v[5], v[7]), blueContract(v[0], v[2], v[4], v[6])}

	case 13: // RGBA, base+offset
		o0, b0 := bitTransferSigned(v[1], v[0])
		o2, b2 := bitTransferSigned(v[3], v[2])
		o4, b4 := bitTransferSigned(v[5], v[4])
		o6, b6 := bitTransferSigned(v[7], v[6])
		if o0+o2+o4 >= 0 {
			return [2][4]uint8{rgba(b0, b2, b4, b6), rgba(b0+o0, b2+o2, b4+o4, b6+o6)}
		}
		return [2][4]uint8{blueContract(b0+o0, b2+o2, b4+o4, b6+o6), blueContract(b0, b2, b4, b6)}

	default:
		return [2][4]uint8{astcErrorColor, astcErrorColor}
	}
}

// astcInterpWeight bilinearly infills the weight grid onto block texel
// (x, y) per the format's fixed-point procedure.
func astcInterpWeight(weights []uint32, mode astcBlockMode, planes, plane, x, y, bw, bh int) uint32 {
	at := func(gx, gy int) uint32 {
		if gx >= mode.gridW || gy >= mode.gridH {
			return 0
		}
		return weights[(gy*mode.gridW+gx)*planes+plane]
	}

	ds := (1024 + bw/2) / (bw - 1)
	dt := (1024 + bh/2) / (bh - 1)
	gs := uint32(ds*x*(mode.gridW-1)+32) >> 6
	gt := uint32(dt*y*(mode.gridH-1)+32) >> 6
	js, fs := int(gs>>4), gs&0xF
	jt, ft := int(gt>>4), gt&0xF

	w11 := (fs*ft + 8) >> 4
	w10 := ft - w11
	w01 := fs - w11
	w00 := 16 - fs - ft + w11

	p := at(js, jt)*w00 + at(js+1, jt)*w01 + at(js, jt+1)*w10 + at(js+1, jt+1)*w11
	return (p + 8) >> 4
}

// astcSelectPartition is the format's partition selection hash.
func astcSelectPartition(seed, x, y, partitionCount int, smallBlock bool) int {
	if smallBlock {
		x <<= 1
		y <<= 1
	}
	seed += (partitionCount - 1) * 1024
	rnum := astcHash52(uint32(seed))

	s1 := (rnum & 0xF) * (rnum & 0xF)
	s2 := (rnum >> 4 & 0xF) * (rnum >> 4 & 0xF)
	s3 := (rnum >> 8 & 0xF) * (rnum >> 8 & 0xF)
	s4 := (rnum >> 12 & 0xF) * (rnum >> 12 & 0xF)
	s5 := (rnum >> 16 & 0xF) * (rnum >> 16 & 0xF)
	s6 := (rnum >> 20 & 0xF) * (rnum >> 20 & 0xF)
	s7 := (rnum >> 24 & 0xF) * (rnum >> 24 & 0xF)
	s8 := (rnum >> 28 & 0xF) * (rnum >> 28 & 0xF)

	var sh1, sh2 uint
	if seed&1 != 0 {
		if seed&2 != 0 {
			sh1 = 4
		} else {
			sh1 = 5
		}
		if partitionCount == 3 {
			sh2 = 6
		} else {
			sh2 = 5
		}
	} else {
		if partitionCount == 3 {
			sh1 = 6
		} else {
			sh1 = 5
		}
		if seed&2 != 0 {
			sh2 = 4
		} else {
			sh2 = 5
		}
	}

	s1 >>= sh1
	s2 >>= sh2
	s3 >>= sh1
	s4 >>= sh2
	s5 >>= sh1
	s6 >>= sh2
	s7 >>= sh1
	s8 >>= sh2

	ux, uy := uint32(x), uint32(y)
	a := (s1*ux + s2*uy + rnum>>14) & 0x3F
	b := (s3*ux + s4*uy + rnum>>10) & 0x3F
	c := (s5*ux + s6*uy + rnum>>6) & 0x3F
	d := (s7*ux + s8*uy + rnum>>2) & 0x3F

	if partitionCount <= 3 {
		d = 0
	}
	if partitionCount <= 2 {
		c = 0
	}

	switch {
	case a >= b && a >= c && a >= d:
		return 0
	case b >= c && b >= d:
		return 1
	case c >= d:
		return 2
	default:
		return 3
	}
}

func astcHash52(p uint32) uint32 {
	p ^= p >> 15
	p -= p << 17
	p += p << 7
	p += p << 4
	p ^= p >> 5
	p += p << 16
	p ^= p >> 7
	p ^= p >> 3
	p ^= p << 6
	p ^= p >> 17
	return p
}
