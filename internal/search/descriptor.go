// Package search maintains a perceptual-hash index over an extracted
// sprite directory and answers visual similarity queries against it.
package search

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/corona10/goimagehash"
)

// Descriptor is a sprite's perceptual signature: a DCT perception hash
// and an average hash, 64 bits each. Two identical images always produce
// identical descriptors.
type Descriptor struct {
	PHash uint64
	AHash uint64
}

// Describe computes the descriptor of an image.
func Describe(img image.Image) (Descriptor, error) {
	p, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return Descriptor{}, fmt.Errorf("perception hash: %w", err)
	}
	a, err := goimagehash.AverageHash(img)
	if err != nil {
		return Descriptor{}, fmt.Errorf("average hash: %w", err)
	}
	return Descriptor{PHash: p.GetHash(), AHash: a.GetHash()}, nil
}

// Distance is the combined Hamming distance between two descriptors.
// Symmetric; zero for identical descriptors.
func (d Descriptor) Distance(o Descriptor) int {
	return bits.OnesCount64(d.PHash^o.PHash) + bits.OnesCount64(d.AHash^o.AHash)
}
