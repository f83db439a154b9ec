package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressDisabledIsNoOp(t *testing.T) {
	t.Parallel()

	p := NewProgress(5, false)
	p.Update(1, "ui/atlas_a.plist")
	p.Finish()
}

func TestProgressLabelTruncatesFromFront(t *testing.T) {
	t.Parallel()

	p := &Progress{label: "ui/atlas_a.plist"}
	assert.Equal(t, "ui/atlas_a.plist", p.currentLabel())

	long := "data/ui/spriteatlas/atlas_castle_interior_a.plist"
	p.label = long
	got := p.currentLabel()
	assert.Len(t, got, labelWidth)
	assert.Equal(t, ".."+long[len(long)-(labelWidth-2):], got)
}
