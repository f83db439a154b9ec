// Package export turns decoded sprites into files on disk, handling name
// collisions and PNG encoding.
package export

import (
	"image"
	"path"
	"strings"
)

// Sprite is one decoded sprite ready to be written out.
type Sprite struct {
	Name  string
	Image *image.NRGBA
}

// BaseName strips the directory and extension from an atlas frame name,
// so "UI/icons/sword.png" becomes "sword".
func BaseName(frameName string) string {
	base := path.Base(frameName)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		base = "sprite"
	}
	return base
}
