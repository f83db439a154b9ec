package export

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
)

// ErrEncoding wraps failures to serialize or write a sprite image.
var ErrEncoding = errors.New("encoding sprite")

// Encoder writes one sprite into a directory and returns the path of the
// file it created.
type Encoder interface {
	Encode(dir string, sprite Sprite) (string, error)
}

// PNGEncoder writes sprites as PNG files named <Name>.png.
type PNGEncoder struct{}

func (PNGEncoder) Encode(dir string, sprite Sprite) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	outPath := filepath.Join(dir, sprite.Name+".png")
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	if err := png.Encode(f, sprite.Image); err != nil {
		f.Close()
		os.Remove(outPath)
		return "", fmt.Errorf("%w: %s: %v", ErrEncoding, sprite.Name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrEncoding, sprite.Name, err)
	}
	return outPath, nil
}
