// Package tiffmeta decodes and encodes TIFF streams together with the
// metadata fields of their first image file directory.
package tiffmeta

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/tiff"
)

// Decode reads a TIFF stream and returns its raster and IFD0.
func Decode(r io.Reader) (image.Image, *Directory, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	dir, err := ParseDirectory(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("directory: %w", err)
	}
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return img, dir, nil
}
