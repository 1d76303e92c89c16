package imaging

import (
	"image"
	"io"
)

// extracted is the logical metadata found in a container.
type extracted struct {
	res      int
	profile  []byte
	xmp      []byte
	warnings []error
}

func (m *extracted) warn(t ContainerType, field string, err error) {
	m.warnings = append(m.warnings, &MetadataError{Container: t, Field: field, Err: err})
}

// injected is the logical metadata to embed on write.
type injected struct {
	res         int
	profile     []byte
	profileName string
	xmp         []byte
	opts        *WriteOptions
}

type codec interface {
	read(r io.Reader) (image.Image, *extracted, error)
	write(w io.Writer, img image.Image, in *injected) error
}

// formatCodec binds the raster codec of a container to the extractor and
// injector working on its structural metadata tree T.
type formatCodec[T any] struct {
	decode      func(r io.Reader) (image.Image, T, error)
	extract     func(tree T) *extracted
	defaultTree func() T
	inject      func(tree T, in *injected) error
	encode      func(w io.Writer, img image.Image, tree T, opts *WriteOptions) error
}

func (c formatCodec[T]) read(r io.Reader) (image.Image, *extracted, error) {
	img, tree, err := c.decode(r)
	if err != nil {
		return nil, nil, err
	}
	return img, c.extract(tree), nil
}

func (c formatCodec[T]) write(w io.Writer, img image.Image, in *injected) error {
	tree := c.defaultTree()
	if err := c.inject(tree, in); err != nil {
		return err
	}
	return c.encode(w, img, tree, in.opts)
}

var codecs = map[ContainerType]codec{
	JPEG: jpegCodec,
	TIFF: tiffCodec,
	PNG:  pngCodec,
}
