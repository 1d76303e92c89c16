package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"

	"github.com/vearutop/imaging/icc"
	"github.com/vearutop/imaging/xmp"
)

// ReadOptions controls Read.
type ReadOptions struct {
	// Logger receives debug records about recovered metadata problems.
	Logger *slog.Logger
}

// Image is a decoded raster together with its logical metadata.
//
// Mutators change the Image in place and return it for chaining.
// An Image is not safe for concurrent use.
type Image struct {
	raster     image.Image
	alpha      bool
	profile    *icc.Profile
	res        int
	xmp        *xmp.Document
	background color.RGBA
	container  ContainerType
	warnings   []error
	logger     *slog.Logger
}

// Read decodes an image of container type t from r.
//
// Metadata problems do not fail the read: the affected fields keep their
// defaults and the problems are available from Warnings.
func Read(r io.Reader, t ContainerType, opts ...func(o *ReadOptions)) (*Image, error) {
	opt := ReadOptions{Logger: slog.Default()}
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}

	c, ok := codecs[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContainer, t)
	}

	raster, m, err := c.read(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, t, err)
	}

	img := &Image{
		raster:     raster,
		alpha:      hasAlpha(raster),
		res:        m.res,
		background: white,
		container:  t,
		warnings:   m.warnings,
		logger:     opt.Logger,
	}

	if len(m.profile) > 0 {
		p, err := icc.Decode(m.profile)
		if err != nil {
			img.warnings = append(img.warnings, &MetadataError{Container: t, Field: "icc", Err: err})
		} else {
			img.profile = p
		}
	}

	doc, err := decodeXMPPacket(t, m.xmp)
	if err != nil {
		img.warnings = append(img.warnings, err)
	}
	img.xmp = doc

	if img.res <= 0 {
		img.res = DefaultRes
	}

	for _, w := range img.warnings {
		img.logger.Debug("recovered metadata problem", "container", t, "error", w)
	}

	return img, nil
}

// ReadFile decodes the image stored at path.
func ReadFile(path string, t ContainerType, opts ...func(o *ReadOptions)) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f, t, opts...)
}

// New wraps an in-memory raster. Metadata starts at defaults: 72 DPI,
// no profile, empty XMP and a white background.
func New(raster image.Image, t ContainerType) (*Image, error) {
	if raster == nil {
		return nil, errors.New("nil raster")
	}
	if _, ok := codecs[t]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContainer, t)
	}
	return &Image{
		raster:     raster,
		alpha:      hasAlpha(raster),
		res:        DefaultRes,
		xmp:        xmp.NewDocument(),
		background: white,
		container:  t,
		logger:     slog.Default(),
	}, nil
}

// Clone returns a copy with its own exact copy of the raster. With ShareXMP both images refer
// to the same XMP document; use CopyXMP for an independent one.
func (img *Image) Clone(mode CloneMode) *Image {
	c := *img
	c.raster = cloneRaster(img.raster)
	if mode == CopyXMP {
		c.xmp = img.xmp.Clone()
	}
	c.warnings = append([]error(nil), img.warnings...)
	return &c
}

// Container returns the type the image was read as.
func (img *Image) Container() ContainerType {
	return img.container
}

// Raster returns the current pixels.
func (img *Image) Raster() image.Image {
	return img.raster
}

// Bounds returns the raster bounds.
func (img *Image) Bounds() image.Rectangle {
	return img.raster.Bounds()
}

// HasAlpha reports whether the raster carries an alpha channel.
func (img *Image) HasAlpha() bool {
	return img.alpha
}

// Profile returns the embedded ICC profile or nil.
func (img *Image) Profile() *icc.Profile {
	return img.profile
}

// SetProfile replaces the ICC profile, nil removes it.
func (img *Image) SetProfile(p *icc.Profile) *Image {
	img.profile = p
	return img
}

// SetProfileBytes decodes and sets an ICC profile, empty data removes it.
func (img *Image) SetProfileBytes(data []byte) error {
	if len(data) == 0 {
		img.profile = nil
		return nil
	}
	p, err := icc.Decode(data)
	if err != nil {
		return err
	}
	img.profile = p
	return nil
}

// Res returns the resolution in DPI.
func (img *Image) Res() int {
	return img.res
}

// SetRes sets the resolution in DPI. Values below 1 reset it to DefaultRes.
func (img *Image) SetRes(dpi int) *Image {
	if dpi <= 0 {
		dpi = DefaultRes
	}
	img.res = dpi
	return img
}

// XMP returns the XMP document, never nil.
func (img *Image) XMP() *xmp.Document {
	return img.xmp
}

// SetXMP replaces the XMP document. A nil document is replaced with an
// empty one.
func (img *Image) SetXMP(doc *xmp.Document) *Image {
	if doc == nil {
		doc = xmp.NewDocument()
	}
	img.xmp = doc
	return img
}

// ClearXMP replaces the XMP document with an empty one and returns it.
func (img *Image) ClearXMP() *xmp.Document {
	img.xmp = xmp.NewDocument()
	return img.xmp
}

// XMPString serializes the XMP document in pretty form. Serialization
// failures are reported in the returned text.
func (img *Image) XMPString() string {
	b, err := xmp.Serialize(img.xmp, false)
	if err != nil {
		return "Error serializing XMP [" + err.Error() + "]."
	}
	return string(b)
}

// Background returns the colour used when flattening.
func (img *Image) Background() color.RGBA {
	return img.background
}

// SetBackground sets the colour used when flattening. Alpha is ignored.
func (img *Image) SetBackground(c color.Color) *Image {
	img.background = opaqueColor(c)
	return img
}

// Normalize converts the raster to 8-bit RGB, keeping alpha in a
// non-premultiplied buffer unless removeAlpha is set or the raster has no
// alpha channel, in which case it is flattened onto the background.
func (img *Image) Normalize(removeAlpha bool) *Image {
	if removeAlpha || !img.alpha {
		img.raster = flatten(img.raster, img.background)
		img.alpha = false
	} else {
		img.raster = toNRGBA(img.raster)
	}
	return img
}

// RemoveAlpha flattens the raster onto the background colour.
func (img *Image) RemoveAlpha() *Image {
	return img.Normalize(true)
}

// Warnings returns the recovered metadata problems found by Read.
func (img *Image) Warnings() []error {
	return img.warnings
}
