package imaging

import (
	"bytes"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

// hasAlpha reports whether the colour model of img carries an alpha
// channel. Premultiplied RGBA buffers are what the decoders return for
// truecolor streams without alpha, so for those the pixels decide.
func hasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16, *image.YCbCr, *image.CMYK:
		return false
	case *image.NRGBA, *image.NRGBA64, *image.Alpha, *image.Alpha16, *image.NYCbCrA:
		return true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xFFFF {
				return true
			}
		}
		return false
	case *image.RGBA, *image.RGBA64:
		return !m.(interface{ Opaque() bool }).Opaque()
	}

	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model, color.YCbCrModel, color.CMYKModel:
		return false
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

// cloneRaster returns a deep copy of img keeping its concrete type.
// Unknown types are copied into a 16-bit NRGBA buffer.
func cloneRaster(img image.Image) image.Image {
	switch m := img.(type) {
	case *image.Gray:
		c := *m
		c.Pix = bytes.Clone(m.Pix)
		return &c
	case *image.Gray16:
		c := *m
		c.Pix = bytes.Clone(m.Pix)
		return &c
	case *image.RGBA:
		c := *m
		c.Pix = bytes.Clone(m.Pix)
		return &c
	case *image.RGBA64:
		c := *m
		c.Pix = bytes.Clone(m.Pix)
		return &c
	case *image.NRGBA:
		c := *m
		c.Pix = bytes.Clone(m.Pix)
		return &c
	case *image.NRGBA64:
		c := *m
		c.Pix = bytes.Clone(m.Pix)
		return &c
	case *image.Alpha:
		c := *m
		c.Pix = bytes.Clone(m.Pix)
		return &c
	case *image.Alpha16:
		c := *m
		c.Pix = bytes.Clone(m.Pix)
		return &c
	case *image.CMYK:
		c := *m
		c.Pix = bytes.Clone(m.Pix)
		return &c
	case *image.Paletted:
		c := *m
		c.Pix = bytes.Clone(m.Pix)
		c.Palette = append(color.Palette(nil), m.Palette...)
		return &c
	case *image.YCbCr:
		c := *m
		c.Y = bytes.Clone(m.Y)
		c.Cb = bytes.Clone(m.Cb)
		c.Cr = bytes.Clone(m.Cr)
		return &c
	case *image.NYCbCrA:
		c := *m
		c.Y = bytes.Clone(m.Y)
		c.Cb = bytes.Clone(m.Cb)
		c.Cr = bytes.Clone(m.Cr)
		c.A = bytes.Clone(m.A)
		return &c
	}

	b := img.Bounds()
	dst := image.NewNRGBA64(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

// flatten composites img over an opaque background.
func flatten(img image.Image, bg color.RGBA) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// toNRGBA copies img into a non-premultiplied buffer keeping its alpha.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func opaqueColor(c color.Color) color.RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return color.RGBA{R: n.R, G: n.G, B: n.B, A: 0xFF}
}
