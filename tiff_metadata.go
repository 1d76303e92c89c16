package imaging

import (
	"image"
	"io"

	"github.com/rwcarlsen/goexif/tiff"
	"github.com/vearutop/imaging/internal/tiffmeta"
)

var tiffCodec = formatCodec[*tiffmeta.Directory]{
	decode:      tiffmeta.Decode,
	extract:     extractTIFF,
	defaultTree: tiffmeta.DefaultDirectory,
	inject:      injectTIFF,
	encode: func(w io.Writer, img image.Image, dir *tiffmeta.Directory, _ *WriteOptions) error {
		return tiffmeta.Encode(w, img, dir)
	},
}

func extractTIFF(dir *tiffmeta.Directory) *extracted {
	m := &extracted{}
	applyDirectory(TIFF, dir, m)
	return m
}

// applyDirectory reads XMP, resolution and profile fields of a TIFF
// directory into m, overriding values found before.
func applyDirectory(t ContainerType, dir *tiffmeta.Directory, m *extracted) {
	if b, ok := dir.Bytes(tiffmeta.TagXMP); ok {
		m.xmp = b
	}

	if num, den, ok := dir.Rational(tiffmeta.TagXResolution); ok {
		if den == 0 {
			m.warn(t, "resolution", errZeroDenom)
		} else {
			res := RationalToDPI(num, den)
			if unit, ok := dir.Short(tiffmeta.TagResolutionUnit); ok && unit == tiffmeta.UnitCentimeter {
				res = DPCMToDPI(res)
			}
			m.res = res
		}
	}

	if b, ok := dir.Bytes(tiffmeta.TagICCProfile); ok {
		m.profile = b
	}
}

func injectTIFF(dir *tiffmeta.Directory, in *injected) error {
	dir.SetBytes(tiffmeta.TagXMP, tiff.DTByte, in.xmp)

	num, den := DPIToRational(in.res)
	dir.SetRational(tiffmeta.TagXResolution, num, den)
	dir.SetRational(tiffmeta.TagYResolution, num, den)
	dir.SetShort(tiffmeta.TagResolutionUnit, tiffmeta.UnitInch)

	if len(in.profile) > 0 {
		dir.SetBytes(tiffmeta.TagICCProfile, tiff.DTUndefined, in.profile)
	}

	dir.SetShort(tiffmeta.TagCompression, in.opts.TIFFCompression.tag())

	return nil
}

func (c TIFFCompression) tag() uint16 {
	switch c {
	case TIFFDeflate:
		return tiffmeta.CompressionDeflate
	case TIFFNone:
		return tiffmeta.CompressionNone
	default:
		return tiffmeta.CompressionLZW
	}
}
