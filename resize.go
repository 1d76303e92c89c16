package imaging

import (
	"image"

	"github.com/nfnt/resize"
)

// Interpolation selects the resampling kernel used when scaling.
type Interpolation int

const (
	// InterpolationLanczos3 is Lanczos sampling with a=3.
	InterpolationLanczos3 Interpolation = iota
	// InterpolationLanczos2 is Lanczos sampling with a=2.
	InterpolationLanczos2
	// InterpolationMitchellNetravali is Mitchell-Netravali sampling.
	InterpolationMitchellNetravali
	// InterpolationBicubic is cubic sampling.
	InterpolationBicubic
	// InterpolationBilinear is linear sampling.
	InterpolationBilinear
	// InterpolationNearest is nearest-neighbor sampling.
	InterpolationNearest
)

func (i Interpolation) function() resize.InterpolationFunction {
	switch i {
	case InterpolationNearest:
		return resize.NearestNeighbor
	case InterpolationBilinear:
		return resize.Bilinear
	case InterpolationBicubic:
		return resize.Bicubic
	case InterpolationMitchellNetravali:
		return resize.MitchellNetravali
	case InterpolationLanczos2:
		return resize.Lanczos2
	default:
		return resize.Lanczos3
	}
}

// scale resamples src to exactly w by h pixels.
func scale(src image.Image, w, h int, interp Interpolation) image.Image {
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return src
	}
	return resize.Resize(uint(w), uint(h), src, interp.function())
}
