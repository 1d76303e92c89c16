package imaging

import "math"

// round rounds half up, the same way for negative and positive values.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// round32 rounds a single precision product, matching float32 arithmetic
// in the conversion factors below.
func round32(v float32) int {
	return round(float64(v))
}

// RationalToDPI converts a rational resolution to whole units, rounding
// towards negative infinity. A zero denominator yields 0.
func RationalToDPI(num, den uint32) int {
	if den == 0 {
		return 0
	}
	return int(num / den)
}

// DPIToRational returns the rational form of dpi.
func DPIToRational(dpi int) (num, den uint32) {
	return uint32(dpi), 1
}

// DPCMToDPI converts dots per centimetre to dots per inch.
func DPCMToDPI(dpcm int) int {
	return round32(float32(dpcm) * 2.54)
}

// PPMToDPI converts pixels per metre to dots per inch.
func PPMToDPI(ppm uint32) int {
	return round32(float32(ppm) * 0.0254)
}

// DPIToPPM converts dots per inch to pixels per metre.
func DPIToPPM(dpi int) uint32 {
	return uint32(round(float64(dpi) / 0.0254))
}

// DPIToPixelsPerMM converts dots per inch to pixels per millimetre.
func DPIToPixelsPerMM(dpi int) float64 {
	return float64(dpi) / 25.4
}

// PixelSizeToDPI converts a generic pixel size value to DPI as round(25.4 * v).
// The value is used as found, whatever unit the source stored it in.
func PixelSizeToDPI(v float64) int {
	return round(25.4 * v)
}
