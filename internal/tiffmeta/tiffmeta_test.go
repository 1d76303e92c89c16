package tiffmeta

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/rwcarlsen/goexif/tiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgbImage(alpha uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 5, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(50 * x), G: uint8(80 * y), B: 7, A: alpha})
		}
	}
	return img
}

func TestEncodeDecode(t *testing.T) {
	for _, c := range []struct {
		name        string
		compression uint16
		alpha       uint8
	}{
		{name: "none", compression: CompressionNone, alpha: 255},
		{name: "lzw", compression: CompressionLZW, alpha: 255},
		{name: "deflate", compression: CompressionDeflate, alpha: 255},
		{name: "lzw alpha", compression: CompressionLZW, alpha: 100},
	} {
		c := c
		t.Run(c.name, func(t *testing.T) {
			src := rgbImage(c.alpha)

			dir := DefaultDirectory()
			dir.SetBytes(TagXMP, tiff.DTByte, []byte("<?xpacket begin?>"))
			dir.SetRational(TagXResolution, 300, 1)
			dir.SetRational(TagYResolution, 300, 1)
			dir.SetShort(TagResolutionUnit, UnitInch)
			dir.SetBytes(TagICCProfile, tiff.DTUndefined, []byte("icc data"))
			dir.SetShort(TagCompression, c.compression)

			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, src, dir))

			img, got, err := Decode(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, src.Bounds(), img.Bounds())

			for y := 0; y < 3; y++ {
				for x := 0; x < 5; x++ {
					want := src.NRGBAAt(x, y)
					have := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
					require.Equal(t, want, have, "pixel %d,%d", x, y)
				}
			}

			xmp, ok := got.Bytes(TagXMP)
			require.True(t, ok)
			assert.Equal(t, "<?xpacket begin?>", string(xmp))

			num, den, ok := got.Rational(TagXResolution)
			require.True(t, ok)
			assert.Equal(t, [2]uint32{300, 1}, [2]uint32{num, den})

			unit, ok := got.Short(TagResolutionUnit)
			require.True(t, ok)
			assert.Equal(t, UnitInch, unit)

			comp, ok := got.Short(TagCompression)
			require.True(t, ok)
			assert.Equal(t, c.compression, comp)

			icc, _ := got.Bytes(TagICCProfile)
			assert.Equal(t, "icc data", string(icc))
		})
	}
}

func TestEncodeGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 2))
	src.SetGray(1, 1, color.Gray{Y: 200})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, src, DefaultDirectory()))

	img, _, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, color.Gray{Y: 200}, color.GrayModel.Convert(img.At(1, 1)))
}

func TestEncodeSwapsByteOrder(t *testing.T) {
	dir := &Directory{Order: binary.BigEndian, fields: make(map[uint16]Field)}
	dir.SetRational(TagXResolution, 72, 1)
	dir.SetShort(TagResolutionUnit, UnitCentimeter)
	dir.SetShort(tagImageWidth, 9999) // layout fields are rebuilt

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, rgbImage(255), dir))

	got, err := ParseDirectory(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, binary.LittleEndian, got.Order)

	num, den, ok := got.Rational(TagXResolution)
	require.True(t, ok)
	assert.Equal(t, uint32(72), num)
	assert.Equal(t, uint32(1), den)

	unit, _ := got.Short(TagResolutionUnit)
	assert.Equal(t, UnitCentimeter, unit)

	width, _ := got.Short(tagImageWidth)
	assert.Equal(t, uint16(5), width)
}

func TestEncodeUnsupportedCompression(t *testing.T) {
	dir := DefaultDirectory()
	dir.SetShort(TagCompression, 7)
	assert.Error(t, Encode(&bytes.Buffer{}, rgbImage(255), dir))
}

func TestParseExif(t *testing.T) {
	dir := DefaultDirectory()
	dir.SetRational(TagXResolution, 254, 1)

	var buf bytes.Buffer
	buf.Write(exifSig)
	require.NoError(t, Encode(&buf, rgbImage(255), dir))

	assert.True(t, IsExif(buf.Bytes()))
	got, err := ParseExif(buf.Bytes())
	require.NoError(t, err)
	num, _, ok := got.Rational(TagXResolution)
	require.True(t, ok)
	assert.Equal(t, uint32(254), num)

	_, err = ParseExif([]byte("nope"))
	assert.Error(t, err)
}

func TestDirectoryAccessors(t *testing.T) {
	dir := DefaultDirectory()
	_, ok := dir.Short(TagResolutionUnit)
	assert.False(t, ok)

	dir.SetBytes(TagXResolution, tiff.DTByte, []byte{1})
	_, _, ok = dir.Rational(TagXResolution)
	assert.False(t, ok, "wrong type must not be read as rational")

	dir.Delete(TagXResolution)
	assert.Empty(t, dir.Tags())
}
