package tiffmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"sort"

	"github.com/hhrutter/lzw"
	"github.com/klauspost/compress/zlib"
	"github.com/rwcarlsen/goexif/tiff"
	"golang.org/x/exp/maps"
	"golang.org/x/image/draw"
)

// Compression schemes supported on write.
const (
	CompressionNone    uint16 = 1
	CompressionLZW     uint16 = 5
	CompressionDeflate uint16 = 8
)

const (
	tagImageWidth      uint16 = 256
	tagImageLength     uint16 = 257
	tagBitsPerSample   uint16 = 258
	tagPhotometric     uint16 = 262
	tagStripOffsets    uint16 = 273
	tagSamplesPerPixel uint16 = 277
	tagRowsPerStrip    uint16 = 278
	tagStripByteCounts uint16 = 279
	tagPlanarConfig    uint16 = 284
	tagExtraSamples    uint16 = 338
)

// layoutTags describe the raster layout of the source stream or point to
// data that is not carried over, so they are never copied from a Directory.
var layoutTags = map[uint16]bool{
	tagImageWidth: true, tagImageLength: true, tagBitsPerSample: true,
	TagCompression: true, tagPhotometric: true, tagStripOffsets: true,
	tagSamplesPerPixel: true, tagRowsPerStrip: true, tagStripByteCounts: true,
	tagPlanarConfig: true, tagExtraSamples: true,
	317: true, 320: true, 322: true, 323: true, 324: true, 325: true, // predictor, colormap, tiles
	330: true, 339: true, 513: true, 514: true, // subIFDs, sample format, JPEG interchange
	34665: true, 34853: true, 40965: true, // EXIF, GPS and interoperability pointers
}

var outOrder = binary.LittleEndian

// Encode writes img as a single-strip, 8 bits per sample TIFF. Metadata
// fields of dir are copied; tag 259 of dir selects the compression.
func Encode(w io.Writer, img image.Image, dir *Directory) error {
	compression := CompressionNone
	if c, ok := dir.Short(TagCompression); ok {
		compression = c
	}

	strip, samples, photometric, alpha := rasterSamples(img)
	data, err := compress(strip, compression)
	if err != nil {
		return fmt.Errorf("compress strip: %w", err)
	}

	b := img.Bounds()
	fields := make(map[uint16]Field)
	for _, tag := range dir.Tags() {
		if layoutTags[tag] {
			continue
		}
		f := dir.fields[tag]
		f.Data = reorder(f.Data, f.Type, dir.Order, outOrder)
		fields[tag] = f
	}

	bps := make([]uint16, samples)
	for i := range bps {
		bps[i] = 8
	}
	fields[tagImageWidth] = longField(tagImageWidth, uint32(b.Dx()))
	fields[tagImageLength] = longField(tagImageLength, uint32(b.Dy()))
	fields[tagBitsPerSample] = shortField(tagBitsPerSample, bps...)
	fields[TagCompression] = shortField(TagCompression, compression)
	fields[tagPhotometric] = shortField(tagPhotometric, photometric)
	fields[tagSamplesPerPixel] = shortField(tagSamplesPerPixel, uint16(samples))
	fields[tagRowsPerStrip] = longField(tagRowsPerStrip, uint32(b.Dy()))
	fields[tagStripByteCounts] = longField(tagStripByteCounts, uint32(len(data)))
	fields[tagPlanarConfig] = shortField(tagPlanarConfig, 1)
	if alpha {
		fields[tagExtraSamples] = shortField(tagExtraSamples, 2) // unassociated alpha
	}
	fields[tagStripOffsets] = longField(tagStripOffsets, 0)

	tags := maps.Keys(fields)
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	// Header, IFD, out-of-line values, strip.
	ifdSize := 2 + 12*len(tags) + 4
	valuePos := 8 + ifdSize
	for _, tag := range tags {
		if n := len(fields[tag].Data); n > 4 {
			valuePos += n + n&1
		}
	}
	fields[tagStripOffsets] = longField(tagStripOffsets, uint32(valuePos))

	var out bytes.Buffer
	out.Grow(valuePos + len(data))
	out.WriteString("II")
	_ = binary.Write(&out, outOrder, uint16(42))
	_ = binary.Write(&out, outOrder, uint32(8))

	_ = binary.Write(&out, outOrder, uint16(len(tags)))
	var values bytes.Buffer
	valueBase := 8 + ifdSize
	for _, tag := range tags {
		f := fields[tag]
		var entry [12]byte
		outOrder.PutUint16(entry[0:], f.Tag)
		outOrder.PutUint16(entry[2:], uint16(f.Type))
		outOrder.PutUint32(entry[4:], f.Count)
		if len(f.Data) <= 4 {
			copy(entry[8:], f.Data)
		} else {
			outOrder.PutUint32(entry[8:], uint32(valueBase+values.Len()))
			values.Write(f.Data)
			if len(f.Data)&1 == 1 {
				values.WriteByte(0)
			}
		}
		out.Write(entry[:])
	}
	_ = binary.Write(&out, outOrder, uint32(0)) // no next IFD
	out.Write(values.Bytes())
	out.Write(data)

	_, err = w.Write(out.Bytes())
	return err
}

// rasterSamples packs img into interleaved 8-bit samples.
func rasterSamples(img image.Image) (strip []byte, samples int, photometric uint16, alpha bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch img.(type) {
	case *image.Gray, *image.Gray16:
		g := image.NewGray(image.Rect(0, 0, w, h))
		draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
		strip = make([]byte, 0, w*h)
		for y := 0; y < h; y++ {
			strip = append(strip, g.Pix[y*g.Stride:y*g.Stride+w]...)
		}
		return strip, 1, 1, false
	}

	n := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)

	alpha = !isOpaque(img)
	samples = 3
	if alpha {
		samples = 4
	}
	strip = make([]byte, 0, w*h*samples)
	for y := 0; y < h; y++ {
		row := n.Pix[y*n.Stride : y*n.Stride+4*w]
		if alpha {
			strip = append(strip, row...)
			continue
		}
		for x := 0; x < w; x++ {
			strip = append(strip, row[4*x], row[4*x+1], row[4*x+2])
		}
	}
	return strip, samples, 2, alpha
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func compress(data []byte, scheme uint16) ([]byte, error) {
	var (
		buf bytes.Buffer
		wc  io.WriteCloser
	)
	switch scheme {
	case CompressionNone:
		return data, nil
	case CompressionLZW:
		wc = lzw.NewWriter(&buf, true)
	case CompressionDeflate:
		wc = zlib.NewWriter(&buf)
	default:
		return nil, fmt.Errorf("unsupported compression %d", scheme)
	}
	if _, err := wc.Write(data); err != nil {
		return nil, err
	}
	if err := wc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func shortField(tag uint16, vals ...uint16) Field {
	b := make([]byte, 2*len(vals))
	for i, v := range vals {
		outOrder.PutUint16(b[2*i:], v)
	}
	return Field{Tag: tag, Type: tiff.DTShort, Count: uint32(len(vals)), Data: b}
}

func longField(tag uint16, v uint32) Field {
	b := make([]byte, 4)
	outOrder.PutUint32(b, v)
	return Field{Tag: tag, Type: tiff.DTLong, Count: 1, Data: b}
}
