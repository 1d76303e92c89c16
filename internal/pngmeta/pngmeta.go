// Package pngmeta decodes and encodes PNG streams together with their
// text, physical dimension and colour profile chunks.
package pngmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strconv"
)

// UnitMeter is the pHYs unit specifier for pixels per metre.
const UnitMeter byte = 1

// ITXt is an international text entry.
type ITXt struct {
	Keyword           string
	CompressionFlag   bool
	CompressionMethod byte
	LanguageTag       string
	TranslatedKeyword string
	Text              string
}

// Phys is the pHYs chunk.
type Phys struct {
	X, Y uint32
	Unit byte
}

// Dimension holds generic pixel sizes. Values read from an sCAL chunk are
// millimetres per pixel; on write the values are taken as pixels per
// millimetre and emitted as pHYs when no Phys is set.
type Dimension struct {
	HorizontalPixelSize float64
	VerticalPixelSize   float64
}

// ICCProfile is an embedded colour profile node.
type ICCProfile struct {
	Name string
	Data []byte
}

// Tree is the metadata of a PNG stream.
type Tree struct {
	ITXt      []ITXt
	Phys      *Phys
	Dimension *Dimension
	ICC       []ICCProfile

	// Warnings lists chunks that could not be decoded and were skipped.
	Warnings []error
}

// DefaultTree returns an empty tree.
func DefaultTree() *Tree {
	return &Tree{}
}

// Decode reads a PNG stream and returns its raster and metadata tree.
func Decode(r io.Reader) (image.Image, *Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	tree, err := DecodeTree(data)
	if err != nil {
		return nil, nil, fmt.Errorf("chunks: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return img, tree, nil
}

// DecodeTree parses the metadata chunks of a PNG stream. Malformed metadata
// chunks are reported in Tree.Warnings, only framing errors fail.
func DecodeTree(data []byte) (*Tree, error) {
	chunks, err := readChunks(data)
	if err != nil {
		return nil, err
	}

	t := &Tree{}
	for _, c := range chunks {
		var err error
		switch c.typ {
		case "iTXt":
			var e ITXt
			if e, err = parseITXt(c.data); err == nil {
				t.ITXt = append(t.ITXt, e)
			}
		case "pHYs":
			if len(c.data) != 9 {
				err = errors.New("bad length")
				break
			}
			t.Phys = &Phys{
				X:    binary.BigEndian.Uint32(c.data[0:4]),
				Y:    binary.BigEndian.Uint32(c.data[4:8]),
				Unit: c.data[8],
			}
		case "sCAL":
			var d *Dimension
			if d, err = parseSCAL(c.data); err == nil && d != nil {
				t.Dimension = d
			}
		case "iCCP":
			var p ICCProfile
			if p, err = parseICCP(c.data); err == nil {
				t.ICC = append(t.ICC, p)
			}
		}
		if err != nil {
			t.Warnings = append(t.Warnings, fmt.Errorf("%s: %w", c.typ, err))
		}
	}
	return t, nil
}

// Encode writes img as PNG with the chunks described by tree placed after IHDR.
func Encode(w io.Writer, img image.Image, tree *Tree) error {
	extra, err := tree.chunks()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	chunks, err := readChunks(buf.Bytes())
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, pngHeader); err != nil {
		return err
	}
	for _, c := range chunks {
		if err := writeChunk(w, c.typ, c.data); err != nil {
			return err
		}
		if c.typ != "IHDR" {
			continue
		}
		for _, e := range extra {
			if err := writeChunk(w, e.typ, e.data); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tree) chunks() ([]chunk, error) {
	var out []chunk

	// Only one iCCP is allowed; empty profile nodes carry nothing.
	for _, p := range t.ICC {
		if len(p.Data) == 0 {
			continue
		}
		data, err := encodeICCP(p)
		if err != nil {
			return nil, fmt.Errorf("iCCP: %w", err)
		}
		out = append(out, chunk{typ: "iCCP", data: data})
		break
	}

	phys := t.Phys
	if phys == nil && t.Dimension != nil && t.Dimension.HorizontalPixelSize > 0 {
		phys = &Phys{
			X:    uint32(math.Round(t.Dimension.HorizontalPixelSize * 1000)),
			Y:    uint32(math.Round(t.Dimension.VerticalPixelSize * 1000)),
			Unit: UnitMeter,
		}
	}
	if phys != nil {
		data := make([]byte, 9)
		binary.BigEndian.PutUint32(data[0:], phys.X)
		binary.BigEndian.PutUint32(data[4:], phys.Y)
		data[8] = phys.Unit
		out = append(out, chunk{typ: "pHYs", data: data})
	}

	for _, e := range t.ITXt {
		data, err := encodeITXt(e)
		if err != nil {
			return nil, fmt.Errorf("iTXt %q: %w", e.Keyword, err)
		}
		out = append(out, chunk{typ: "iTXt", data: data})
	}
	return out, nil
}

// HasEmptyICC reports whether the tree carries a profile node without data.
func (t *Tree) HasEmptyICC() bool {
	for _, p := range t.ICC {
		if len(p.Data) == 0 {
			return true
		}
	}
	return false
}

func splitNul(b []byte) (string, []byte, bool) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", nil, false
	}
	return string(b[:i]), b[i+1:], true
}

func checkKeyword(k string) error {
	if len(k) == 0 || len(k) > 79 {
		return fmt.Errorf("keyword length %d out of range", len(k))
	}
	if bytes.IndexByte([]byte(k), 0) >= 0 {
		return errors.New("keyword contains NUL")
	}
	return nil
}

func parseITXt(b []byte) (ITXt, error) {
	var e ITXt
	var ok bool
	if e.Keyword, b, ok = splitNul(b); !ok || len(b) < 2 {
		return e, errors.New("malformed keyword")
	}
	e.CompressionFlag = b[0] == 1
	e.CompressionMethod = b[1]
	b = b[2:]
	if e.LanguageTag, b, ok = splitNul(b); !ok {
		return e, errors.New("malformed language tag")
	}
	if e.TranslatedKeyword, b, ok = splitNul(b); !ok {
		return e, errors.New("malformed translated keyword")
	}
	if e.CompressionFlag {
		if e.CompressionMethod != 0 {
			return e, fmt.Errorf("unknown compression method %d", e.CompressionMethod)
		}
		text, err := inflate(b)
		if err != nil {
			return e, err
		}
		b = text
	}
	e.Text = string(b)
	return e, nil
}

func encodeITXt(e ITXt) ([]byte, error) {
	if err := checkKeyword(e.Keyword); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(e.Keyword)
	buf.WriteByte(0)
	text := []byte(e.Text)
	if e.CompressionFlag {
		z, err := deflate(text)
		if err != nil {
			return nil, err
		}
		text = z
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.WriteByte(e.CompressionMethod)
	buf.WriteString(e.LanguageTag)
	buf.WriteByte(0)
	buf.WriteString(e.TranslatedKeyword)
	buf.WriteByte(0)
	buf.Write(text)
	return buf.Bytes(), nil
}

func parseICCP(b []byte) (ICCProfile, error) {
	name, rest, ok := splitNul(b)
	if !ok || len(rest) < 1 {
		return ICCProfile{}, errors.New("malformed profile name")
	}
	if rest[0] != 0 {
		return ICCProfile{}, fmt.Errorf("unknown compression method %d", rest[0])
	}
	data, err := inflate(rest[1:])
	if err != nil {
		return ICCProfile{}, err
	}
	return ICCProfile{Name: name, Data: data}, nil
}

func encodeICCP(p ICCProfile) ([]byte, error) {
	name := p.Name
	if name == "" {
		name = "ICC Profile"
	}
	if err := checkKeyword(name); err != nil {
		return nil, err
	}
	z, err := deflate(p.Data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(name)+2+len(z))
	out = append(out, name...)
	out = append(out, 0, 0)
	return append(out, z...), nil
}

// parseSCAL reads a metre-unit sCAL chunk into millimetres per pixel.
// Other units yield nil.
func parseSCAL(b []byte) (*Dimension, error) {
	if len(b) < 4 {
		return nil, errors.New("bad length")
	}
	if b[0] != UnitMeter {
		return nil, nil
	}
	ws, rest, ok := splitNul(b[1:])
	if !ok {
		return nil, errors.New("malformed width")
	}
	w, err := strconv.ParseFloat(ws, 64)
	if err != nil {
		return nil, err
	}
	h, err := strconv.ParseFloat(string(rest), 64)
	if err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 {
		return nil, errors.New("non-positive pixel size")
	}
	return &Dimension{HorizontalPixelSize: w * 1000, VerticalPixelSize: h * 1000}, nil
}
