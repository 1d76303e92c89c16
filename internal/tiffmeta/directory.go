package tiffmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sort"

	"github.com/rwcarlsen/goexif/tiff"
)

// Tags used by the metadata codecs.
const (
	TagCompression    uint16 = 259
	TagXResolution    uint16 = 282
	TagYResolution    uint16 = 283
	TagResolutionUnit uint16 = 296
	TagXMP            uint16 = 700
	TagICCProfile     uint16 = 34675
)

// Resolution units.
const (
	UnitNone       uint16 = 1
	UnitInch       uint16 = 2
	UnitCentimeter uint16 = 3
)

var exifSig = []byte{'E', 'x', 'i', 'f', 0, 0}

var errNoDirectory = errors.New("no image file directory")

// Field is a directory entry. Data is encoded in the byte order of the
// owning Directory.
type Field struct {
	Tag   uint16
	Type  tiff.DataType
	Count uint32
	Data  []byte
}

// Directory is the first image file directory of a TIFF stream.
type Directory struct {
	Order  binary.ByteOrder
	fields map[uint16]Field
}

// DefaultDirectory returns an empty little-endian directory.
func DefaultDirectory() *Directory {
	return &Directory{Order: binary.LittleEndian, fields: make(map[uint16]Field)}
}

// ParseDirectory reads IFD0 of a TIFF stream.
func ParseDirectory(r io.Reader) (*Directory, error) {
	t, err := tiff.Decode(r)
	if err != nil {
		return nil, err
	}
	if len(t.Dirs) == 0 {
		return nil, errNoDirectory
	}

	d := &Directory{Order: t.Order, fields: make(map[uint16]Field, len(t.Dirs[0].Tags))}
	for _, tag := range t.Dirs[0].Tags {
		d.fields[tag.Id] = Field{
			Tag:   tag.Id,
			Type:  tag.Type,
			Count: tag.Count,
			Data:  append([]byte(nil), tag.Val...),
		}
	}
	return d, nil
}

// IsExif reports whether a JPEG APP1 payload carries EXIF data.
func IsExif(payload []byte) bool {
	return bytes.HasPrefix(payload, exifSig)
}

// ParseExif reads IFD0 of a JPEG APP1 EXIF payload.
func ParseExif(payload []byte) (*Directory, error) {
	if !IsExif(payload) {
		return nil, errors.New("missing exif signature")
	}
	return ParseDirectory(bytes.NewReader(payload[len(exifSig):]))
}

// Get returns the field stored under tag.
func (d *Directory) Get(tag uint16) (Field, bool) {
	f, ok := d.fields[tag]
	return f, ok
}

// Tags returns the tags of all fields in ascending order.
func (d *Directory) Tags() []uint16 {
	tags := make([]uint16, 0, len(d.fields))
	for t := range d.fields {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Bytes returns the raw value of a field.
func (d *Directory) Bytes(tag uint16) ([]byte, bool) {
	f, ok := d.fields[tag]
	if !ok {
		return nil, false
	}
	return f.Data, true
}

// Rational returns the first value of a RATIONAL field.
func (d *Directory) Rational(tag uint16) (num, den uint32, ok bool) {
	f, found := d.fields[tag]
	if !found || f.Type != tiff.DTRational || len(f.Data) < 8 {
		return 0, 0, false
	}
	return d.Order.Uint32(f.Data[0:4]), d.Order.Uint32(f.Data[4:8]), true
}

// Short returns the first value of a SHORT or LONG field.
func (d *Directory) Short(tag uint16) (uint16, bool) {
	f, ok := d.fields[tag]
	if !ok {
		return 0, false
	}
	switch {
	case f.Type == tiff.DTShort && len(f.Data) >= 2:
		return d.Order.Uint16(f.Data), true
	case f.Type == tiff.DTLong && len(f.Data) >= 4:
		return uint16(d.Order.Uint32(f.Data)), true
	}
	return 0, false
}

// Set stores f, replacing any field with the same tag.
func (d *Directory) Set(f Field) {
	d.fields[f.Tag] = f
}

// SetBytes stores a BYTE or UNDEFINED field.
func (d *Directory) SetBytes(tag uint16, typ tiff.DataType, data []byte) {
	d.Set(Field{Tag: tag, Type: typ, Count: uint32(len(data)), Data: append([]byte(nil), data...)})
}

// SetRational stores a single RATIONAL value.
func (d *Directory) SetRational(tag uint16, num, den uint32) {
	b := make([]byte, 8)
	d.Order.PutUint32(b[0:], num)
	d.Order.PutUint32(b[4:], den)
	d.Set(Field{Tag: tag, Type: tiff.DTRational, Count: 1, Data: b})
}

// SetShort stores a single SHORT value.
func (d *Directory) SetShort(tag uint16, v uint16) {
	b := make([]byte, 2)
	d.Order.PutUint16(b, v)
	d.Set(Field{Tag: tag, Type: tiff.DTShort, Count: 1, Data: b})
}

// Delete removes a field.
func (d *Directory) Delete(tag uint16) {
	delete(d.fields, tag)
}

// typeSize returns the byte size of one element of typ and the size of the
// units that need swapping when the byte order changes.
func typeSize(typ tiff.DataType) (elem, unit int) {
	switch typ {
	case tiff.DTShort, tiff.DTSShort:
		return 2, 2
	case tiff.DTLong, tiff.DTSLong, tiff.DTFloat:
		return 4, 4
	case tiff.DTRational, tiff.DTSRational:
		return 8, 4
	case tiff.DTDouble:
		return 8, 8
	default:
		return 1, 1
	}
}

// reorder returns data re-encoded from one byte order into another.
func reorder(data []byte, typ tiff.DataType, from, to binary.ByteOrder) []byte {
	_, unit := typeSize(typ)
	out := append([]byte(nil), data...)
	if unit == 1 || from == to {
		return out
	}
	for i := 0; i+unit <= len(out); i += unit {
		switch unit {
		case 2:
			to.PutUint16(out[i:], from.Uint16(out[i:]))
		case 4:
			to.PutUint32(out[i:], from.Uint32(out[i:]))
		case 8:
			to.PutUint64(out[i:], from.Uint64(out[i:]))
		}
	}
	return out
}
