// Package jpegmeta decodes and encodes JPEG streams together with their
// metadata markers.
package jpegmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

var jfifSig = []byte{'J', 'F', 'I', 'F', 0}

// Density units of the JFIF block.
const (
	UnitsNone byte = 0
	UnitsDPI  byte = 1
	UnitsDPCM byte = 2
)

// Marker is an application or comment segment not interpreted by the codec.
type Marker struct {
	Tag     byte
	Payload []byte
}

// JFIF is the APP0 JFIF block.
type JFIF struct {
	MajorVersion byte
	MinorVersion byte
	Units        byte
	XDensity     uint16
	YDensity     uint16
	ThumbWidth   byte
	ThumbHeight  byte
}

// Tree is the metadata of a JPEG stream: the JFIF block and the remaining
// APPn and COM markers in stream order.
type Tree struct {
	JFIF    *JFIF
	Markers []Marker
}

// Find returns the payloads of all markers with the given tag.
func (t *Tree) Find(tag byte) [][]byte {
	var out [][]byte
	for _, m := range t.Markers {
		if m.Tag == tag {
			out = append(out, m.Payload)
		}
	}
	return out
}

// Append adds a marker after the existing ones.
func (t *Tree) Append(tag byte, payload []byte) {
	t.Markers = append(t.Markers, Marker{Tag: tag, Payload: payload})
}

// DefaultTree returns the tree the encoder emits when nothing is changed.
func DefaultTree() *Tree {
	return &Tree{
		JFIF: &JFIF{MajorVersion: 1, MinorVersion: 1, Units: UnitsNone, XDensity: 1, YDensity: 1},
	}
}

// DecodeTree parses the metadata markers of a JPEG stream.
func DecodeTree(data []byte) (*Tree, error) {
	t := &Tree{}
	err := walkSegments(data, func(marker byte, payload []byte) {
		if !isMetadataMarker(marker) {
			return
		}
		if marker == markerAPP0 && t.JFIF == nil {
			if j, ok := parseJFIF(payload); ok {
				t.JFIF = j
				return
			}
		}
		t.Markers = append(t.Markers, Marker{Tag: marker, Payload: append([]byte(nil), payload...)})
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Decode reads a JPEG stream and returns its raster and metadata tree.
func Decode(r io.Reader) (image.Image, *Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	tree, err := DecodeTree(data)
	if err != nil {
		return nil, nil, fmt.Errorf("markers: %w", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return img, tree, nil
}

// Encode writes img as baseline JPEG with the markers of tree placed right
// after SOI, JFIF first.
func Encode(w io.Writer, img image.Image, tree *Tree, quality int) error {
	for _, m := range tree.Markers {
		if len(m.Payload) > maxPayload {
			return fmt.Errorf("marker 0x%02X payload too large: %d bytes", m.Tag, len(m.Payload))
		}
		if !isMetadataMarker(m.Tag) {
			return fmt.Errorf("marker 0x%02X is not an application marker", m.Tag)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return err
	}
	stripped, err := stripMetadata(buf.Bytes())
	if err != nil {
		return err
	}

	var out bytes.Buffer
	out.Grow(len(stripped) + 1024)
	out.WriteByte(markerStart)
	out.WriteByte(markerSOI)
	if tree.JFIF != nil {
		writeSegment(&out, markerAPP0, tree.JFIF.bytes())
	}
	for _, m := range tree.Markers {
		writeSegment(&out, m.Tag, m.Payload)
	}
	out.Write(stripped[2:])

	_, err = w.Write(out.Bytes())
	return err
}

func parseJFIF(payload []byte) (*JFIF, bool) {
	if len(payload) < 14 || !bytes.HasPrefix(payload, jfifSig) {
		return nil, false
	}
	return &JFIF{
		MajorVersion: payload[5],
		MinorVersion: payload[6],
		Units:        payload[7],
		XDensity:     binary.BigEndian.Uint16(payload[8:10]),
		YDensity:     binary.BigEndian.Uint16(payload[10:12]),
		ThumbWidth:   payload[12],
		ThumbHeight:  payload[13],
	}, true
}

// bytes encodes the block without thumbnail data.
func (j *JFIF) bytes() []byte {
	b := make([]byte, 14)
	copy(b, jfifSig)
	b[5] = j.MajorVersion
	b[6] = j.MinorVersion
	b[7] = j.Units
	binary.BigEndian.PutUint16(b[8:], j.XDensity)
	binary.BigEndian.PutUint16(b[10:], j.YDensity)
	b[12] = j.ThumbWidth
	b[13] = j.ThumbHeight
	return b
}
