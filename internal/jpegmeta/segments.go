package jpegmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	markerStart = 0xFF
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerAPP0  = 0xE0
	markerAPP15 = 0xEF
	markerCOM   = 0xFE
)

// maxPayload is the largest payload a single marker segment can carry.
const maxPayload = 0xFFFF - 2

var (
	errInvalidJPEG   = errors.New("invalid jpeg")
	errTruncated     = errors.New("truncated marker")
	errSegmentLength = errors.New("invalid segment length")
)

// isMetadataMarker reports whether a marker belongs to the metadata part of
// the stream (APPn or COM) rather than to the coded image.
func isMetadataMarker(marker byte) bool {
	return marker == markerCOM || (marker >= markerAPP0 && marker <= markerAPP15)
}

// segment is a marker located in a JPEG stream. start and end delimit the
// marker, including fill bytes, and its payload.
type segment struct {
	marker     byte
	start, end int
	payload    []byte
}

// scanSegments calls fn for every marker before the first SOS or EOI and
// returns the offset of that marker, or len(data) if the stream ends first.
func scanSegments(data []byte, fn func(s segment)) (int, error) {
	if len(data) < 4 || data[0] != markerStart || data[1] != markerSOI {
		return 0, errInvalidJPEG
	}
	pos := 2
	for pos+3 < len(data) {
		if data[pos] != markerStart {
			pos++
			continue
		}
		start := pos
		for pos < len(data) && data[pos] == markerStart {
			pos++
		}
		if pos >= len(data) {
			break
		}
		marker := data[pos]
		pos++
		switch {
		case marker == markerSOS || marker == markerEOI:
			return start, nil
		case marker >= 0xD0 && marker <= 0xD7 || marker == 0x01:
			// Standalone, no length.
			fn(segment{marker: marker, start: start, end: pos})
			continue
		}
		if pos+1 >= len(data) {
			return start, errTruncated
		}
		segLen := int(binary.BigEndian.Uint16(data[pos:]))
		if segLen < 2 || pos+segLen > len(data) {
			return start, errSegmentLength
		}
		fn(segment{marker: marker, start: start, end: pos + segLen, payload: data[pos+2 : pos+segLen]})
		pos += segLen
	}
	return len(data), nil
}

// walkSegments calls fn for every marker segment before the first SOS.
// The payload passed to fn aliases data.
func walkSegments(data []byte, fn func(marker byte, payload []byte)) error {
	_, err := scanSegments(data, func(s segment) {
		if s.payload != nil {
			fn(s.marker, s.payload)
		}
	})
	return err
}

// stripMetadata removes APP0-APP15 and COM segments from a JPEG stream,
// leaving every other byte in place.
func stripMetadata(data []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(data))
	last := 0
	_, err := scanSegments(data, func(s segment) {
		if isMetadataMarker(s.marker) {
			out.Write(data[last:s.start])
			last = s.end
		}
	})
	if err != nil {
		return nil, err
	}
	out.Write(data[last:])
	return out.Bytes(), nil
}

func writeSegment(out *bytes.Buffer, marker byte, payload []byte) {
	out.WriteByte(markerStart)
	out.WriteByte(marker)
	length := uint16(len(payload) + 2)
	out.WriteByte(byte(length >> 8))
	out.WriteByte(byte(length))
	out.Write(payload)
}
