// Package icc decodes the header and text tags of ICC colour profiles.
//
// Profiles are kept as opaque byte sequences by the image codecs; this
// package only interprets enough of them to describe a profile to a user
// and to reject data which is not a profile at all.
package icc

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	headerSize = 128
	tagEntry   = 12
)

var (
	errTooShort = errors.New("icc: profile too short")
	errMagic    = errors.New("icc: missing acsp signature")
	errSize     = errors.New("icc: declared size exceeds data")
	errTagTable = errors.New("icc: malformed tag table")
)

// Signature is a four byte ICC identifier.
type Signature uint32

func (s Signature) String() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(s))
	return string(bytes.TrimRight(b[:], " \x00"))
}

// Tag signatures interpreted by this package.
const (
	DescriptionTag Signature = 0x64657363 // "desc"
	CopyrightTag   Signature = 0x63707274 // "cprt"
)

// Version is the profile format version from the header.
type Version uint32

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v>>24, v>>20&0xF, v>>16&0xF)
}

// Common profile classes.
const (
	InputDeviceProfile   Signature = 0x73636E72 // "scnr"
	DisplayDeviceProfile Signature = 0x6D6E7472 // "mntr"
	OutputDeviceProfile  Signature = 0x70727472 // "prtr"
	DeviceLinkProfile    Signature = 0x6C696E6B // "link"
	ColorSpaceProfile    Signature = 0x73706163 // "spac"
	AbstractProfile      Signature = 0x61627374 // "abst"
	NamedColorProfile    Signature = 0x6E6D636C // "nmcl"
)

// Common colour spaces.
const (
	XYZSpace  Signature = 0x58595A20 // "XYZ "
	LabSpace  Signature = 0x4C616220 // "Lab "
	RGBSpace  Signature = 0x52474220 // "RGB "
	GraySpace Signature = 0x47524159 // "GRAY"
	CMYKSpace Signature = 0x434D594B // "CMYK"
)

// RenderingIntent is the default intent of the profile.
type RenderingIntent uint32

// Rendering intents.
const (
	Perceptual RenderingIntent = iota
	RelativeColorimetric
	Saturation
	AbsoluteColorimetric
)

func (ri RenderingIntent) String() string {
	switch ri {
	case Perceptual:
		return "perceptual"
	case RelativeColorimetric:
		return "relative colorimetric"
	case Saturation:
		return "saturation"
	case AbsoluteColorimetric:
		return "absolute colorimetric"
	default:
		return fmt.Sprintf("RenderingIntent(%d)", uint32(ri))
	}
}

// CheckSum reports the state of the profile ID field.
type CheckSum int

// Profile ID states.
const (
	CheckSumMissing CheckSum = iota
	CheckSumValid
	CheckSumInvalid
)

func (c CheckSum) String() string {
	switch c {
	case CheckSumValid:
		return "valid"
	case CheckSumInvalid:
		return "invalid"
	default:
		return "missing"
	}
}

// Profile is a decoded ICC profile.
type Profile struct {
	CMMType      Signature
	Version      Version
	Class        Signature
	ColorSpace   Signature
	PCS          Signature
	Created      time.Time
	Platform     Signature
	Manufacturer Signature
	Model        Signature
	Intent       RenderingIntent
	Creator      Signature
	CheckSum     CheckSum

	// Description and Copyright are taken from the desc and cprt tags.
	Description string
	Copyright   string

	// TagData maps tag signatures to raw tag data.
	TagData map[Signature][]byte

	raw []byte
}

// Decode parses an ICC profile. The data is copied.
func Decode(data []byte) (*Profile, error) {
	if len(data) < headerSize+4 {
		return nil, errTooShort
	}
	if string(data[36:40]) != "acsp" {
		return nil, errMagic
	}
	size := binary.BigEndian.Uint32(data[0:4])
	if int64(size) > int64(len(data)) || size < headerSize+4 {
		return nil, errSize
	}

	raw := append([]byte(nil), data[:size]...)
	be := binary.BigEndian

	p := &Profile{
		CMMType:      Signature(be.Uint32(raw[4:8])),
		Version:      Version(be.Uint32(raw[8:12])),
		Class:        Signature(be.Uint32(raw[12:16])),
		ColorSpace:   Signature(be.Uint32(raw[16:20])),
		PCS:          Signature(be.Uint32(raw[20:24])),
		Created:      decodeDateTime(raw[24:36]),
		Platform:     Signature(be.Uint32(raw[40:44])),
		Manufacturer: Signature(be.Uint32(raw[48:52])),
		Model:        Signature(be.Uint32(raw[52:56])),
		Intent:       RenderingIntent(be.Uint32(raw[64:68]) & 0xFFFF),
		Creator:      Signature(be.Uint32(raw[80:84])),
		CheckSum:     verifyID(raw),
		TagData:      make(map[Signature][]byte),
		raw:          raw,
	}

	count := be.Uint32(raw[headerSize : headerSize+4])
	if uint64(count)*tagEntry > uint64(len(raw)-headerSize-4) {
		return nil, errTagTable
	}
	for i := 0; i < int(count); i++ {
		e := raw[headerSize+4+i*tagEntry:]
		sig := Signature(be.Uint32(e[0:4]))
		off := be.Uint32(e[4:8])
		n := be.Uint32(e[8:12])
		if uint64(off)+uint64(n) > uint64(len(raw)) {
			return nil, fmt.Errorf("%w: tag %s out of bounds", errTagTable, sig)
		}
		p.TagData[sig] = raw[off : off+n]
	}

	p.Description = decodeText(p.TagData[DescriptionTag])
	p.Copyright = decodeText(p.TagData[CopyrightTag])

	return p, nil
}

// Bytes returns a copy of the encoded profile.
func (p *Profile) Bytes() []byte {
	return append([]byte(nil), p.raw...)
}

// Len returns the encoded size in bytes.
func (p *Profile) Len() int {
	return len(p.raw)
}

func (p *Profile) String() string {
	desc := p.Description
	if desc == "" {
		desc = "unnamed"
	}
	return fmt.Sprintf("%s (%s %s, v%s, %d bytes)", desc, p.ColorSpace, p.Class, p.Version, len(p.raw))
}

func decodeDateTime(b []byte) time.Time {
	be := binary.BigEndian
	year := int(be.Uint16(b[0:2]))
	if year == 0 {
		return time.Time{}
	}
	return time.Date(year, time.Month(be.Uint16(b[2:4])), int(be.Uint16(b[4:6])),
		int(be.Uint16(b[6:8])), int(be.Uint16(b[8:10])), int(be.Uint16(b[10:12])), 0, time.UTC)
}

// verifyID checks the MD5 profile ID, computed with the flags, intent and
// ID fields zeroed.
func verifyID(raw []byte) CheckSum {
	id := raw[84:100]
	if bytes.Equal(id, make([]byte, 16)) {
		return CheckSumMissing
	}

	buf := append([]byte(nil), raw...)
	clear(buf[44:48])
	clear(buf[64:68])
	clear(buf[84:100])
	sum := md5.Sum(buf)
	if bytes.Equal(sum[:], id) {
		return CheckSumValid
	}
	return CheckSumInvalid
}
