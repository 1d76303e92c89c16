package icc

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf16"
)

// decodeText extracts a string from a textType, textDescriptionType or
// multiLocalizedUnicodeType tag. Unknown or malformed data yields "".
func decodeText(data []byte) string {
	if len(data) < 8 {
		return ""
	}
	be := binary.BigEndian

	switch string(data[:4]) {
	case "text":
		return cString(data[8:])
	case "desc":
		if len(data) < 12 {
			return ""
		}
		n := be.Uint32(data[8:12])
		if uint64(n) > uint64(len(data)-12) {
			return ""
		}
		return cString(data[12 : 12+n])
	case "mluc":
		if len(data) < 16 {
			return ""
		}
		count := be.Uint32(data[8:12])
		recSize := be.Uint32(data[12:16])
		if count == 0 || recSize < 12 || uint64(count)*uint64(recSize) > uint64(len(data)-16) {
			return ""
		}
		// Prefer en-US, else the first record.
		best := 0
		for i := 0; i < int(count); i++ {
			rec := data[16+i*int(recSize):]
			if string(rec[0:4]) == "enUS" {
				best = i
				break
			}
		}
		rec := data[16+best*int(recSize):]
		n := be.Uint32(rec[4:8])
		off := be.Uint32(rec[8:12])
		if uint64(off)+uint64(n) > uint64(len(data)) || n%2 != 0 {
			return ""
		}
		u := make([]uint16, n/2)
		for i := range u {
			u[i] = be.Uint16(data[int(off)+2*i:])
		}
		return strings.TrimRight(string(utf16.Decode(u)), "\x00")
	}
	return ""
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
