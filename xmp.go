package imaging

import (
	"bytes"

	"github.com/vearutop/imaging/xmp"
)

// decodeXMPPacket validates and parses an extracted packet. A missing packet
// yields an empty document, a rejected one an empty document and an error
// describing why.
func decodeXMPPacket(t ContainerType, packet []byte) (*xmp.Document, error) {
	if packet == nil {
		return xmp.NewDocument(), nil
	}
	if !bytes.HasPrefix(packet, []byte(xpacketPrefix)) {
		return xmp.NewDocument(), &MetadataError{Container: t, Field: "xmp", Err: errUnvalidatedXMP}
	}
	doc, err := xmp.Parse(packet)
	if err != nil {
		return xmp.NewDocument(), &MetadataError{Container: t, Field: "xmp", Err: err}
	}
	return doc, nil
}

// NewXMP returns an empty XMP document.
func NewXMP() *xmp.Document {
	return xmp.NewDocument()
}

// RegisterNamespace binds a preferred prefix to an XMP namespace for all
// subsequent serialization.
func RegisterNamespace(uri, prefix string) error {
	return xmp.RegisterNamespace(uri, prefix)
}
