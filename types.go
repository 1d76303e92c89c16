package imaging

import (
	"fmt"
	"strings"
)

// ContainerType identifies a supported image container.
type ContainerType int

const (
	JPEG ContainerType = iota
	TIFF
	PNG
)

// ContainerTypes lists all supported containers.
var ContainerTypes = []ContainerType{JPEG, TIFF, PNG}

func (t ContainerType) String() string {
	switch t {
	case JPEG:
		return "jpeg"
	case TIFF:
		return "tiff"
	case PNG:
		return "png"
	default:
		return fmt.Sprintf("ContainerType(%d)", int(t))
	}
}

// Extension returns the usual file extension without dot.
func (t ContainerType) Extension() string {
	switch t {
	case JPEG:
		return "jpg"
	case TIFF:
		return "tif"
	case PNG:
		return "png"
	default:
		return ""
	}
}

// SupportsAlpha reports whether the container can store an alpha channel.
func (t ContainerType) SupportsAlpha() bool {
	return t == TIFF || t == PNG
}

// ParseContainerType resolves a name or file extension such as "jpg" or ".tiff".
func ParseContainerType(s string) (ContainerType, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "jpg", "jpeg":
		return JPEG, nil
	case "tif", "tiff":
		return TIFF, nil
	case "png":
		return PNG, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedContainer, s)
}

// CloneMode selects how Clone treats the XMP document.
type CloneMode int

const (
	// ShareXMP makes the clone refer to the same XMP document, so changes
	// made through one Image are visible through the other.
	ShareXMP CloneMode = iota
	// CopyXMP gives the clone its own deep copy of the XMP document.
	CopyXMP
)

// TIFFCompression selects the strip compression of written TIFF files.
type TIFFCompression int

const (
	TIFFLZW TIFFCompression = iota
	TIFFDeflate
	TIFFNone
)
