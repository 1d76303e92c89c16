package imaging

import (
	"errors"
	"fmt"
)

// Fatal error classes, match with errors.Is.
var (
	ErrDecode               = errors.New("decode image")
	ErrSerialize            = errors.New("serialize xmp")
	ErrEncode               = errors.New("encode image")
	ErrUnsupportedContainer = errors.New("unsupported container")
)

var (
	errUnvalidatedXMP = errors.New("packet does not start with " + xpacketPrefix)
	errZeroDenom      = errors.New("zero denominator")
	errShortPayload   = errors.New("payload shorter than header")
	errDensityRange   = errors.New("resolution exceeds jfif density range")
)

// MetadataError is a recoverable problem found while extracting metadata.
// Read does not fail on it; the affected field falls back to its default.
type MetadataError struct {
	Container ContainerType
	Field     string
	Err       error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Container, e.Field, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}
