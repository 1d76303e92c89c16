package imaging

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"sort"

	"github.com/vearutop/imaging/internal/jpegmeta"
	"github.com/vearutop/imaging/internal/tiffmeta"
)

var jpegCodec = formatCodec[*jpegmeta.Tree]{
	decode:      jpegmeta.Decode,
	extract:     extractJPEG,
	defaultTree: jpegmeta.DefaultTree,
	inject:      injectJPEG,
	encode: func(w io.Writer, img image.Image, tree *jpegmeta.Tree, opts *WriteOptions) error {
		return jpegmeta.Encode(w, img, tree, opts.Quality)
	},
}

func extractJPEG(t *jpegmeta.Tree) *extracted {
	m := &extracted{}

	if j := t.JFIF; j != nil {
		switch j.Units {
		case jpegmeta.UnitsDPI:
			m.res = int(j.XDensity)
		case jpegmeta.UnitsDPCM:
			m.res = DPCMToDPI(int(j.XDensity))
		}
	}

	var (
		iccChunks [][]byte
		exif      [][]byte
	)
	for _, mk := range t.Markers {
		switch mk.Tag {
		case markerAPP1:
			switch {
			case bytes.HasPrefix(mk.Payload, xmpHeader):
				m.xmp = mk.Payload[xmpHeaderLen:]
			case len(mk.Payload) > 0 && bytes.HasPrefix(xmpHeader, mk.Payload):
				m.warn(JPEG, "xmp", errShortPayload)
			case tiffmeta.IsExif(mk.Payload):
				exif = append(exif, mk.Payload)
			}
		case markerAPP2:
			if !bytes.HasPrefix(mk.Payload, iccSig) {
				continue
			}
			if len(mk.Payload) < iccHeaderLen {
				m.warn(JPEG, "icc", errShortPayload)
				continue
			}
			iccChunks = append(iccChunks, mk.Payload)
		}
	}
	m.profile = collectICCProfile(iccChunks)

	// EXIF carries a TIFF directory, its fields take precedence.
	for _, payload := range exif {
		dir, err := tiffmeta.ParseExif(payload)
		if err != nil {
			m.warn(JPEG, "exif", err)
			continue
		}
		applyDirectory(JPEG, dir, m)
	}

	return m
}

// collectICCProfile joins APP2 ICC chunks. A complete multi-chunk sequence
// is concatenated in sequence order, otherwise the last chunk wins.
func collectICCProfile(chunks [][]byte) []byte {
	if len(chunks) == 0 {
		return nil
	}

	type chunk struct {
		seq  int
		data []byte
	}
	seen := make(map[int]bool, len(chunks))
	sorted := make([]chunk, 0, len(chunks))
	complete := len(chunks) > 1
	for _, p := range chunks {
		seq, count := int(p[len(iccSig)]), int(p[len(iccSig)+1])
		if count != len(chunks) || seq < 1 || seq > count || seen[seq] {
			complete = false
		}
		seen[seq] = true
		sorted = append(sorted, chunk{seq: seq, data: p[iccHeaderLen:]})
	}
	if !complete {
		return append([]byte(nil), chunks[len(chunks)-1][iccHeaderLen:]...)
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].seq < sorted[j].seq })
	var out []byte
	for _, c := range sorted {
		out = append(out, c.data...)
	}
	return out
}

func injectJPEG(t *jpegmeta.Tree, in *injected) error {
	if in.res > 0xFFFF {
		return fmt.Errorf("%w: %d dpi", errDensityRange, in.res)
	}

	xmpPayload := make([]byte, 0, xmpHeaderLen+len(in.xmp))
	xmpPayload = append(xmpPayload, xmpHeader...)
	t.Append(markerAPP1, append(xmpPayload, in.xmp...))

	if len(in.profile) > 0 {
		iccPayload := make([]byte, 0, iccHeaderLen+len(in.profile))
		iccPayload = append(iccPayload, iccSig...)
		iccPayload = append(iccPayload, 1, 1)
		t.Append(markerAPP2, append(iccPayload, in.profile...))
	}

	density := uint16(in.res)
	if t.JFIF == nil {
		t.JFIF = &jpegmeta.JFIF{}
	}
	*t.JFIF = jpegmeta.JFIF{
		MajorVersion: 1,
		MinorVersion: 2,
		Units:        jpegmeta.UnitsDPI,
		XDensity:     density,
		YDensity:     density,
	}

	return nil
}
