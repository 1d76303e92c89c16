package imaging

import (
	"image"
	"io"

	"github.com/vearutop/imaging/internal/pngmeta"
)

var pngCodec = formatCodec[*pngmeta.Tree]{
	decode:      pngmeta.Decode,
	extract:     extractPNG,
	defaultTree: pngmeta.DefaultTree,
	inject:      injectPNG,
	encode: func(w io.Writer, img image.Image, tree *pngmeta.Tree, opts *WriteOptions) error {
		if tree.HasEmptyICC() {
			opts.Logger.Debug("skipping empty icc profile node", "container", PNG)
		}
		return pngmeta.Encode(w, img, tree)
	},
}

func extractPNG(t *pngmeta.Tree) *extracted {
	m := &extracted{}

	for _, e := range t.ITXt {
		if e.Keyword == pngXMPKeyword {
			m.xmp = []byte(e.Text)
		}
	}

	if p := t.Phys; p != nil && p.Unit == pngmeta.UnitMeter {
		m.res = PPMToDPI(p.X)
	}
	if m.res == 0 && t.Dimension != nil {
		m.res = PixelSizeToDPI(t.Dimension.HorizontalPixelSize)
	}

	for _, p := range t.ICC {
		if len(p.Data) > 0 {
			m.profile = p.Data
		}
	}

	for _, err := range t.Warnings {
		m.warn(PNG, "chunk", err)
	}

	return m
}

func injectPNG(t *pngmeta.Tree, in *injected) error {
	t.ITXt = append(t.ITXt, pngmeta.ITXt{
		Keyword:           pngXMPKeyword,
		CompressionFlag:   false,
		CompressionMethod: 0,
		Text:              string(in.xmp),
	})

	size := DPIToPixelsPerMM(in.res)
	t.Dimension = &pngmeta.Dimension{HorizontalPixelSize: size, VerticalPixelSize: size}

	// The profile node is added even without a profile.
	t.ICC = append(t.ICC, pngmeta.ICCProfile{Name: pngProfileName(in.profileName), Data: in.profile})

	return nil
}

// pngProfileName returns a valid iCCP profile name: printable Latin-1,
// 1 to 79 bytes.
func pngProfileName(desc string) string {
	name := make([]byte, 0, 79)
	for _, r := range desc {
		if len(name) == 79 {
			break
		}
		if r >= 0x20 && r < 0x7F {
			name = append(name, byte(r))
		}
	}
	if len(name) == 0 {
		return "ICC Profile"
	}
	return string(name)
}
