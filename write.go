package imaging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vearutop/imaging/xmp"
)

// WriteOptions controls Write.
type WriteOptions struct {
	// XMP overrides the image's own document.
	XMP *xmp.Document

	// Flatten composites an alpha raster onto the background colour even
	// when the target container can store alpha.
	Flatten bool

	// Quality is the JPEG quality, 1-100.
	Quality int

	// TIFFCompression selects the strip compression of TIFF output.
	TIFFCompression TIFFCompression

	// CompactXMP writes the XMP packet without indentation and padding.
	CompactXMP bool

	// TempDir holds the intermediate encode file, os.TempDir() by default.
	TempDir string

	Logger *slog.Logger
}

// Write encodes the image as container type t into w.
//
// The stream is fully encoded into a temporary file first, so nothing
// reaches w unless encoding succeeds. The image itself is not modified
// and w is not closed.
func (img *Image) Write(w io.Writer, t ContainerType, opts ...func(o *WriteOptions)) error {
	f, logger, err := img.encode(t, opts)
	if err != nil {
		return err
	}
	defer discardSink(f, logger)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind encode sink: %w", err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy encoded image: %w", err)
	}

	return nil
}

// WriteFile encodes the image as container type t into the file at path.
//
// The file is encoded next to path and renamed into place, so a failed
// write leaves an existing file untouched and creates none. TempDir is
// ignored.
func (img *Image) WriteFile(path string, t ContainerType, opts ...func(o *WriteOptions)) error {
	dir := filepath.Dir(path)
	opts = append(opts[:len(opts):len(opts)], func(o *WriteOptions) { o.TempDir = dir })

	f, logger, err := img.encode(t, opts)
	if err != nil {
		return err
	}

	if err := f.Chmod(0o644); err != nil {
		discardSink(f, logger)
		return fmt.Errorf("chmod encoded image: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("close encoded image: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("move encoded image: %w", err)
	}

	return nil
}

// encode serializes the metadata and encodes the image into a new
// temporary file. On success the caller owns the file.
func (img *Image) encode(t ContainerType, opts []func(o *WriteOptions)) (*os.File, *slog.Logger, error) {
	opt := WriteOptions{
		XMP:             img.xmp,
		Quality:         defaultQuality,
		TIFFCompression: TIFFLZW,
		CompactXMP:      true,
		Logger:          img.logger,
	}
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}
	if opt.XMP == nil {
		opt.XMP = xmp.NewDocument()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}

	c, ok := codecs[t]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedContainer, t)
	}

	packet, err := xmp.Serialize(opt.XMP, opt.CompactXMP)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrSerialize, err)
	}

	in := &injected{
		res:  img.res,
		xmp:  packet,
		opts: &opt,
	}
	if img.profile != nil {
		in.profile = img.profile.Bytes()
		in.profileName = img.profile.Description
	}

	raster := img.raster
	if img.alpha && (opt.Flatten || !t.SupportsAlpha()) {
		raster = flatten(raster, img.background)
	}

	f, err := os.CreateTemp(opt.TempDir, ".imaging-*."+t.Extension())
	if err != nil {
		return nil, nil, fmt.Errorf("create encode sink: %w", err)
	}
	opt.Logger.Debug("created encode sink", "path", f.Name())

	if err := c.write(f, raster, in); err != nil {
		discardSink(f, opt.Logger)
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrEncode, t, err)
	}

	return f, opt.Logger, nil
}

func discardSink(f *os.File, logger *slog.Logger) {
	clsErr := f.Close()
	rmErr := os.Remove(f.Name())
	if clsErr != nil || rmErr != nil {
		logger.Debug("failed to clean up encode sink", "path", f.Name(),
			"close", clsErr, "remove", rmErr)
	}
}
