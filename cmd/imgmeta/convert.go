package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vearutop/imaging"
	"golang.org/x/sync/errgroup"
)

type convertFlags struct {
	from, to    string
	outDir      string
	res         int
	fit         int
	placeW      int
	placeH      int
	flatten     bool
	quality     int
	compression string
	stripXMP    bool
	prettyXMP   bool
	jobs        int
}

var convFlags convertFlags

var convertCmd = &cobra.Command{
	Use:   "convert [file]...",
	Short: "Re-encode images keeping their metadata, optionally resizing",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.StringVar(&convFlags.from, "from", "", "input container, detected from extension by default")
	f.StringVar(&convFlags.to, "to", "", "output container (jpeg, tiff, png), same as input by default")
	f.StringVarP(&convFlags.outDir, "out", "o", ".", "output directory")
	f.IntVar(&convFlags.res, "res", 0, "override resolution in dpi")
	f.IntVar(&convFlags.fit, "fit", 0, "scale so that the longest side has this length")
	f.IntVar(&convFlags.placeW, "place-width", 0, "place on a canvas of this width")
	f.IntVar(&convFlags.placeH, "place-height", 0, "place on a canvas of this height")
	f.BoolVar(&convFlags.flatten, "flatten", false, "composite alpha onto the background")
	f.IntVarP(&convFlags.quality, "quality", "q", 90, "JPEG quality")
	f.StringVar(&convFlags.compression, "tiff-compression", "lzw", "TIFF compression (lzw, deflate, none)")
	f.BoolVar(&convFlags.stripXMP, "strip-xmp", false, "write an empty XMP packet")
	f.BoolVar(&convFlags.prettyXMP, "pretty-xmp", false, "write an indented and padded XMP packet")
	f.IntVarP(&convFlags.jobs, "jobs", "j", runtime.NumCPU(), "number of images processed concurrently")
	rootCmd.AddCommand(convertCmd)
}

func tiffCompression(s string) (imaging.TIFFCompression, error) {
	switch strings.ToLower(s) {
	case "lzw":
		return imaging.TIFFLZW, nil
	case "deflate", "zip":
		return imaging.TIFFDeflate, nil
	case "none":
		return imaging.TIFFNone, nil
	}
	return 0, fmt.Errorf("unknown tiff compression %q", s)
}

func runConvert(cmd *cobra.Command, args []string) error {
	fl := convFlags
	if (fl.placeW > 0) != (fl.placeH > 0) {
		return errors.New("place-width and place-height must be set together")
	}
	if fl.fit > 0 && fl.placeW > 0 {
		return errors.New("fit and place are exclusive")
	}
	compression, err := tiffCompression(fl.compression)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(fl.outDir, 0o755); err != nil {
		return err
	}

	jobs := make([]convertJob, 0, len(args))
	sources := make(map[string]string, len(args))
	for _, path := range args {
		job, err := planConvert(path, fl)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if prev, ok := sources[job.dst]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, path, job.dst)
		}
		sources[job.dst] = path
		jobs = append(jobs, job)
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(fl.jobs, 1))

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := convertFile(job, fl, compression); err != nil {
				return fmt.Errorf("%s: %w", job.src, err)
			}
			return nil
		})
	}

	return g.Wait()
}

type convertJob struct {
	src, dst string
	in, out  imaging.ContainerType
}

func planConvert(path string, fl convertFlags) (convertJob, error) {
	in, err := inputType(path, fl.from)
	if err != nil {
		return convertJob{}, err
	}
	out := in
	if fl.to != "" {
		if out, err = imaging.ParseContainerType(fl.to); err != nil {
			return convertJob{}, err
		}
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dst := filepath.Clean(filepath.Join(fl.outDir, base+"."+out.Extension()))
	if dst == filepath.Clean(path) {
		return convertJob{}, errors.New("output would overwrite input")
	}

	return convertJob{src: path, dst: dst, in: in, out: out}, nil
}

func convertFile(job convertJob, fl convertFlags, compression imaging.TIFFCompression) error {
	path, dst, out := job.src, job.dst, job.out

	logger := slog.Default().With("file", path)
	img, err := imaging.ReadFile(path, job.in, func(o *imaging.ReadOptions) { o.Logger = logger })
	if err != nil {
		return err
	}

	if fl.res > 0 {
		img.SetRes(fl.res)
	}
	if fl.stripXMP {
		img.ClearXMP()
	}

	edit := func(o *imaging.EditOptions) { o.Flatten = fl.flatten }
	switch {
	case fl.fit > 0:
		err = img.FitLongestSide(fl.fit, edit)
	case fl.placeW > 0:
		err = img.Place(fl.placeW, fl.placeH, edit)
	}
	if err != nil {
		return err
	}

	err = img.WriteFile(dst, out, func(o *imaging.WriteOptions) {
		o.Flatten = fl.flatten
		o.Quality = fl.quality
		o.TIFFCompression = compression
		o.CompactXMP = !fl.prettyXMP
		o.Logger = logger
	})
	if err != nil {
		return err
	}

	logger.Info("converted", "out", dst, "container", out, "res", img.Res())
	return nil
}
