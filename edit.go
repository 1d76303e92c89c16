package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// EditPlan describes how a raster is scaled and placed on a canvas.
type EditPlan struct {
	CanvasWidth, CanvasHeight int
	ImageWidth, ImageHeight   int
	OffsetX, OffsetY          int

	// Flatten makes the canvas opaque even when the source has alpha.
	Flatten bool
}

// EditOptions controls edit operations.
type EditOptions struct {
	Flatten       bool
	Interpolation Interpolation
}

var errEmptyRaster = errors.New("empty raster")

// PlanFitLongestSide scales a w by h raster so that its longer side
// becomes length. The canvas matches the scaled image.
func PlanFitLongestSide(w, h, length int) (EditPlan, error) {
	if w <= 0 || h <= 0 {
		return EditPlan{}, errEmptyRaster
	}
	if length <= 0 {
		return EditPlan{}, fmt.Errorf("invalid length %d", length)
	}

	s := float32(length) / float32(max(w, h))
	iw, ih := scaled(s, w), scaled(s, h)

	return EditPlan{
		CanvasWidth:  iw,
		CanvasHeight: ih,
		ImageWidth:   iw,
		ImageHeight:  ih,
	}, nil
}

// PlanPlace fits a w by h raster inside a cw by ch canvas and centres it.
// Odd remainders are truncated, so the image may sit one pixel off centre.
func PlanPlace(w, h, cw, ch int) (EditPlan, error) {
	if w <= 0 || h <= 0 {
		return EditPlan{}, errEmptyRaster
	}
	if cw <= 0 || ch <= 0 {
		return EditPlan{}, fmt.Errorf("invalid canvas %dx%d", cw, ch)
	}

	s := min(float32(cw)/float32(w), float32(ch)/float32(h))
	iw, ih := scaled(s, w), scaled(s, h)

	return EditPlan{
		CanvasWidth:  cw,
		CanvasHeight: ch,
		ImageWidth:   iw,
		ImageHeight:  ih,
		OffsetX:      (cw - iw) / 2,
		OffsetY:      (ch - ih) / 2,
	}, nil
}

func scaled(s float32, v int) int {
	return max(round32(s*float32(v)), 1)
}

func editOptions(opts []func(o *EditOptions)) EditOptions {
	var opt EditOptions
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}
	return opt
}

// FitLongestSide scales the raster so that its longer side becomes length.
func (img *Image) FitLongestSide(length int, opts ...func(o *EditOptions)) error {
	opt := editOptions(opts)
	b := img.raster.Bounds()

	plan, err := PlanFitLongestSide(b.Dx(), b.Dy(), length)
	if err != nil {
		return err
	}
	plan.Flatten = opt.Flatten

	img.composite(plan, opt.Interpolation)
	return nil
}

// Place scales the raster to fit inside a canvas of the given size and
// centres it there. Uncovered canvas is the background colour when the
// result is opaque and transparent otherwise.
func (img *Image) Place(canvasWidth, canvasHeight int, opts ...func(o *EditOptions)) error {
	opt := editOptions(opts)
	b := img.raster.Bounds()

	plan, err := PlanPlace(b.Dx(), b.Dy(), canvasWidth, canvasHeight)
	if err != nil {
		return err
	}
	plan.Flatten = opt.Flatten

	img.composite(plan, opt.Interpolation)
	return nil
}

// Edit applies a precomputed plan.
func (img *Image) Edit(plan EditPlan, opts ...func(o *EditOptions)) error {
	opt := editOptions(opts)
	if plan.CanvasWidth <= 0 || plan.CanvasHeight <= 0 || plan.ImageWidth <= 0 || plan.ImageHeight <= 0 {
		return fmt.Errorf("invalid edit plan %+v", plan)
	}
	plan.Flatten = plan.Flatten || opt.Flatten

	img.composite(plan, opt.Interpolation)
	return nil
}

func (img *Image) composite(plan EditPlan, interp Interpolation) {
	canvasRect := image.Rect(0, 0, plan.CanvasWidth, plan.CanvasHeight)

	var canvas draw.Image
	opaque := plan.Flatten || !img.alpha
	if opaque {
		rgba := image.NewRGBA(canvasRect)
		draw.Draw(rgba, canvasRect, image.NewUniform(img.background), image.Point{}, draw.Src)
		canvas = rgba
	} else {
		nrgba := image.NewNRGBA(canvasRect)
		draw.Draw(nrgba, canvasRect, image.NewUniform(color.Transparent), image.Point{}, draw.Src)
		canvas = nrgba
	}

	src := scale(img.raster, plan.ImageWidth, plan.ImageHeight, interp)
	target := image.Rect(plan.OffsetX, plan.OffsetY, plan.OffsetX+plan.ImageWidth, plan.OffsetY+plan.ImageHeight)
	draw.Draw(canvas, target, src, src.Bounds().Min, draw.Over)

	img.raster = canvas
	img.alpha = !opaque
}
