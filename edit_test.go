package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/draw"
)

func TestPlanFitLongestSide(t *testing.T) {
	for _, c := range []struct {
		w, h, length int
		want         EditPlan
	}{
		{w: 200, h: 400, length: 100, want: EditPlan{CanvasWidth: 50, CanvasHeight: 100, ImageWidth: 50, ImageHeight: 100}},
		{w: 400, h: 200, length: 100, want: EditPlan{CanvasWidth: 100, CanvasHeight: 50, ImageWidth: 100, ImageHeight: 50}},
		{w: 3, h: 2, length: 10, want: EditPlan{CanvasWidth: 10, CanvasHeight: 7, ImageWidth: 10, ImageHeight: 7}},
		{w: 1000, h: 1, length: 10, want: EditPlan{CanvasWidth: 10, CanvasHeight: 1, ImageWidth: 10, ImageHeight: 1}},
	} {
		got, err := PlanFitLongestSide(c.w, c.h, c.length)
		if err != nil {
			t.Fatalf("%dx%d: %v", c.w, c.h, err)
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("%dx%d to %d (-want +got):\n%s", c.w, c.h, c.length, diff)
		}
	}

	if _, err := PlanFitLongestSide(10, 10, 0); err == nil {
		t.Error("zero length accepted")
	}
	if _, err := PlanFitLongestSide(0, 10, 5); err == nil {
		t.Error("empty raster accepted")
	}
}

func TestPlanPlace(t *testing.T) {
	for _, c := range []struct {
		w, h, cw, ch int
		want         EditPlan
	}{
		{
			w: 200, h: 400, cw: 100, ch: 100,
			want: EditPlan{CanvasWidth: 100, CanvasHeight: 100, ImageWidth: 50, ImageHeight: 100, OffsetX: 25},
		},
		{
			w: 400, h: 200, cw: 100, ch: 100,
			want: EditPlan{CanvasWidth: 100, CanvasHeight: 100, ImageWidth: 100, ImageHeight: 50, OffsetY: 25},
		},
		{
			// The remainder of 3 is truncated.
			w: 10, h: 10, cw: 13, ch: 10,
			want: EditPlan{CanvasWidth: 13, CanvasHeight: 10, ImageWidth: 10, ImageHeight: 10, OffsetX: 1},
		},
		{
			w: 10, h: 10, cw: 40, ch: 20,
			want: EditPlan{CanvasWidth: 40, CanvasHeight: 20, ImageWidth: 20, ImageHeight: 20, OffsetX: 10},
		},
	} {
		got, err := PlanPlace(c.w, c.h, c.cw, c.ch)
		if err != nil {
			t.Fatalf("%dx%d: %v", c.w, c.h, err)
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("%dx%d in %dx%d (-want +got):\n%s", c.w, c.h, c.cw, c.ch, diff)
		}
	}

	if _, err := PlanPlace(10, 10, 0, 5); err == nil {
		t.Error("empty canvas accepted")
	}
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestPlaceOpaque(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 400))
	draw.Draw(src, src.Bounds(), image.NewUniform(color.RGBA{R: 255, A: 255}), image.Point{}, draw.Src)

	img, err := New(src, JPEG)
	if err != nil {
		t.Fatal(err)
	}
	img.SetBackground(color.RGBA{G: 255, A: 255})

	if err := img.Place(100, 100); err != nil {
		t.Fatal(err)
	}

	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("bounds %v", b)
	}
	if img.HasAlpha() {
		t.Error("opaque source produced alpha canvas")
	}
	for _, p := range []struct {
		x, y int
		want color.RGBA
	}{
		{x: 5, y: 50, want: color.RGBA{G: 255, A: 255}},
		{x: 95, y: 50, want: color.RGBA{G: 255, A: 255}},
		{x: 50, y: 50, want: color.RGBA{R: 255, A: 255}},
	} {
		got := color.RGBAModel.Convert(img.Raster().At(p.x, p.y)).(color.RGBA)
		if got != p.want {
			t.Errorf("pixel %d,%d: want %v, got %v", p.x, p.y, p.want, got)
		}
	}
}

func TestPlaceKeepsTransparency(t *testing.T) {
	img, err := New(solid(10, 20, color.NRGBA{B: 255, A: 128}), PNG)
	if err != nil {
		t.Fatal(err)
	}

	if err := img.Place(40, 20, func(o *EditOptions) { o.Interpolation = InterpolationNearest }); err != nil {
		t.Fatal(err)
	}
	if !img.HasAlpha() {
		t.Fatal("alpha lost")
	}
	if _, _, _, a := img.Raster().At(1, 10).RGBA(); a != 0 {
		t.Errorf("letterbox not transparent: %d", a)
	}

	flat, err := New(solid(10, 20, color.NRGBA{B: 255, A: 128}), PNG)
	if err != nil {
		t.Fatal(err)
	}
	if err := flat.Place(40, 20, func(o *EditOptions) { o.Flatten = true }); err != nil {
		t.Fatal(err)
	}
	if flat.HasAlpha() {
		t.Error("flatten kept alpha")
	}
	if got := color.RGBAModel.Convert(flat.Raster().At(1, 10)).(color.RGBA); got != white {
		t.Errorf("letterbox: %v", got)
	}
}

func TestPlaceAlphaRasterWithOpaquePixels(t *testing.T) {
	img, err := New(solid(4, 2, color.NRGBA{G: 200, A: 255}), PNG)
	if err != nil {
		t.Fatal(err)
	}
	if !img.HasAlpha() {
		t.Fatal("nrgba raster reported without alpha")
	}
	img.SetBackground(color.RGBA{R: 255, A: 255})

	if err := img.Place(4, 4); err != nil {
		t.Fatal(err)
	}
	if _, ok := img.Raster().(*image.NRGBA); !ok {
		t.Fatalf("unexpected raster %T", img.Raster())
	}
	if !img.HasAlpha() {
		t.Error("alpha flag lost")
	}
	if got := color.NRGBAModel.Convert(img.Raster().At(0, 0)).(color.NRGBA); got.A != 0 {
		t.Errorf("letterbox not transparent: %v", got)
	}
	if got := color.NRGBAModel.Convert(img.Raster().At(2, 2)).(color.NRGBA); got != (color.NRGBA{G: 200, A: 255}) {
		t.Errorf("image pixel: %v", got)
	}

	img.RemoveAlpha()
	if img.HasAlpha() {
		t.Error("alpha flag kept after RemoveAlpha")
	}
}

func TestFitLongestSide(t *testing.T) {
	img, err := New(solid(200, 400, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), TIFF)
	if err != nil {
		t.Fatal(err)
	}

	for _, interp := range []Interpolation{
		InterpolationNearest, InterpolationBilinear, InterpolationBicubic,
		InterpolationMitchellNetravali, InterpolationLanczos2, InterpolationLanczos3,
	} {
		c := img.Clone(ShareXMP)
		if err := c.FitLongestSide(100, func(o *EditOptions) { o.Interpolation = interp }); err != nil {
			t.Fatal(err)
		}
		if b := c.Bounds(); b.Dx() != 50 || b.Dy() != 100 {
			t.Errorf("interpolation %d: bounds %v", interp, b)
		}
	}

	if err := img.FitLongestSide(0); err == nil {
		t.Error("zero length accepted")
	}
}

func TestEdit(t *testing.T) {
	img, err := New(solid(4, 4, color.NRGBA{R: 255, A: 255}), PNG)
	if err != nil {
		t.Fatal(err)
	}

	plan := EditPlan{CanvasWidth: 8, CanvasHeight: 6, ImageWidth: 4, ImageHeight: 4, OffsetX: 4, OffsetY: 2}
	if err := img.Edit(plan); err != nil {
		t.Fatal(err)
	}
	if got := color.RGBAModel.Convert(img.Raster().At(0, 0)).(color.RGBA); got != white {
		t.Errorf("canvas: %v", got)
	}
	if got := color.RGBAModel.Convert(img.Raster().At(5, 3)).(color.RGBA); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("image: %v", got)
	}

	if err := img.Edit(EditPlan{}); err == nil {
		t.Error("empty plan accepted")
	}
}
