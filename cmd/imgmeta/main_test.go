package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/imaging"
	"github.com/vearutop/imaging/xmp"
)

func writeSample(t *testing.T, path string, ct imaging.ContainerType) {
	t.Helper()

	raster := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			raster.SetNRGBA(x, y, color.NRGBA{R: uint8(6 * x), G: 90, B: 30, A: 255})
		}
	}

	img, err := imaging.New(raster, ct)
	require.NoError(t, err)
	img.SetRes(240)
	img.XMP().SetText(xmp.NSBasic, "CreatorTool", "imgmeta test")
	require.NoError(t, img.WriteFile(path, ct))
}

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestConvertAndInspect(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeSample(t, src, imaging.PNG)

	outDir := filepath.Join(dir, "out")
	execute(t, "convert", "--to", "tiff", "--fit", "10", "-o", outDir, "-j", "2", src)

	dst := filepath.Join(outDir, "a.tif")
	img, err := imaging.ReadFile(dst, imaging.TIFF)
	require.NoError(t, err)
	assert.Equal(t, 240, img.Res())
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 5, img.Bounds().Dy())
	tool, ok := img.XMP().GetText(xmp.NSBasic, "CreatorTool")
	assert.True(t, ok)
	assert.Equal(t, "imgmeta test", tool)

	out := execute(t, "inspect", dst)
	assert.Contains(t, out, "Container:   tiff")
	assert.Contains(t, out, "Resolution:  240 dpi")
	assert.Contains(t, out, `CreatorTool = "imgmeta test"`)
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	writeSample(t, src, imaging.JPEG)

	for _, args := range [][]string{
		{"convert", "--fit", "0", "--place-width", "10", src},
		{"convert", "--tiff-compression", "rle", src},
		{"convert", "--to", "jpeg", "-o", dir, src},
		{"inspect", filepath.Join(dir, "a.gif")},
	} {
		rootCmd.SetArgs(args)
		assert.Error(t, rootCmd.Execute(), args)
	}
}

func TestConvertRejectsSharedDestination(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "one", "a.png")
	second := filepath.Join(dir, "two", "a.png")
	for _, p := range []string{first, second} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		writeSample(t, p, imaging.PNG)
	}

	outDir := filepath.Join(dir, "out")
	rootCmd.SetArgs([]string{
		"convert", "--to", "png", "--fit", "0", "--place-width", "0", "--tiff-compression", "lzw",
		"-j", "4", "-o", outDir, first, second,
	})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(outDir, "a.png"))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
