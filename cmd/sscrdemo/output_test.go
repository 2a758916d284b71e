package main

import (
	"errors"
	stdimage "image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/sscr"
)

func testImage() *stdimage.RGBA {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 8, 6))
	for y := range 6 {
		for x := range 8 {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 40), B: 90, A: 255})
		}
	}
	return img
}

func TestWriteImage(t *testing.T) {
	dir := t.TempDir()
	for _, ext := range []string{".png", ".webp", ".bmp", ".tiff"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "out"+ext)
			if err := writeImage(path, testImage()); err != nil {
				t.Fatalf("writeImage: %v", err)
			}
			fi, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if fi.Size() == 0 {
				t.Error("empty output file")
			}
		})
	}
}

func TestWriteImage_UnsupportedFormat(t *testing.T) {
	err := writeImage(filepath.Join(t.TempDir(), "out.xyz"), testImage())
	if !errors.Is(err, errUnsupportedFormat) {
		t.Errorf("err = %v, want errUnsupportedFormat", err)
	}
}

func TestScaleImage(t *testing.T) {
	img := testImage()
	if got := scaleImage(img, 1); got != stdimage.Image(img) {
		t.Error("scale 1 should return the input")
	}
	got := scaleImage(img, 0.5)
	if b := got.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("bounds = %v, want 4x3", b)
	}
}

func TestLoadEnvironment(t *testing.T) {
	env, err := loadEnvironment("")
	if err != nil || env == nil {
		t.Fatalf("loadEnvironment(\"\") = %v, %v", env, err)
	}
	if _, err := loadEnvironment("a.png,b.png"); !errors.Is(err, errFaceCount) {
		t.Errorf("err = %v, want errFaceCount", err)
	}
}

func TestRenderScene(t *testing.T) {
	env, _ := loadEnvironment("")
	frame, err := renderScene(32, 16, env)
	if err != nil {
		t.Fatalf("renderScene: %v", err)
	}
	if w, h := frame.Color.Bounds(); w != 32 || h != 16 {
		t.Errorf("frame size = %dx%d, want 32x16", w, h)
	}
	if frame.Camera.Convention != sscr.ClipZeroToOne {
		t.Error("demo camera should use the zero to one convention")
	}
}
