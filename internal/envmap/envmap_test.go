package envmap

import (
	"errors"
	"fmt"
	stdimage "image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/sscr/internal/image"
)

func TestFaceUV(t *testing.T) {
	tests := []struct {
		name string
		dir  mgl64.Vec3
		face Face
	}{
		{"+x", mgl64.Vec3{1, 0, 0}, FacePosX},
		{"-x", mgl64.Vec3{-2, 0.1, 0}, FaceNegX},
		{"+y", mgl64.Vec3{0, 3, 0}, FacePosY},
		{"-y", mgl64.Vec3{0.2, -1, 0.1}, FaceNegY},
		{"+z", mgl64.Vec3{0, 0, 1}, FacePosZ},
		{"-z", mgl64.Vec3{0, 0, -1}, FaceNegZ},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face, u, v := FaceUV(tt.dir)
			if face != tt.face {
				t.Errorf("face = %d, want %d", face, tt.face)
			}
			if u < 0 || u > 1 || v < 0 || v > 1 {
				t.Errorf("uv = (%v, %v), want within [0,1]", u, v)
			}
		})
	}

	// Axis directions hit face centers.
	if _, u, v := FaceUV(mgl64.Vec3{0, 0, -5}); u != 0.5 || v != 0.5 {
		t.Errorf("-z center = (%v, %v), want (0.5, 0.5)", u, v)
	}
	// Looking along -z, up (+y) is the top of the face.
	if _, _, v := FaceUV(mgl64.Vec3{0, 0.5, -1}); v >= 0.5 {
		t.Errorf("-z upward v = %v, want < 0.5", v)
	}
}

func TestGradient(t *testing.T) {
	g := Gradient{
		Zenith:  mgl32.Vec4{0, 0, 1, 1},
		Horizon: mgl32.Vec4{1, 1, 1, 1},
		Ground:  mgl32.Vec4{0.1, 0.1, 0.1, 1},
	}
	if got := g.Sample(mgl64.Vec3{0, 1, 0}); got != g.Zenith {
		t.Errorf("zenith = %v, want %v", got, g.Zenith)
	}
	if got := g.Sample(mgl64.Vec3{1, 0, 0}); got != g.Horizon {
		t.Errorf("horizon = %v, want %v", got, g.Horizon)
	}
	if got := g.Sample(mgl64.Vec3{0, -1, 0}); got != g.Ground {
		t.Errorf("ground = %v, want %v", got, g.Ground)
	}
	if got := g.Sample(mgl64.Vec3{}); got != g.Horizon {
		t.Errorf("zero dir = %v, want horizon", got)
	}
}

func solidFace(t *testing.T, size int, c mgl32.Vec4) *image.ImageBuf {
	t.Helper()
	buf, err := image.NewImageBuf(size, size, image.FormatRGBAHalf)
	if err != nil {
		t.Fatal(err)
	}
	buf.Fill(c)
	return buf
}

func TestCubemap_Sample(t *testing.T) {
	var faces [6]*image.ImageBuf
	for i := range faces {
		faces[i] = solidFace(t, 4, mgl32.Vec4{float32(i), 0, 0, 1})
	}
	cube, err := NewCubemap(faces)
	if err != nil {
		t.Fatalf("NewCubemap: %v", err)
	}
	dirs := []mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for i, d := range dirs {
		if got := cube.Sample(d)[0]; got != float32(i) {
			t.Errorf("Sample(%v) = %v, want face %d", d, got, i)
		}
	}
}

func TestNewCubemap_Mismatch(t *testing.T) {
	var faces [6]*image.ImageBuf
	for i := range faces {
		faces[i] = solidFace(t, 4, mgl32.Vec4{})
	}
	faces[3] = solidFace(t, 8, mgl32.Vec4{})
	if _, err := NewCubemap(faces); !errors.Is(err, ErrFaceMismatch) {
		t.Errorf("err = %v, want ErrFaceMismatch", err)
	}
	if _, err := NewCubemap([6]*image.ImageBuf{}); !errors.Is(err, ErrFaceMismatch) {
		t.Errorf("err = %v, want ErrFaceMismatch", err)
	}
}

func TestLoadCubemap(t *testing.T) {
	dir := t.TempDir()
	var paths [6]string
	for i := range paths {
		img := stdimage.NewNRGBA(stdimage.Rect(0, 0, 8, 8))
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				img.SetNRGBA(x, y, color.NRGBA{R: uint8(40 * i), G: 255, A: 255})
			}
		}
		var name string
		var encode func(f *os.File) error
		switch i {
		case 1:
			name = "face1.bmp"
			encode = func(f *os.File) error { return bmp.Encode(f, img) }
		case 2:
			name = "face2.tiff"
			encode = func(f *os.File) error { return tiff.Encode(f, img, nil) }
		case 3:
			name = "face3.tga"
			encode = func(f *os.File) error { return tga.Encode(f, img) }
		case 4:
			name = "face4.JPG"
			encode = func(f *os.File) error { return jpeg.Encode(f, img, nil) }
		default:
			name = fmt.Sprintf("face%d.png", i)
			encode = func(f *os.File) error { return png.Encode(f, img) }
		}
		paths[i] = filepath.Join(dir, name)
		f, err := os.Create(paths[i])
		if err != nil {
			t.Fatal(err)
		}
		if err := encode(f); err != nil {
			t.Fatalf("encode %s: %v", name, err)
		}
		f.Close()
	}

	cube, err := LoadCubemap(paths)
	if err != nil {
		t.Fatalf("LoadCubemap: %v", err)
	}
	got := cube.Sample(mgl64.Vec3{-1, 0, 0})
	want := float32(math.Pow(40.0/255, 2.2))
	if math.Abs(float64(got[0]-want)) > 1e-3 || got[1] < 0.99 {
		t.Errorf("-x face = %v, want R %v G 1", got, want)
	}

	// -y comes from the TGA face, -z from a PNG face.
	for _, tt := range []struct {
		name string
		dir  mgl64.Vec3
		r    float64
	}{
		{"tga", mgl64.Vec3{0, -1, 0}, 120},
		{"png", mgl64.Vec3{0, 0, -1}, 200},
	} {
		got := cube.Sample(tt.dir)
		want := float32(math.Pow(tt.r/255, 2.2))
		if math.Abs(float64(got[0]-want)) > 1e-3 || got[1] < 0.99 {
			t.Errorf("%s face = %v, want R %v G 1", tt.name, got, want)
		}
	}

	paths[5] = filepath.Join(dir, "missing.png")
	if _, err := LoadCubemap(paths); err == nil {
		t.Error("expected error for missing face")
	}
}

func TestLoadCubemap_UnknownExtension(t *testing.T) {
	dir := t.TempDir()
	var paths [6]string
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("face%d.xyz", i))
		if err := os.WriteFile(paths[i], []byte("not an image"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := LoadCubemap(paths); !errors.Is(err, ErrUnknownFaceFormat) {
		t.Errorf("err = %v, want ErrUnknownFaceFormat", err)
	}
}
