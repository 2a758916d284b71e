// Package envmap provides the environment maps sampled for reflection
// directions that the screen-space march could not resolve.
package envmap

import (
	"bytes"
	"errors"
	"fmt"
	stdimage "image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/sscr/internal/image"
)

// Sampler returns the radiance arriving from a world-space direction.
// Directions need not be normalized.
type Sampler interface {
	Sample(dir mgl64.Vec3) mgl32.Vec4
}

// Uniform is an environment of constant radiance.
type Uniform struct {
	Color mgl32.Vec4
}

// Sample implements Sampler.
func (u Uniform) Sample(mgl64.Vec3) mgl32.Vec4 { return u.Color }

// Gradient is a procedural sky: Ground below the horizon, blending from
// Horizon to Zenith above it.
type Gradient struct {
	Zenith  mgl32.Vec4
	Horizon mgl32.Vec4
	Ground  mgl32.Vec4
}

// Sample implements Sampler.
func (g Gradient) Sample(dir mgl64.Vec3) mgl32.Vec4 {
	l := dir.Len()
	if l == 0 {
		return g.Horizon
	}
	up := float32(dir.Y() / l)
	if up < 0 {
		return g.Ground
	}
	return image.Lerp4(g.Horizon, g.Zenith, float32(math.Sqrt(float64(up))))
}

// Face indexes the six faces of a cube map.
type Face int

// Faces in the conventional +X, -X, +Y, -Y, +Z, -Z order.
const (
	FacePosX Face = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// ErrFaceMismatch is returned when cube faces are missing or not square and
// identically sized.
var ErrFaceMismatch = errors.New("envmap: cube faces must be square and equally sized")

// Cubemap is an environment stored as six square faces.
type Cubemap struct {
	faces [6]*image.ImageBuf
}

// NewCubemap builds a cube map from six faces in Face order.
func NewCubemap(faces [6]*image.ImageBuf) (*Cubemap, error) {
	if faces[0] == nil {
		return nil, ErrFaceMismatch
	}
	size := faces[0].Width()
	for i, f := range faces {
		if f == nil || f.Width() != size || f.Height() != size {
			return nil, fmt.Errorf("%w: face %d", ErrFaceMismatch, i)
		}
	}
	return &Cubemap{faces: faces}, nil
}

// ErrUnknownFaceFormat is returned for face files with an unrecognised
// extension.
var ErrUnknownFaceFormat = errors.New("envmap: unknown face format")

// faceDecoders maps file extensions to decoders. The tga package registers
// itself with an empty magic string, which makes image.Decode route every
// file to it, so faces are dispatched by extension instead.
var faceDecoders = map[string]func(io.Reader) (stdimage.Image, error){
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".bmp":  bmp.Decode,
	".tga":  tga.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
}

func decodeFace(path string, r io.Reader) (stdimage.Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := faceDecoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFaceFormat, ext)
	}
	return decode(r)
}

// LoadCubemap decodes six face images (PNG, JPEG, BMP, TGA or TIFF) in Face
// order into a linear HDR cube map.
func LoadCubemap(paths [6]string) (*Cubemap, error) {
	var faces [6]*image.ImageBuf
	for i, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("envmap: read %s: %w", path, err)
		}
		img, err := decodeFace(path, bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("envmap: decode %s: %w", path, err)
		}
		faces[i], err = image.FromImage(img, image.FormatRGBAHalf)
		if err != nil {
			return nil, fmt.Errorf("envmap: convert %s: %w", path, err)
		}
	}
	return NewCubemap(faces)
}

// FaceUV returns the face a direction hits and the normalized coordinates on
// that face, with (0,0) at the face's top-left corner.
func FaceUV(dir mgl64.Vec3) (Face, float64, float64) {
	x, y, z := dir.X(), dir.Y(), dir.Z()
	ax, ay, az := math.Abs(x), math.Abs(y), math.Abs(z)

	var face Face
	var sc, tc, ma float64
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if x > 0 {
			face, sc, tc = FacePosX, -z, -y
		} else {
			face, sc, tc = FaceNegX, z, -y
		}
	case ay >= az:
		ma = ay
		if y > 0 {
			face, sc, tc = FacePosY, x, z
		} else {
			face, sc, tc = FaceNegY, x, -z
		}
	default:
		ma = az
		if z > 0 {
			face, sc, tc = FacePosZ, x, -y
		} else {
			face, sc, tc = FaceNegZ, -x, -y
		}
	}
	if ma == 0 {
		return FacePosZ, 0.5, 0.5
	}
	return face, (sc/ma + 1) / 2, (tc/ma + 1) / 2
}

// Sample implements Sampler with bilinear filtering within a face.
func (c *Cubemap) Sample(dir mgl64.Vec3) mgl32.Vec4 {
	face, u, v := FaceUV(dir)
	return image.SampleBilinear(c.faces[face], float32(u), float32(v))
}
