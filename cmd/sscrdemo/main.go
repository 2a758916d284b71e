// Command sscrdemo renders a mirror floor with a cube standing on it and
// writes the reflection composite to an image file.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/sscr"
	"github.com/gogpu/sscr/internal/envmap"
	"github.com/gogpu/sscr/internal/image"
	"github.com/gogpu/sscr/internal/scenegen"
)

func main() {
	var (
		width      = flag.Int("width", 640, "image width")
		height     = flag.Int("height", 360, "image height")
		output     = flag.String("output", "sscr.png", "output file (.png, .webp, .bmp, .tif)")
		scale      = flag.Float64("scale", 1, "output scale factor")
		exposure   = flag.Float64("exposure", 1, "tone mapping exposure")
		paramsPath = flag.String("params", "", "JSON parameter file")
		debug      = flag.String("debug", "", "debug mode (combine, combine-no-environment, reflection-and-environment, reflection-only, environment-only)")
		steps      = flag.Int("steps", 0, "ray step budget override (1-100)")
		noise      = flag.Bool("noise", false, "enable temporal noise")
		frames     = flag.Int("frames", 1, "number of frames to render; the last one is written")
		cubemap    = flag.String("cubemap", "", "comma separated +x,-x,+y,-y,+z,-z face images")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	sscr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	params := sscr.DefaultParameters()
	if *paramsPath != "" {
		p, err := sscr.LoadParameters(*paramsPath)
		if err != nil {
			log.Fatalf("Failed to load parameters: %v", err)
		}
		params = p
	}
	if *debug != "" {
		mode, err := sscr.ParseDebugMode(*debug)
		if err != nil {
			log.Fatal(err)
		}
		params.DebugMode = mode
	}
	if *steps > 0 {
		params.RayStepBudget = *steps
	}
	if *noise {
		params.TemporalNoise = true
	}

	env, err := loadEnvironment(*cubemap)
	if err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	frame, err := renderScene(*width, *height, env)
	if err != nil {
		log.Fatalf("Failed to render scene: %v", err)
	}

	p := sscr.NewPipeline()
	defer p.Close()

	dst, err := sscr.NewBuffer(*width, *height, sscr.FormatRGBAFloat)
	if err != nil {
		log.Fatal(err)
	}
	for i := range max(*frames, 1) {
		frame.Index = uint32(i)
		report, err := p.Render(context.Background(), frame, params, dst)
		if err != nil {
			log.Fatalf("Render failed: %v", err)
		}
		if report.Skipped {
			log.Printf("Frame %d skipped: %v", i, report.Reason)
		} else {
			log.Printf("Frame %d: %d rays, %d hits, max %d steps, %v",
				i, report.RayMarch.Rays, report.RayMarch.Hits, report.RayMarch.MaxIterations, report.Duration)
		}
	}

	img := image.ToRGBA(dst, float32(*exposure))
	if err := writeImage(*output, scaleImage(img, *scale)); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Saved %s (%dx%d, %s)\n", *output, *width, *height, params.DebugMode)
}

// loadEnvironment returns the cube map named by a comma separated face list,
// or the procedural sky when the list is empty.
func loadEnvironment(faces string) (sscr.Environment, error) {
	if faces == "" {
		return scenegen.DefaultSky(), nil
	}
	parts := strings.Split(faces, ",")
	if len(parts) != 6 {
		return nil, errFaceCount
	}
	var paths [6]string
	for i, p := range parts {
		paths[i] = strings.TrimSpace(p)
	}
	cube, err := envmap.LoadCubemap(paths)
	if err != nil {
		return nil, err
	}
	return cube, nil
}

// renderScene produces the frame inputs for the demo camera.
func renderScene(width, height int, env sscr.Environment) (*sscr.Frame, error) {
	cam := sscr.Camera{
		View:       mgl64.LookAtV(mgl64.Vec3{1.5, 1.8, 4.5}, mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{0, 1, 0}),
		Projection: mgl64.Perspective(mgl64.DegToRad(50), float64(width)/float64(height), 0.1, 100),
		Convention: sscr.ClipZeroToOne,
	}
	scene := scenegen.MirrorFloor()
	if s, ok := env.(envmap.Sampler); ok {
		scene.Sky = s
	}
	out, err := scene.Render(width, height, cam.View, sscr.GPUProjection(cam.Projection, cam.Convention, cam.FlipY))
	if err != nil {
		return nil, err
	}
	return &sscr.Frame{
		Color:       out.Color,
		Depth:       out.Depth,
		Normals:     out.Normals,
		Smoothness:  out.Smoothness,
		Camera:      cam,
		Environment: env,
	}, nil
}
