// Package sscr renders screen space cone reflections.
//
// # Overview
//
// A single screen space ray march finds, for every pixel, the surface its
// reflected view ray hits. The lit scene is then turned into a pyramid of
// progressively wider cone blurs, and each hit samples that pyramid at the
// level matching the surface roughness: mirrors read the sharp base level,
// rough surfaces a blurred one. The result is composited over the scene,
// with an environment map filling in where the ray found nothing.
//
// # Quick Start
//
//	p := sscr.NewPipeline()
//	defer p.Close()
//
//	dst, _ := sscr.NewBuffer(w, h, sscr.FormatRGBAFloat)
//	report, err := p.Render(ctx, &sscr.Frame{
//	    Color:  color,
//	    Depth:  depth,
//	    Camera: sscr.Camera{View: view, Projection: proj},
//	}, sscr.DefaultParameters(), dst)
//
// # Passes
//
// Each frame runs, in order:
//   - the color pass, copying the scene into the HDR main buffer
//   - the ray march, at half resolution, writing hit uv and confidence
//   - the pyramid: a bilinear resample into the raw pyramid, its box mip
//     chain, then one cone blur per level of the filtered pyramid
//   - the resolve, sampling the filtered pyramid at each hit
//   - the combine, producing the final or a debug image
//
// The passes correspond to the programs in internal/shader, which share one
// parameter block. Pixels are produced on the host; with WithHALDevice or
// WithDeviceProvider the programs, the pyramid textures and the parameter
// block are also kept resident on a wgpu device.
//
// # Errors
//
// Render only fails for invalid inputs. Singular camera matrices, an
// exhausted buffer budget or a cancelled context skip the effect for that
// frame: the scene color is copied through and FrameReport says why.
//
// # Logging
//
// sscr is silent by default. See SetLogger.
package sscr
