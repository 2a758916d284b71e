package sscr

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

// DebugMode selects what the combine pass outputs.
type DebugMode int

const (
	// DebugCombine is the normal composite: scene plus reflection plus
	// environment where the reflection is missing.
	DebugCombine DebugMode = iota
	// DebugCombineNoEnvironment composites scene and reflection only.
	DebugCombineNoEnvironment
	// DebugReflectionAndEnvironment outputs the reflection with the
	// environment filling in where it is missing, without the scene.
	DebugReflectionAndEnvironment
	// DebugReflectionOnly outputs the resolved reflection.
	DebugReflectionOnly
	// DebugEnvironmentOnly outputs the environment component.
	DebugEnvironmentOnly

	debugModeCount
)

// debugModeTable maps each mode to its name and the integer the combine
// program switches on.
var debugModeTable = [debugModeCount]struct {
	name string
	pass int32
}{
	DebugCombine:                  {"combine", 0},
	DebugCombineNoEnvironment:     {"combine-no-environment", 1},
	DebugReflectionAndEnvironment: {"reflection-and-environment", 2},
	DebugReflectionOnly:           {"reflection-only", 3},
	DebugEnvironmentOnly:          {"environment-only", 4},
}

// Valid reports whether m is a known mode.
func (m DebugMode) Valid() bool {
	return m >= 0 && m < debugModeCount
}

// String returns the mode name.
func (m DebugMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("DebugMode(%d)", int(m))
	}
	return debugModeTable[m].name
}

// ShaderPass returns the integer the combine program receives as _DebugPass.
// Unknown modes map to the normal composite.
func (m DebugMode) ShaderPass() int32 {
	if !m.Valid() {
		return debugModeTable[DebugCombine].pass
	}
	return debugModeTable[m].pass
}

// ParseDebugMode parses a mode name as returned by String.
func ParseDebugMode(s string) (DebugMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m := DebugMode(0); m < debugModeCount; m++ {
		if debugModeTable[m].name == s {
			return m, nil
		}
	}
	return DebugCombine, fmt.Errorf("sscr: unknown debug mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m DebugMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DebugMode) UnmarshalText(text []byte) error {
	v, err := ParseDebugMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Parameter ranges.
const (
	MinRayStepBudget     = 1
	MaxRayStepBudget     = 100
	DefaultRayStepBudget = 50
)

// Parameters are the user-facing controls of the effect. Out-of-range values
// are clamped, never rejected.
type Parameters struct {
	// RayStepBudget is the number of ray march steps per pixel, in [1,100].
	RayStepBudget int `json:"ray_step_budget"`

	// TemporalNoise jitters the ray start per pixel and frame.
	TemporalNoise bool `json:"temporal_noise"`

	// ScreenFadeSize is the width, in UV units, of the band along the screen
	// border over which hit confidence fades to zero. In [0,1].
	ScreenFadeSize float64 `json:"screen_fade_size"`

	// SmoothnessRange scales surface smoothness, in [0,1].
	SmoothnessRange float64 `json:"smoothness_range"`

	// DebugMode selects the combine output.
	DebugMode DebugMode `json:"debug_mode"`
}

// DefaultParameters returns the default controls.
func DefaultParameters() Parameters {
	return Parameters{
		RayStepBudget:   DefaultRayStepBudget,
		TemporalNoise:   false,
		ScreenFadeSize:  0.25,
		SmoothnessRange: 1,
		DebugMode:       DebugCombine,
	}
}

// Clamped returns p with every field forced into its valid range. NaN
// values fall back to the defaults.
func (p Parameters) Clamped() Parameters {
	def := DefaultParameters()
	p.RayStepBudget = min(max(p.RayStepBudget, MinRayStepBudget), MaxRayStepBudget)
	p.ScreenFadeSize = clampUnit(p.ScreenFadeSize, def.ScreenFadeSize)
	p.SmoothnessRange = clampUnit(p.SmoothnessRange, def.SmoothnessRange)
	if !p.DebugMode.Valid() {
		p.DebugMode = DebugCombine
	}
	return p
}

func clampUnit(v, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return min(max(v, 0), 1)
}

// LoadParameters reads parameters from a JSON file. Fields missing from the
// file keep their defaults; the result is clamped.
func LoadParameters(path string) (Parameters, error) {
	p := DefaultParameters()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("sscr: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultParameters(), fmt.Errorf("sscr: parse %s: %w", path, err)
	}
	return p.Clamped(), nil
}
