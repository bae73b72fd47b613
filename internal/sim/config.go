package sim

import (
	"fmt"
	"math"
)

// MaxParticles is the hard cap on the particle array size.
const MaxParticles = 15000

// Config holds the runtime-tunable simulation options. The same shape rides
// the wire in UpdateConfig requests and Config echoes.
type Config struct {
	ParticleCount   int     `json:"particle_count" yaml:"particle_count"`
	TimeStep        float32 `json:"time_step" yaml:"time_step"`
	GravityStrength float32 `json:"gravity_strength" yaml:"gravity_strength"`
	VisualFPS       int     `json:"visual_fps" yaml:"visual_fps"`
	ZoomLevel       float32 `json:"zoom_level" yaml:"zoom_level"`
	Debug           bool    `json:"debug" yaml:"debug"`
}

// DefaultConfig returns the server defaults applied to fresh sessions.
func DefaultConfig() Config {
	return Config{
		ParticleCount:   3000,
		TimeStep:        0.01,
		GravityStrength: 1.0,
		VisualFPS:       30,
		ZoomLevel:       1.0,
	}
}

// Validate checks the whole configuration. Rejection is all-or-nothing: a
// config that fails here is never partially applied.
func (c Config) Validate() error {
	if c.ParticleCount < 1 {
		return fmt.Errorf("particle_count must be at least 1, got %d", c.ParticleCount)
	}
	if c.ParticleCount > MaxParticles {
		return fmt.Errorf("particle_count %d exceeds maximum of %d", c.ParticleCount, MaxParticles)
	}
	if !finite32(c.TimeStep) || c.TimeStep <= 0 {
		return fmt.Errorf("time_step must be a positive finite number, got %v", c.TimeStep)
	}
	if !finite32(c.GravityStrength) {
		return fmt.Errorf("gravity_strength must be finite, got %v", c.GravityStrength)
	}
	if c.VisualFPS < 1 || c.VisualFPS > 60 {
		return fmt.Errorf("visual_fps must be in 1..60, got %d", c.VisualFPS)
	}
	if !finite32(c.ZoomLevel) {
		return fmt.Errorf("zoom_level must be finite, got %v", c.ZoomLevel)
	}
	return nil
}

func finite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
