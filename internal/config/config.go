// Package config loads the server's YAML configuration file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/softwarewrighter/n-body/internal/sim"
)

// Config is the full server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Simulation SimulationConfig `yaml:"simulation"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
}

// ServerConfig covers the HTTP listener and hosting of the rendering client.
type ServerConfig struct {
	Host      string `yaml:"host" env:"NBODY_HOST"`
	Port      int    `yaml:"port" env:"NBODY_PORT"`
	StaticDir string `yaml:"static_dir" env:"NBODY_STATIC_DIR"`
	Debug     bool   `yaml:"debug" env:"NBODY_DEBUG"`
}

// SimulationConfig seeds each new session's simulation.
type SimulationConfig struct {
	DefaultParticles int     `yaml:"default_particles" env:"NBODY_PARTICLES"`
	TimeStep         float32 `yaml:"time_step" env:"NBODY_TIME_STEP"`
	GravityStrength  float32 `yaml:"gravity_strength" env:"NBODY_GRAVITY"`
	VisualFPS        int     `yaml:"visual_fps" env:"NBODY_VISUAL_FPS"`
}

// WebSocketConfig tunes session liveness.
type WebSocketConfig struct {
	HeartbeatIntervalSec int `yaml:"heartbeat_interval_sec" env:"NBODY_HEARTBEAT_SEC"`
	ClientTimeoutSec     int `yaml:"client_timeout_sec" env:"NBODY_CLIENT_TIMEOUT_SEC"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      4000,
			StaticDir: "www",
		},
		Simulation: SimulationConfig{
			DefaultParticles: 3000,
			TimeStep:         0.01,
			GravityStrength:  1.0,
			VisualFPS:        30,
		},
		WebSocket: WebSocketConfig{
			HeartbeatIntervalSec: 5,
			ClientTimeoutSec:     10,
		},
	}
}

// Load reads path on top of the defaults, then applies environment
// overrides. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SimConfig translates the server defaults into a per-session simulation
// configuration.
func (c *Config) SimConfig() sim.Config {
	out := sim.DefaultConfig()
	if c.Simulation.DefaultParticles > 0 {
		out.ParticleCount = c.Simulation.DefaultParticles
	}
	if c.Simulation.TimeStep > 0 {
		out.TimeStep = c.Simulation.TimeStep
	}
	if c.Simulation.GravityStrength != 0 {
		out.GravityStrength = c.Simulation.GravityStrength
	}
	if c.Simulation.VisualFPS > 0 {
		out.VisualFPS = c.Simulation.VisualFPS
	}
	out.Debug = c.Server.Debug
	return out
}

// HeartbeatInterval returns the ping cadence.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.WebSocket.HeartbeatIntervalSec) * time.Second
}

// ClientTimeout returns how long a silent peer is tolerated.
func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.WebSocket.ClientTimeoutSec) * time.Second
}
