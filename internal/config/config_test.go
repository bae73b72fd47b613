package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 4000 {
		t.Errorf("default port %d", cfg.Server.Port)
	}
	if cfg.Simulation.DefaultParticles != 3000 {
		t.Errorf("default particles %d", cfg.Simulation.DefaultParticles)
	}
	if cfg.WebSocket.HeartbeatIntervalSec != 5 || cfg.WebSocket.ClientTimeoutSec != 10 {
		t.Errorf("liveness defaults %+v", cfg.WebSocket)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.DefaultParticles != 3000 {
		t.Errorf("expected defaults, got %+v", cfg.Simulation)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	want := Default()
	want.Server.Port = 9999
	want.Simulation.DefaultParticles = 1234
	want.Simulation.GravityStrength = 2.5
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Server.Port != 9999 || got.Simulation.DefaultParticles != 1234 {
		t.Errorf("round trip lost values: %+v", got)
	}
	if got.Simulation.GravityStrength != 2.5 {
		t.Errorf("gravity %v", got.Simulation.GravityStrength)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a mapping"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NBODY_PORT", "8123")
	t.Setenv("NBODY_DEBUG", "true")
	t.Setenv("NBODY_PARTICLES", "500")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("env port override ignored: %d", cfg.Server.Port)
	}
	if !cfg.Server.Debug {
		t.Error("env debug override ignored")
	}
	if cfg.Simulation.DefaultParticles != 500 {
		t.Errorf("env particles override ignored: %d", cfg.Simulation.DefaultParticles)
	}
}

func TestSimConfig(t *testing.T) {
	cfg := Default()
	cfg.Simulation.DefaultParticles = 777
	cfg.Server.Debug = true

	sc := cfg.SimConfig()
	if sc.ParticleCount != 777 {
		t.Errorf("particle count %d", sc.ParticleCount)
	}
	if !sc.Debug {
		t.Error("debug flag not carried over")
	}
	if err := sc.Validate(); err != nil {
		t.Errorf("derived sim config invalid: %v", err)
	}
}
