package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softwarewrighter/n-body/internal/physics"
	"github.com/softwarewrighter/n-body/internal/sim"
)

func TestDecodeClientUpdateConfig(t *testing.T) {
	raw := `{"type":"UpdateConfig","particle_count":5000,"time_step":0.01,` +
		`"gravity_strength":1.5,"visual_fps":30,"zoom_level":2.0,"debug":true}`

	msg, err := DecodeClient([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, TypeUpdateConfig, msg.Type)
	assert.Equal(t, 5000, msg.Config.ParticleCount)
	assert.InDelta(t, 0.01, msg.Config.TimeStep, 1e-6)
	assert.InDelta(t, 1.5, msg.Config.GravityStrength, 1e-6)
	assert.Equal(t, 30, msg.Config.VisualFPS)
	assert.InDelta(t, 2.0, msg.Config.ZoomLevel, 1e-6)
	assert.True(t, msg.Config.Debug)
}

func TestDecodeClientBareTags(t *testing.T) {
	for _, tag := range []string{TypeReset, TypePause, TypeResume} {
		msg, err := DecodeClient([]byte(`{"type":"` + tag + `"}`))
		require.NoError(t, err, tag)
		assert.Equal(t, tag, msg.Type)
	}
}

func TestDecodeClientRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"missing tag", `{"particle_count":10}`},
		{"unknown tag", `{"type":"SelfDestruct"}`},
		{"wrong payload type", `{"type":"UpdateConfig","particle_count":"many"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeClient([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestEncodeStateShape(t *testing.T) {
	snapshot := sim.Snapshot{
		Particles: []physics.Particle{{
			Position: physics.Vec3{1, 2, 3},
			Velocity: physics.Vec3{4, 5, 6},
			Mass:     1.5,
			Color:    [4]float32{0.1, 0.2, 0.3, 1},
		}},
		SimTime:     2.5,
		FrameNumber: 250,
	}

	data, err := EncodeState(snapshot)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "State", decoded["type"])
	assert.EqualValues(t, 250, decoded["frame_number"])

	particles, ok := decoded["particles"].([]any)
	require.True(t, ok)
	require.Len(t, particles, 1)
	first := particles[0].(map[string]any)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, first["position"])
	assert.Equal(t, []any{4.0, 5.0, 6.0}, first["velocity"])
	assert.Len(t, first["color"], 4)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cfg := sim.DefaultConfig()
	data, err := EncodeConfig(cfg)
	require.NoError(t, err)

	msg, err := DecodeServer(data)
	require.NoError(t, err)
	assert.Equal(t, TypeConfig, msg.Type)
	assert.Equal(t, cfg, msg.Config)

	stats := sim.Stats{FPS: 59.5, ComputationTimeMs: 3.2, ParticleCount: 10, SimTime: 1, CPUUsage: 19, FrameNumber: 100}
	data, err = EncodeStats(stats)
	require.NoError(t, err)
	msg, err = DecodeServer(data)
	require.NoError(t, err)
	assert.Equal(t, stats, msg.Stats)

	data, err = EncodeError("particle_count 20000 exceeds maximum of 15000")
	require.NoError(t, err)
	msg, err = DecodeServer(data)
	require.NoError(t, err)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, msg.Error, "15000")
}
