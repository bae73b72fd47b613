// Package proto defines the tagged JSON messages exchanged with rendering
// clients. Every message carries a string "type" tag alongside its payload
// fields, mirroring on the control plane (client to server) and the data
// plane (server to client).
package proto

import (
	"encoding/json"
	"fmt"

	"github.com/softwarewrighter/n-body/internal/sim"
)

// Control-plane tags (client to server).
const (
	TypeUpdateConfig = "UpdateConfig"
	TypeReset        = "Reset"
	TypePause        = "Pause"
	TypeResume       = "Resume"
)

// Data-plane tags (server to client).
const (
	TypeState  = "State"
	TypeStats  = "Stats"
	TypeConfig = "Config"
	TypeError  = "Error"
)

// ClientMessage is a decoded control message. Config is meaningful only when
// Type is TypeUpdateConfig.
type ClientMessage struct {
	Type   string
	Config sim.Config
}

// DecodeClient parses one inbound control frame. Unknown tags and malformed
// payloads return an error; callers log and drop, they never terminate the
// session over it.
func DecodeClient(data []byte) (ClientMessage, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ClientMessage{}, fmt.Errorf("decode control message: %w", err)
	}

	switch probe.Type {
	case TypeUpdateConfig:
		var cfg sim.Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s payload: %w", probe.Type, err)
		}
		return ClientMessage{Type: probe.Type, Config: cfg}, nil
	case TypeReset, TypePause, TypeResume:
		return ClientMessage{Type: probe.Type}, nil
	case "":
		return ClientMessage{}, fmt.Errorf("control message missing type tag")
	default:
		return ClientMessage{}, fmt.Errorf("unknown control message type %q", probe.Type)
	}
}

type stateMessage struct {
	Type string `json:"type"`
	sim.Snapshot
}

type statsMessage struct {
	Type string `json:"type"`
	sim.Stats
}

type configMessage struct {
	Type string `json:"type"`
	sim.Config
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// EncodeState serializes a particle snapshot.
func EncodeState(snapshot sim.Snapshot) ([]byte, error) {
	return json.Marshal(stateMessage{Type: TypeState, Snapshot: snapshot})
}

// EncodeStats serializes a stats record.
func EncodeStats(stats sim.Stats) ([]byte, error) {
	return json.Marshal(statsMessage{Type: TypeStats, Stats: stats})
}

// EncodeConfig serializes a configuration echo.
func EncodeConfig(cfg sim.Config) ([]byte, error) {
	return json.Marshal(configMessage{Type: TypeConfig, Config: cfg})
}

// EncodeError serializes an error record.
func EncodeError(message string) ([]byte, error) {
	return json.Marshal(errorMessage{Type: TypeError, Message: message})
}

// ServerMessage is a decoded data-plane frame, used by protocol clients such
// as the terminal monitor. Exactly one payload field is set, per Type.
type ServerMessage struct {
	Type     string
	Snapshot sim.Snapshot
	Stats    sim.Stats
	Config   sim.Config
	Error    string
}

// DecodeServer parses one outbound frame from the client's point of view.
func DecodeServer(data []byte) (ServerMessage, error) {
	var probe struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ServerMessage{}, fmt.Errorf("decode server message: %w", err)
	}

	msg := ServerMessage{Type: probe.Type}
	var err error
	switch probe.Type {
	case TypeState:
		err = json.Unmarshal(data, &msg.Snapshot)
	case TypeStats:
		err = json.Unmarshal(data, &msg.Stats)
	case TypeConfig:
		err = json.Unmarshal(data, &msg.Config)
	case TypeError:
		msg.Error = probe.Message
	default:
		err = fmt.Errorf("unknown server message type %q", probe.Type)
	}
	if err != nil {
		return ServerMessage{}, err
	}
	return msg, nil
}
