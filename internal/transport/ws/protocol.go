package ws

import (
	"encoding/json"

	"github.com/vovakirdan/tui-karol/internal/snapshot"
	"github.com/vovakirdan/tui-karol/internal/syntax"
)

// Message types sent by clients.
const (
	TypeLoad   = "load"
	TypeAction = "action"
	TypeSpeed  = "speed"
)

// Message types sent by the server.
const (
	TypeHello  = "hello"
	TypeLoaded = "loaded"
	TypeStep   = "step"
	TypeDone   = "done"
	TypeState  = "state"
	TypeError  = "error"
)

// ClientMsg is a request from a client. Which fields matter depends on
// Type:
//
//	load:   Example, or Source with an optional Name and World snapshot
//	action: Action (run, step, pause, stop, reset)
//	speed:  Speed preset name
type ClientMsg struct {
	Type    string          `json:"type"`
	Example string          `json:"example,omitempty"`
	Source  string          `json:"source,omitempty"`
	Name    string          `json:"name,omitempty"`
	World   json.RawMessage `json:"world,omitempty"`
	Action  string          `json:"action,omitempty"`
	Speed   string          `json:"speed,omitempty"`
}

// ServerMsg is an event sent to a client.
type ServerMsg struct {
	Type     string             `json:"type"`
	Examples []string           `json:"examples,omitempty"`
	Program  string             `json:"program,omitempty"`
	State    string             `json:"state,omitempty"`
	Step     int                `json:"step,omitempty"`
	Range    *syntax.Range      `json:"range,omitempty"`
	DelayMS  int64              `json:"delay_ms,omitempty"`
	Tone     bool               `json:"tone,omitempty"`
	Snapshot *snapshot.Snapshot `json:"snapshot,omitempty"`
	Error    string             `json:"error,omitempty"`
}
