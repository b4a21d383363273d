package proto

import (
	"ctchen222/tictactoe-core/internal/game"
	"ctchen222/tictactoe-core/internal/score"
	"ctchen222/tictactoe-core/internal/session"
)

// Client message types.
const (
	TypePlace   = "place"
	TypeRestart = "restart"
	TypeMode    = "mode"
	TypeReset   = "reset"
)

// Server message types.
const (
	TypeSnapshot = "snapshot"
	TypeError    = "error"
)

// ClientToServerMessage represents a message from the client to the server.
// Position is required for place and Mode for mode; the hub checks both.
type ClientToServerMessage struct {
	Type     string `json:"type" validate:"required,oneof=place restart mode reset"`
	Position *int   `json:"position,omitempty" validate:"omitempty,min=0,max=8"`
	Mode     string `json:"mode,omitempty" validate:"omitempty,game_mode"`
}

// ServerToClientMessage represents a message from the server to the client.
// Snapshot fields are set only for TypeSnapshot.
type ServerToClientMessage struct {
	Type    string              `json:"type" validate:"required"`
	Reason  string              `json:"reason,omitempty"`
	Version uint64              `json:"version,omitempty"`
	Board   [][]game.PlayerMark `json:"board,omitempty"`
	Next    game.PlayerMark     `json:"next,omitempty"`
	Outcome *game.Outcome       `json:"outcome,omitempty"`
	Mode    score.Mode          `json:"mode,omitempty"`
	Scores  *score.Scores       `json:"scores,omitempty"`
	Pending bool                `json:"computer_pending,omitempty"`
}

// NewSnapshotMessage renders a session snapshot for the wire.
func NewSnapshotMessage(snap session.Snapshot) *ServerToClientMessage {
	return &ServerToClientMessage{
		Type:    TypeSnapshot,
		Version: snap.Version,
		Board:   snap.Board.Rows(),
		Next:    snap.Turn,
		Outcome: &snap.Outcome,
		Mode:    snap.Mode,
		Scores:  &snap.Scores,
		Pending: snap.Pending,
	}
}

func NewErrorMessage(reason string) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeError, Reason: reason}
}
