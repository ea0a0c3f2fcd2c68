package domain

import "time"

// RoomSnapshot is the full persisted shape of one room. The holder locks and
// host assignment inside it are advisory only: restore clears both, since
// neither survives a process restart.
type RoomSnapshot struct {
	Code       RoomCode       `json:"code"`
	HostID     UserID         `json:"hostId,omitempty"`
	Users      []*User        `json:"users"`
	Pieces     []*Piece       `json:"pieces"`
	Walls      []*Wall        `json:"walls"`
	Icing      []*IcingStroke `json:"icing"`
	Chat       []ChatMessage  `json:"chat"`
	PieceCount int            `json:"pieceCount"`
	MaxPieces  int            `json:"maxPieces"`
	SavedAt    time.Time      `json:"savedAt"`
}
