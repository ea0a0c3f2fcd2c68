package room

import "github.com/ovenbird/gingerhaus/internal/domain"

// Event is one broadcast frame fanned out to room members. Every mutation
// mirrors itself as an event; cascade deletions emit one event per affected
// entity so clients that missed the trigger still converge.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	EvUserJoined    = "user_joined"
	EvUserLeft      = "user_left"
	EvHostChanged   = "host_changed"
	EvUserIdle      = "user_idle"
	EvCursorMoved   = "cursor_moved"
	EvChatMessage   = "chat_message"
	EvPieceSpawned  = "piece_spawned"
	EvPieceGrabbed  = "piece_grabbed"
	EvPieceMoved    = "piece_moved"
	EvPieceReleased = "piece_released"
	EvPieceDeleted  = "piece_deleted"
	EvWallCreated   = "wall_segment_created"
	EvWallDeleted   = "wall_segment_deleted"
	EvIcingCreated  = "icing_stroke_created"
	EvIcingDeleted  = "icing_stroke_deleted"
	EvRoomReset     = "room_reset"
)

// Sender is the transport endpoint of one member. Owned by the adapter; the
// room only ever TrySends and never closes it.
type Sender interface {
	TrySend(ev Event) error
}

func pieceEvent(typ string, p *domain.Piece) Event {
	return Event{Type: typ, Data: p.Clone()}
}
