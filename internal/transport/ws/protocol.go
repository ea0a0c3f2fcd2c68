// Package ws carries validated client intents into the room engine and fans
// room events back out. Payloads are decoded and validated once at this
// boundary; the engine only ever sees typed, already-checked values.
package ws

import (
	"encoding/json"

	"github.com/ovenbird/gingerhaus/internal/domain"
	"github.com/ovenbird/gingerhaus/internal/geometry"
	"github.com/ovenbird/gingerhaus/internal/limiter"
)

// envelope is the wire shape of every client frame.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// result is the response to one intent; events use room.Event directly.
type result struct {
	Type   string `json:"type"`
	Of     string `json:"of"`
	OK     bool   `json:"ok"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
	Detail any    `json:"detail,omitempty"`
}

const (
	intentJoinRoom    = "join_room"
	intentSpawnPiece  = "spawn_piece"
	intentGrabPiece   = "grab_piece"
	intentRelease     = "release_piece"
	intentTransform   = "update_transform"
	intentDeletePiece = "delete_piece"
	intentCreateWall  = "create_wall"
	intentDeleteWall  = "delete_wall"
	intentFenceLine   = "create_fence_line"
	intentCreateIcing = "create_icing_stroke"
	intentDeleteIcing = "delete_icing_stroke"
	intentChat        = "chat"
	intentCursor      = "update_cursor"
	intentUndo        = "undo"
	intentReset       = "reset_room"
)

// opClassOf maps each intent to its admission-control class.
var opClassOf = map[string]limiter.OpClass{
	intentJoinRoom:    limiter.OpJoin,
	intentSpawnPiece:  limiter.OpSpawn,
	intentGrabPiece:   limiter.OpSpawn,
	intentRelease:     limiter.OpTransform,
	intentTransform:   limiter.OpTransform,
	intentDeletePiece: limiter.OpDelete,
	intentCreateWall:  limiter.OpCreateWall,
	intentDeleteWall:  limiter.OpDelete,
	intentFenceLine:   limiter.OpCreateFence,
	intentCreateIcing: limiter.OpCreateIcing,
	intentDeleteIcing: limiter.OpDelete,
	intentChat:        limiter.OpChat,
	intentCursor:      limiter.OpCursor,
	intentUndo:        limiter.OpUndo,
	intentReset:       limiter.OpReset,
}

// fireAndForget intents are silently dropped on rejection instead of
// producing an error frame.
var fireAndForget = map[string]bool{
	intentTransform: true,
	intentCursor:    true,
}

type joinRoomPayload struct {
	RoomCode       domain.RoomCode `json:"roomCode"`
	Name           string          `json:"name"`
	PreviousUserID domain.UserID   `json:"previousUserId,omitempty"`
}

type spawnPiecePayload struct {
	PieceType domain.PieceType `json:"pieceType"`
}

type grabPiecePayload struct {
	PieceID domain.PieceID `json:"pieceId"`
}

type releasePiecePayload struct {
	PieceID    domain.PieceID      `json:"pieceId"`
	Pos        geometry.Vec3       `json:"pos"`
	Yaw        float64             `json:"yaw"`
	AttachedTo domain.AttachmentID `json:"attachedTo,omitempty"`
	Normal     *geometry.Vec3      `json:"normal,omitempty"`
}

type transformPayload struct {
	PieceID domain.PieceID `json:"pieceId"`
	Pos     geometry.Vec3  `json:"pos"`
	Yaw     float64        `json:"yaw"`
}

type deletePiecePayload struct {
	PieceID domain.PieceID `json:"pieceId"`
}

type createWallPayload struct {
	Start     geometry.Vec2 `json:"start"`
	End       geometry.Vec2 `json:"end"`
	Height    float64       `json:"height"`
	Thickness float64       `json:"thickness"`
}

type deleteWallPayload struct {
	WallID domain.WallID `json:"wallId"`
}

type fenceLinePayload struct {
	Start   geometry.Vec2 `json:"start"`
	End     geometry.Vec2 `json:"end"`
	Spacing float64       `json:"spacing"`
}

type createIcingPayload struct {
	Points    []geometry.Vec3    `json:"points"`
	Radius    float64            `json:"radius"`
	Surface   domain.SurfaceType `json:"surface"`
	SurfaceID string             `json:"surfaceId,omitempty"`
}

type deleteIcingPayload struct {
	IcingID domain.IcingID `json:"icingId"`
}

type chatPayload struct {
	Text string `json:"text"`
}

type cursorPayload struct {
	Pos geometry.Vec3 `json:"pos"`
}
