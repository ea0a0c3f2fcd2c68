package domain

import "github.com/google/uuid"

// Every entity kind gets its own id space; they are never interchangeable.
type (
	UserID   string
	PieceID  string
	WallID   string
	IcingID  string
	ChatID   string
	RoomCode string
)

func NewUserID() UserID   { return UserID(uuid.NewString()) }
func NewPieceID() PieceID { return PieceID(uuid.NewString()) }
func NewWallID() WallID   { return WallID(uuid.NewString()) }
func NewIcingID() IcingID { return IcingID(uuid.NewString()) }
func NewChatID() ChatID   { return ChatID(uuid.NewString()) }

// AttachmentID is the surface a piece is anchored to: a wall id, another
// piece id, or a client-assigned roof anchor carrying the RoofPrefix.
type AttachmentID string

const RoofPrefix = "roof"

func (a AttachmentID) IsRoof() bool {
	return len(a) >= len(RoofPrefix) && a[:len(RoofPrefix)] == RoofPrefix
}
