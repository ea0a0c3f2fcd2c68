package domain

import (
	"errors"

	"github.com/ovenbird/gingerhaus/internal/geometry"
)

type PieceType string

const (
	PieceFrostedCube     PieceType = "frosted_cube"
	PieceCandyCane       PieceType = "candy_cane"
	PieceGumdrop         PieceType = "gumdrop"
	PiecePeppermint      PieceType = "peppermint"
	PieceCookieDoor      PieceType = "cookie_door"
	PieceSugarWindow     PieceType = "sugar_window"
	PieceWaferFence      PieceType = "wafer_fence"
	PieceGingerbreadSlab PieceType = "gingerbread_slab"
	PieceIcingSpire      PieceType = "icing_spire"
	PieceCandyLamp       PieceType = "candy_lamp"
)

var pieceTypes = map[PieceType]bool{
	PieceFrostedCube:     true,
	PieceCandyCane:       true,
	PieceGumdrop:         true,
	PiecePeppermint:      true,
	PieceCookieDoor:      true,
	PieceSugarWindow:     true,
	PieceWaferFence:      true,
	PieceGingerbreadSlab: true,
	PieceIcingSpire:      true,
	PieceCandyLamp:       true,
}

func ValidPieceType(t PieceType) bool { return pieceTypes[t] }

var ErrInvalidTransform = errors.New("transform has non-finite components")

// Piece is a placeable object. HeldBy empty means the piece is finalized;
// exactly then it may appear in the ground occupancy index.
type Piece struct {
	ID         PieceID        `json:"id"`
	Type       PieceType      `json:"type"`
	Pos        geometry.Vec3  `json:"pos"`
	Yaw        float64        `json:"yaw"`
	HeldBy     UserID         `json:"heldBy,omitempty"`
	SpawnedBy  UserID         `json:"spawnedBy"`
	AttachedTo AttachmentID   `json:"attachedTo,omitempty"`
	Normal     *geometry.Vec3 `json:"normal,omitempty"`
	Version    uint64         `json:"version"`
}

func (p *Piece) Held() bool { return p.HeldBy != "" }

func (p *Piece) Clone() *Piece {
	c := *p
	if p.Normal != nil {
		n := *p.Normal
		c.Normal = &n
	}
	return &c
}
