package domain

import (
	"errors"
	"math"

	"github.com/ovenbird/gingerhaus/internal/geometry"
)

const (
	MaxWallHeight    = 8.0
	MaxWallThickness = 1.0
	MinWallLength    = 0.05
)

var ErrInvalidWall = errors.New("invalid wall data")

type Wall struct {
	ID        WallID        `json:"id"`
	Start     geometry.Vec2 `json:"start"`
	End       geometry.Vec2 `json:"end"`
	Height    float64       `json:"height"`
	Thickness float64       `json:"thickness"`
	CreatedBy UserID        `json:"createdBy"`
}

// NewWall validates geometry before any room mutation sees it: finite
// endpoints, a non-degenerate span, and capped height/thickness.
func NewWall(start, end geometry.Vec2, height, thickness float64, creator UserID) (*Wall, error) {
	if !start.Finite() || !end.Finite() {
		return nil, ErrInvalidWall
	}
	if math.IsNaN(height) || math.IsNaN(thickness) {
		return nil, ErrInvalidWall
	}
	if start.Dist(end) < MinWallLength {
		return nil, ErrInvalidWall
	}
	if height <= 0 || height > MaxWallHeight {
		return nil, ErrInvalidWall
	}
	if thickness <= 0 || thickness > MaxWallThickness {
		return nil, ErrInvalidWall
	}
	return &Wall{
		ID:        NewWallID(),
		Start:     start,
		End:       end,
		Height:    height,
		Thickness: thickness,
		CreatedBy: creator,
	}, nil
}

func (w *Wall) Segment() geometry.Segment {
	return geometry.Segment{A: w.Start, B: w.End}
}

func (w *Wall) Clone() *Wall {
	c := *w
	return &c
}
