package domain

import (
	"errors"

	"github.com/ovenbird/gingerhaus/internal/geometry"
)

type SurfaceType string

const (
	SurfaceGround SurfaceType = "ground"
	SurfaceWall   SurfaceType = "wall"
	SurfaceRoof   SurfaceType = "roof"
)

func ValidSurfaceType(s SurfaceType) bool {
	return s == SurfaceGround || s == SurfaceWall || s == SurfaceRoof
}

const (
	MaxIcingRadius = 0.5
	MaxIcingPoints = 256
)

var ErrInvalidIcing = errors.New("invalid icing data")

// IcingStroke is a decorative piped line over ground, a wall, or a roof.
type IcingStroke struct {
	ID        IcingID         `json:"id"`
	Points    []geometry.Vec3 `json:"points"`
	Radius    float64         `json:"radius"`
	Surface   SurfaceType     `json:"surface"`
	SurfaceID string          `json:"surfaceId,omitempty"`
	CreatedBy UserID          `json:"createdBy"`
}

func NewIcingStroke(points []geometry.Vec3, radius float64, surface SurfaceType, surfaceID string, creator UserID) (*IcingStroke, error) {
	if len(points) < 2 || len(points) > MaxIcingPoints {
		return nil, ErrInvalidIcing
	}
	for _, p := range points {
		if !p.Finite() {
			return nil, ErrInvalidIcing
		}
	}
	if radius <= 0 || radius > MaxIcingRadius {
		return nil, ErrInvalidIcing
	}
	if !ValidSurfaceType(surface) {
		return nil, ErrInvalidIcing
	}
	pts := make([]geometry.Vec3, len(points))
	copy(pts, points)
	return &IcingStroke{
		ID:        NewIcingID(),
		Points:    pts,
		Radius:    radius,
		Surface:   surface,
		SurfaceID: surfaceID,
		CreatedBy: creator,
	}, nil
}

func (s *IcingStroke) Clone() *IcingStroke {
	c := *s
	c.Points = make([]geometry.Vec3, len(s.Points))
	copy(c.Points, s.Points)
	return &c
}
