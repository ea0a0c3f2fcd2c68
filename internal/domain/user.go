// Package domain contains the entity records shared across the engine:
// meta-data plus their own field invariants, no room logic.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/ovenbird/gingerhaus/internal/geometry"
)

const (
	MaxDisplayNameLen = 24
	MaxChatLen        = 280
)

var (
	ErrNameEmpty   = errors.New("display name empty")
	ErrNameTooLong = errors.New("display name too long")
	ErrChatEmpty   = errors.New("chat text empty")
	ErrChatTooLong = errors.New("chat text too long")
)

type User struct {
	ID       UserID        `json:"id"`
	Name     string        `json:"name"`
	Color    string        `json:"color"`
	Cursor   geometry.Vec3 `json:"cursor"`
	CursorAt time.Time     `json:"cursorAt"`
	Active   bool          `json:"active"`
	JoinedAt time.Time     `json:"joinedAt"`
}

// NewUser validates the display name and mints a fresh identity. The color
// is assigned by the room's palette, not here.
func NewUser(name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return nil, ErrNameTooLong
	}
	return &User{ID: NewUserID(), Name: name, Active: true, JoinedAt: time.Now()}, nil
}

func (u *User) Clone() *User {
	c := *u
	return &c
}
