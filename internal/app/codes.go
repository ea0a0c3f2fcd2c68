package app

import (
	"math/rand"

	"github.com/ovenbird/gingerhaus/internal/domain"
)

// roomCodeAlphabet skips lookalike characters (0/O, 1/I/L) so codes survive
// being read aloud.
const (
	roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	roomCodeLen      = 6
)

func randomRoomCode() domain.RoomCode {
	buf := make([]byte, roomCodeLen)
	for i := range buf {
		buf[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return domain.RoomCode(buf)
}

// ValidRoomCode checks the shape of a client-supplied code before any
// registry lookup happens.
func ValidRoomCode(code domain.RoomCode) bool {
	if len(code) != roomCodeLen {
		return false
	}
	for i := 0; i < len(code); i++ {
		found := false
		for j := 0; j < len(roomCodeAlphabet); j++ {
			if code[i] == roomCodeAlphabet[j] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
