package domain

import (
	"strings"
	"time"
)

// MaxChatHistory caps the per-room retained log; older entries fall off.
const MaxChatHistory = 100

type ChatMessage struct {
	ID     ChatID    `json:"id"`
	UserID UserID    `json:"userId"`
	Name   string    `json:"name"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

func NewChatMessage(user *User, text string) (ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatMessage{}, ErrChatEmpty
	}
	if len(text) > MaxChatLen {
		return ChatMessage{}, ErrChatTooLong
	}
	return ChatMessage{
		ID:     NewChatID(),
		UserID: user.ID,
		Name:   user.Name,
		Text:   text,
		At:     time.Now(),
	}, nil
}
