package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Title       string
	ProfileMode string
	TurnCount   int
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
}

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string // user | assistant
	Content       string
	Category      string
	CreatedAt     time.Time
}

// ChatCitation links an assistant message to a sermon it cited.
type ChatCitation struct {
	Id            uuid.UUID
	ChatMessageId uuid.UUID
	SermonId      uuid.UUID
	Similarity    float64
	CreatedAt     time.Time
}
