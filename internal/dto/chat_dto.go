package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	ProfileMode string `json:"profile_mode,omitempty" validate:"omitempty,oneof=research counseling education"`
}

type CreateSessionResponse struct {
	Id          uuid.UUID `json:"id"`
	ProfileMode string    `json:"profile_mode"`
}

type GetAllSessionsResponse struct {
	Id          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	ProfileMode string     `json:"profile_mode"`
	TurnCount   int        `json:"turn_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Message       string    `json:"message" validate:"required"`
	ProfileMode   string    `json:"profile_mode,omitempty" validate:"omitempty,oneof=research counseling education"`
}

// SermonReferenceDTO is one cited sermon attached to an assistant reply.
type SermonReferenceDTO struct {
	SermonId     uuid.UUID `json:"sermon_id"`
	Title        string    `json:"title"`
	Date         string    `json:"date"`
	Scripture    string    `json:"scripture"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
}

type SendChatResponse struct {
	ChatSessionId uuid.UUID            `json:"chat_session_id"`
	MessageId     uuid.UUID            `json:"message_id"`
	Answer        string               `json:"answer"`
	Category      string               `json:"category"`
	UseRag        bool                 `json:"use_rag"`
	References    []SermonReferenceDTO `json:"references"`
	ScriptureRefs []string             `json:"scripture_refs"`
	TurnCount     int                  `json:"turn_count"`
	CreatedAt     time.Time            `json:"created_at"`
}

type GetChatHistoryResponse struct {
	Id         uuid.UUID            `json:"id"`
	Role       string               `json:"role"`
	Content    string               `json:"content"`
	Category   string               `json:"category,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	References []SermonReferenceDTO `json:"references,omitempty"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}
