package entity

import (
	"time"

	"github.com/google/uuid"
)

// SermonEmbedding is one embedded field of a sermon. Both the title and the
// summary are embedded separately so either can surface in a search.
type SermonEmbedding struct {
	Id             uuid.UUID
	SermonId       uuid.UUID
	Field          string // title | summary
	EmbeddingValue []float32
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
