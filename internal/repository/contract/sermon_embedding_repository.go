package contract

import (
	"context"
	"time"

	"sermon-agent-be/internal/entity"
	"sermon-agent-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredSermonHit is one similarity-search result joined with its sermon
// metadata, so a search needs no second hydration query.
type ScoredSermonHit struct {
	SermonId     uuid.UUID
	Field        string // which embedded field matched: title | summary
	Similarity   float64
	Title        string
	SermonDate   time.Time
	Scripture    string
	Summary      string
	Preacher     string
	VideoURL     string
	ThumbnailURL string
}

type SermonEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.SermonEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.SermonEmbedding) error
	DeleteBySermonId(ctx context.Context, sermonId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SermonEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns up to limit hits ranked by cosine
	// similarity, highest first, ties broken by more recent sermon date.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*ScoredSermonHit, error)
}
