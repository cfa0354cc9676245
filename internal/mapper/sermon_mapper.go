package mapper

import (
	"time"

	"sermon-agent-be/internal/entity"
	"sermon-agent-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type SermonMapper struct{}

func NewSermonMapper() *SermonMapper {
	return &SermonMapper{}
}

func (m *SermonMapper) ToEntity(s *model.Sermon) *entity.Sermon {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Sermon{
		Id:           s.Id,
		Title:        s.Title,
		Preacher:     s.Preacher,
		ChurchName:   s.ChurchName,
		SermonDate:   s.SermonDate,
		Scripture:    s.Scripture,
		Summary:      s.Summary,
		VideoURL:     s.VideoURL,
		ThumbnailURL: s.ThumbnailURL,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *SermonMapper) ToModel(s *entity.Sermon) *model.Sermon {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.Sermon{
		Id:           s.Id,
		Title:        s.Title,
		Preacher:     s.Preacher,
		ChurchName:   s.ChurchName,
		SermonDate:   s.SermonDate,
		Scripture:    s.Scripture,
		Summary:      s.Summary,
		VideoURL:     s.VideoURL,
		ThumbnailURL: s.ThumbnailURL,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *SermonMapper) ToEntities(models []*model.Sermon) []*entity.Sermon {
	entities := make([]*entity.Sermon, len(models))
	for i, s := range models {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

type SermonEmbeddingMapper struct{}

func NewSermonEmbeddingMapper() *SermonEmbeddingMapper {
	return &SermonEmbeddingMapper{}
}

func (m *SermonEmbeddingMapper) ToEntity(e *model.SermonEmbedding) *entity.SermonEmbedding {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.SermonEmbedding{
		Id:             e.Id,
		SermonId:       e.SermonId,
		Field:          e.Field,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *SermonEmbeddingMapper) ToModel(e *entity.SermonEmbedding) *model.SermonEmbedding {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.SermonEmbedding{
		Id:             e.Id,
		SermonId:       e.SermonId,
		Field:          e.Field,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}
