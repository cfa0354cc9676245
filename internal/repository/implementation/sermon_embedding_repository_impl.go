package implementation

import (
	"context"
	"time"

	"sermon-agent-be/internal/entity"
	"sermon-agent-be/internal/mapper"
	"sermon-agent-be/internal/model"
	"sermon-agent-be/internal/repository/contract"
	"sermon-agent-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type SermonEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SermonEmbeddingMapper
}

func NewSermonEmbeddingRepository(db *gorm.DB) contract.SermonEmbeddingRepository {
	return &SermonEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewSermonEmbeddingMapper(),
	}
}

func (r *SermonEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SermonEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.SermonEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *SermonEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.SermonEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.SermonEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *SermonEmbeddingRepositoryImpl) DeleteBySermonId(ctx context.Context, sermonId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("sermon_id = ?", sermonId).Delete(&model.SermonEmbedding{}).Error
}

func (r *SermonEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SermonEmbedding, error) {
	var models []*model.SermonEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.SermonEmbedding, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *SermonEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.SermonEmbedding{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore ranks by pgvector cosine distance. Cosine distance
// is 1 - cosine_similarity, so 1 - (embedding_value <=> qvec) recovers the
// similarity. The floor is applied Go-side by the retriever; the query keeps
// the full raw pool so below-floor candidates remain observable.
func (r *SermonEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredSermonHit, error) {
	if limit <= 0 {
		limit = 5
	}

	type row struct {
		SermonId     uuid.UUID
		Field        string
		Similarity   float64
		Title        string
		SermonDate   time.Time
		Scripture    string
		Summary      string
		Preacher     string
		VideoURL     string
		ThumbnailURL string
	}
	var rows []row

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("sermon_embeddings").
		Select(`sermon_embeddings.sermon_id,
			sermon_embeddings.field,
			1 - (sermon_embeddings.embedding_value <=> ?) AS similarity,
			sermons.title,
			sermons.sermon_date,
			sermons.scripture,
			sermons.summary,
			sermons.preacher,
			sermons.video_url,
			sermons.thumbnail_url`, queryVector).
		Joins("JOIN sermons ON sermons.id = sermon_embeddings.sermon_id").
		Where("sermon_embeddings.deleted_at IS NULL").
		Where("sermons.deleted_at IS NULL").
		Order("similarity DESC, sermons.sermon_date DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	hits := make([]*contract.ScoredSermonHit, len(rows))
	for i, res := range rows {
		hits[i] = &contract.ScoredSermonHit{
			SermonId:     res.SermonId,
			Field:        res.Field,
			Similarity:   res.Similarity,
			Title:        res.Title,
			SermonDate:   res.SermonDate,
			Scripture:    res.Scripture,
			Summary:      res.Summary,
			Preacher:     res.Preacher,
			VideoURL:     res.VideoURL,
			ThumbnailURL: res.ThumbnailURL,
		}
	}
	return hits, nil
}
