package implementation

import (
	"context"
	"errors"

	"sermon-agent-be/internal/entity"
	"sermon-agent-be/internal/mapper"
	"sermon-agent-be/internal/model"
	"sermon-agent-be/internal/repository/contract"
	"sermon-agent-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SermonRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SermonMapper
}

func NewSermonRepository(db *gorm.DB) contract.SermonRepository {
	return &SermonRepositoryImpl{
		db:     db,
		mapper: mapper.NewSermonMapper(),
	}
}

func (r *SermonRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SermonRepositoryImpl) Create(ctx context.Context, sermon *entity.Sermon) error {
	m := r.mapper.ToModel(sermon)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*sermon = *r.mapper.ToEntity(m)
	return nil
}

func (r *SermonRepositoryImpl) Update(ctx context.Context, sermon *entity.Sermon) error {
	m := r.mapper.ToModel(sermon)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*sermon = *r.mapper.ToEntity(m)
	return nil
}

func (r *SermonRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Sermon{}, id).Error
}

func (r *SermonRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Sermon, error) {
	var m model.Sermon
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SermonRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Sermon, error) {
	var models []*model.Sermon
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SermonRepositoryImpl) FindByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.Sermon, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []*model.Sermon
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SermonRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Sermon{}).Count(&count).Error
	return count, err
}
