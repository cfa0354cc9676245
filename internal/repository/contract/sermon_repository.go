package contract

import (
	"context"

	"sermon-agent-be/internal/entity"
	"sermon-agent-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SermonRepository interface {
	Create(ctx context.Context, sermon *entity.Sermon) error
	Update(ctx context.Context, sermon *entity.Sermon) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Sermon, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Sermon, error)
	FindByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.Sermon, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
