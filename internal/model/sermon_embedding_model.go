package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type SermonEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SermonId       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Field          string          `gorm:"type:varchar(20);not null;index"` // title | summary
	EmbeddingValue pgvector.Vector `gorm:"type:vector(1024)"`               // bge-m3 family, 1024 dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (SermonEmbedding) TableName() string {
	return "sermon_embeddings"
}
