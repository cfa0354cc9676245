package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySermonID struct {
	SermonID uuid.UUID
}

func (s BySermonID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sermon_id = ?", s.SermonID)
}

type ByScripture struct {
	Scripture string
}

func (s ByScripture) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("scripture = ?", s.Scripture)
}

type ByEmbeddedField struct {
	Field string // title | summary
}

func (s ByEmbeddedField) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("field = ?", s.Field)
}
