package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Sermon struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title        string         `gorm:"type:text;not null"`
	Preacher     string         `gorm:"type:varchar(120)"`
	ChurchName   string         `gorm:"type:varchar(120)"`
	SermonDate   time.Time      `gorm:"type:date;index"`
	Scripture    string         `gorm:"type:varchar(255)"` // canonical reference, e.g. "마태복음 5:3"
	Summary      string         `gorm:"type:text"`
	VideoURL     string         `gorm:"type:text"`
	ThumbnailURL string         `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Sermon) TableName() string {
	return "sermons"
}
