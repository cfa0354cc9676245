package entity

import (
	"time"

	"github.com/google/uuid"
)

type Sermon struct {
	Id           uuid.UUID
	Title        string
	Preacher     string
	ChurchName   string
	SermonDate   time.Time
	Scripture    string
	Summary      string
	VideoURL     string
	ThumbnailURL string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
}
