package model

import (
	"time"

	"github.com/google/uuid"
)

type Annotation struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;index:idx_annotations_book_user"`
	BookId      uuid.UUID `gorm:"type:uuid;not null;index:idx_annotations_book_user"`
	Page        int       `gorm:"default:0"`
	Text        string    `gorm:"type:text"`
	Comment     string    `gorm:"type:text"`
	ShareWithAi bool      `gorm:"not null;default:false;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Annotation) TableName() string {
	return "annotations"
}
