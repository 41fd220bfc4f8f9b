package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type BookChunk struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookId     uuid.UUID       `gorm:"type:uuid;not null;index"`
	DocumentId uuid.UUID       `gorm:"type:uuid;not null;index"`
	Text       string          `gorm:"type:text"`
	Position   int             `gorm:"default:0"` // 0-based index for ordering within a document
	Embedding  pgvector.Vector `gorm:"type:vector(768)"` // nomic / text-embedding-004 dimensionality
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (BookChunk) TableName() string {
	return "book_chunks"
}

type IngestedDocument struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	BookId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	ChunkCount int            `gorm:"default:0"`
	Meta       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

func (IngestedDocument) TableName() string {
	return "ingested_documents"
}
