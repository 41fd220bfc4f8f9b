package mapper

import (
	"encoding/json"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToModel(e *entity.ChunkRecord) *model.BookChunk {
	return &model.BookChunk{
		Id:         e.Id,
		BookId:     e.BookId,
		DocumentId: e.DocumentId,
		Text:       e.Text,
		Position:   e.Position,
		Embedding:  pgvector.NewVector(e.Embedding),
		CreatedAt:  e.CreatedAt,
	}
}

func (m *ChunkMapper) ToEntity(mod *model.BookChunk) *entity.ChunkRecord {
	return &entity.ChunkRecord{
		Id:         mod.Id,
		BookId:     mod.BookId,
		DocumentId: mod.DocumentId,
		Text:       mod.Text,
		Position:   mod.Position,
		Embedding:  mod.Embedding.Slice(),
		CreatedAt:  mod.CreatedAt,
	}
}

func (m *ChunkMapper) DocumentToModel(e *entity.DocumentRecord) *model.IngestedDocument {
	var meta datatypes.JSON
	if e.Meta != nil {
		if raw, err := json.Marshal(e.Meta); err == nil {
			meta = raw
		}
	}
	return &model.IngestedDocument{
		Id:         e.Id,
		BookId:     e.BookId,
		ChunkCount: e.ChunkCount,
		Meta:       meta,
		CreatedAt:  e.CreatedAt,
	}
}
