package implementation

import (
	"context"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/mapper"
	"ai-tutoring-be/internal/model"
	"ai-tutoring-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *ChunkRepositoryImpl) ReplaceDocument(ctx context.Context, documentId uuid.UUID, chunks []*entity.ChunkRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentId).Delete(&model.BookChunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		models := make([]*model.BookChunk, len(chunks))
		for i, c := range chunks {
			models[i] = r.mapper.ToModel(c)
		}
		if err := tx.Create(models).Error; err != nil {
			return err
		}
		for i, m := range models {
			*chunks[i] = *r.mapper.ToEntity(m)
		}
		return nil
	})
}

func (r *ChunkRepositoryImpl) DeleteByBookId(ctx context.Context, bookId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("book_id = ?", bookId).Delete(&model.BookChunk{}).Error
}

func (r *ChunkRepositoryImpl) FindAllOrdered(ctx context.Context) ([]*entity.ChunkRecord, error) {
	var models []*model.BookChunk
	err := r.db.WithContext(ctx).
		Order("created_at ASC, position ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.toEntities(models), nil
}

func (r *ChunkRepositoryImpl) FindByBookId(ctx context.Context, bookId uuid.UUID) ([]*entity.ChunkRecord, error) {
	var models []*model.BookChunk
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookId).
		Order("created_at ASC, position ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.toEntities(models), nil
}

func (r *ChunkRepositoryImpl) toEntities(models []*model.BookChunk) []*entity.ChunkRecord {
	entities := make([]*entity.ChunkRecord, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities
}

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *DocumentRepositoryImpl) Upsert(ctx context.Context, doc *entity.DocumentRecord) error {
	m := r.mapper.DocumentToModel(doc)
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *DocumentRepositoryImpl) DeleteByBookId(ctx context.Context, bookId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("book_id = ?", bookId).Delete(&model.IngestedDocument{}).Error
}
