package contract

import (
	"context"

	"ai-tutoring-be/internal/entity"

	"github.com/google/uuid"
)

// AnnotationRepository reads the annotation collaborator's records.
// Only annotations the user explicitly shared with the AI are ever returned.
type AnnotationRepository interface {
	FindShared(ctx context.Context, bookId uuid.UUID, userId uuid.UUID) ([]*entity.Annotation, error)
	Create(ctx context.Context, annotation *entity.Annotation) error
}
