package mapper

import (
	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/model"
)

type AnnotationMapper struct{}

func NewAnnotationMapper() *AnnotationMapper {
	return &AnnotationMapper{}
}

func (m *AnnotationMapper) ToEntity(mod *model.Annotation) *entity.Annotation {
	return &entity.Annotation{
		Id:          mod.Id,
		UserId:      mod.UserId,
		BookId:      mod.BookId,
		Page:        mod.Page,
		Text:        mod.Text,
		Comment:     mod.Comment,
		ShareWithAi: mod.ShareWithAi,
		CreatedAt:   mod.CreatedAt,
	}
}

func (m *AnnotationMapper) ToModel(e *entity.Annotation) *model.Annotation {
	return &model.Annotation{
		Id:          e.Id,
		UserId:      e.UserId,
		BookId:      e.BookId,
		Page:        e.Page,
		Text:        e.Text,
		Comment:     e.Comment,
		ShareWithAi: e.ShareWithAi,
		CreatedAt:   e.CreatedAt,
	}
}
