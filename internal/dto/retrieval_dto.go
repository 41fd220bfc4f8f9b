package dto

import (
	"github.com/google/uuid"
)

// RetrieveContextRequest comes from the chat/generation layer. Query and
// scope validity are handled by the orchestrator (benign warnings, never
// errors), so only structural validation happens here.
type RetrieveContextRequest struct {
	Query    string     `json:"query"`
	CourseId uuid.UUID  `json:"course_id"`
	BookId   uuid.UUID  `json:"book_id"`
	UserId   *uuid.UUID `json:"user_id,omitempty"`
}

type RetrieveContextResponse struct {
	Context    string `json:"context"`
	ModeUsed   string `json:"mode_used"`
	ChunkCount int    `json:"chunk_count"`
	CacheHit   bool   `json:"cache_hit"`
	Warning    string `json:"warning,omitempty"`
}

// IngestRequest comes from the upload/course-management layer.
type IngestRequest struct {
	BookId     uuid.UUID              `json:"book_id" validate:"required"`
	DocumentId uuid.UUID              `json:"document_id" validate:"required"`
	Text       string                 `json:"text" validate:"required"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// IngestDocumentMessage is the event payload on the ingestion bus.
type IngestDocumentMessage struct {
	BookId     uuid.UUID              `json:"book_id"`
	DocumentId uuid.UUID              `json:"document_id"`
	Text       string                 `json:"text"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}
