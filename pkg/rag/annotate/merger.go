package annotate

import (
	"context"
	"fmt"
	"strings"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/pkg/store"
)

// DefaultNotesCharBudget caps the personal-notes block prepended to a
// context.
const DefaultNotesCharBudget = 2000

const (
	notesHeader = "=== PERSONAL NOTES ==="
	notesFooter = "=== END PERSONAL NOTES ==="
)

// Merger prepends a user's shared annotations to an assembled context.
//
// This step runs after the cache on every request. Caching merged contexts
// would either leak one user's notes into another user's entry or explode
// cache cardinality per user, so merge output is never cached.
type Merger struct {
	annotations contract.AnnotationRepository
	charBudget  int
	logger      logger.ILogger
}

func NewMerger(annotations contract.AnnotationRepository, charBudget int, log logger.ILogger) *Merger {
	if charBudget <= 0 {
		charBudget = DefaultNotesCharBudget
	}
	return &Merger{
		annotations: annotations,
		charBudget:  charBudget,
		logger:      log,
	}
}

// Merge returns base with a delimited personal-notes block prepended when
// the scoped user has annotations shared with the AI. Without a user in
// scope, without qualifying annotations, or on repository failure it returns
// base unchanged; the merge never fails a retrieval.
func (m *Merger) Merge(ctx context.Context, base string, scope store.Scope) string {
	if m.annotations == nil || scope.UserId == nil {
		return base
	}

	annotations, err := m.annotations.FindShared(ctx, scope.BookId, *scope.UserId)
	if err != nil {
		m.logger.Warn("annotation_merger", "failed to load shared annotations, skipping merge", map[string]interface{}{
			"book_id": scope.BookId.String(),
			"error":   err.Error(),
		})
		return base
	}
	if len(annotations) == 0 {
		return base
	}

	block := m.buildBlock(annotations)
	if block == "" {
		return base
	}
	return block + "\n\n" + base
}

// buildBlock renders annotations oldest-first. When the budget is exceeded
// the oldest annotations are dropped first, so the most recent notes
// survive.
func (m *Merger) buildBlock(annotations []*entity.Annotation) string {
	lines := make([]string, 0, len(annotations))
	for _, a := range annotations {
		lines = append(lines, formatAnnotation(a))
	}

	// Walk from the newest backwards until the budget is spent.
	total := 0
	keepFrom := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		next := total + len(lines[i]) + 1
		if next > m.charBudget {
			break
		}
		total = next
		keepFrom = i
	}
	if keepFrom == len(lines) {
		// Not even the newest note fits whole; hard-truncate it.
		last := lines[len(lines)-1]
		if len(last) > m.charBudget {
			last = last[:m.charBudget]
		}
		lines = []string{last}
	} else {
		lines = lines[keepFrom:]
	}

	return notesHeader + "\n" + strings.Join(lines, "\n") + "\n" + notesFooter
}

func formatAnnotation(a *entity.Annotation) string {
	if a.Comment != "" {
		return fmt.Sprintf("- [p.%d] %s: %s", a.Page, a.Text, a.Comment)
	}
	return fmt.Sprintf("- [p.%d] %s", a.Page, a.Text)
}
