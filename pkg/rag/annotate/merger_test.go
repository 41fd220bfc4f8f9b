package annotate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAnnotationRepo returns canned annotations, or an error when failWith
// is set.
type fakeAnnotationRepo struct {
	annotations []*entity.Annotation
	failWith    error
}

func (r *fakeAnnotationRepo) FindShared(ctx context.Context, bookId uuid.UUID, userId uuid.UUID) ([]*entity.Annotation, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	return r.annotations, nil
}

func (r *fakeAnnotationRepo) Create(ctx context.Context, annotation *entity.Annotation) error {
	return nil
}

func sharedNote(page int, text, comment string, createdAt time.Time) *entity.Annotation {
	return &entity.Annotation{
		Id:          uuid.New(),
		Page:        page,
		Text:        text,
		Comment:     comment,
		ShareWithAi: true,
		CreatedAt:   createdAt,
	}
}

func userScope(bookId uuid.UUID) store.Scope {
	userId := uuid.New()
	return store.Scope{CourseId: uuid.New(), BookId: bookId, UserId: &userId}
}

func TestMergePrependsSharedNotes(t *testing.T) {
	now := time.Now()
	repo := &fakeAnnotationRepo{annotations: []*entity.Annotation{
		sharedNote(12, "highlighted passage", "remember this", now),
	}}
	m := NewMerger(repo, 0, logger.NewNopLogger())

	got := m.Merge(context.Background(), "base context", userScope(uuid.New()))

	require.True(t, strings.HasPrefix(got, notesHeader))
	assert.Contains(t, got, "- [p.12] highlighted passage: remember this")
	assert.Contains(t, got, notesFooter)
	assert.True(t, strings.HasSuffix(got, "\n\nbase context"))
}

func TestMergeWithoutCommentOmitsColon(t *testing.T) {
	repo := &fakeAnnotationRepo{annotations: []*entity.Annotation{
		sharedNote(3, "just a highlight", "", time.Now()),
	}}
	m := NewMerger(repo, 0, logger.NewNopLogger())

	got := m.Merge(context.Background(), "base", userScope(uuid.New()))
	assert.Contains(t, got, "- [p.3] just a highlight\n")
}

func TestMergeWithoutUserReturnsBase(t *testing.T) {
	repo := &fakeAnnotationRepo{annotations: []*entity.Annotation{
		sharedNote(1, "note", "", time.Now()),
	}}
	m := NewMerger(repo, 0, logger.NewNopLogger())

	scope := store.Scope{CourseId: uuid.New(), BookId: uuid.New()}
	assert.Equal(t, "base", m.Merge(context.Background(), "base", scope))
}

func TestMergeWithoutAnnotationsReturnsBase(t *testing.T) {
	m := NewMerger(&fakeAnnotationRepo{}, 0, logger.NewNopLogger())
	assert.Equal(t, "base", m.Merge(context.Background(), "base", userScope(uuid.New())))
}

func TestMergeRepositoryFailureReturnsBase(t *testing.T) {
	repo := &fakeAnnotationRepo{failWith: errors.New("db down")}
	m := NewMerger(repo, 0, logger.NewNopLogger())

	assert.Equal(t, "base", m.Merge(context.Background(), "base", userScope(uuid.New())))
}

func TestMergeNilRepositoryReturnsBase(t *testing.T) {
	m := NewMerger(nil, 0, logger.NewNopLogger())
	assert.Equal(t, "base", m.Merge(context.Background(), "base", userScope(uuid.New())))
}

func TestMergeBudgetDropsOldestFirst(t *testing.T) {
	now := time.Now()
	// Each line renders to well over 40 chars; a 120-char budget keeps only
	// the newest notes.
	repo := &fakeAnnotationRepo{annotations: []*entity.Annotation{
		sharedNote(1, strings.Repeat("old ", 12), "oldest note", now.Add(-2*time.Hour)),
		sharedNote(2, strings.Repeat("mid ", 12), "middle note", now.Add(-time.Hour)),
		sharedNote(3, "short", "newest note", now),
	}}
	m := NewMerger(repo, 120, logger.NewNopLogger())

	got := m.Merge(context.Background(), "base", userScope(uuid.New()))

	assert.Contains(t, got, "newest note")
	assert.NotContains(t, got, "oldest note")
}

func TestMergeTruncatesSingleOversizedNote(t *testing.T) {
	repo := &fakeAnnotationRepo{annotations: []*entity.Annotation{
		sharedNote(1, strings.Repeat("x", 500), "", time.Now()),
	}}
	m := NewMerger(repo, 100, logger.NewNopLogger())

	got := m.Merge(context.Background(), "base", userScope(uuid.New()))

	require.Contains(t, got, notesHeader)
	// The rendered block body stays within the budget.
	body := strings.TrimSuffix(strings.TrimPrefix(got, notesHeader+"\n"), "\n"+notesFooter+"\n\nbase")
	assert.LessOrEqual(t, len(body), 100)
}

func TestMergeKeepsOldestFirstOrderWithinBudget(t *testing.T) {
	now := time.Now()
	repo := &fakeAnnotationRepo{annotations: []*entity.Annotation{
		sharedNote(1, "first", "", now.Add(-time.Hour)),
		sharedNote(2, "second", "", now),
	}}
	m := NewMerger(repo, 0, logger.NewNopLogger())

	got := m.Merge(context.Background(), "base", userScope(uuid.New()))
	assert.Less(t, strings.Index(got, "first"), strings.Index(got, "second"))
}
