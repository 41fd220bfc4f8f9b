package entity

import (
	"time"

	"github.com/google/uuid"
)

// Annotation is a user's highlight/note on a book page, owned by the
// annotation collaborator. The retrieval core only ever reads rows with
// ShareWithAi set.
type Annotation struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	BookId      uuid.UUID
	Page        int
	Text        string
	Comment     string
	ShareWithAi bool
	CreatedAt   time.Time
}
