package forums

import (
	"time"

	"github.com/google/uuid"
)

// Thread is a forum discussion.
type Thread struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	AuthorID  uuid.UUID `json:"author_id"`
	Locked    bool      `json:"locked"`
	PostCount int       `json:"post_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Post is one message in a thread.
type Post struct {
	ID        uuid.UUID `json:"id"`
	ThreadID  uuid.UUID `json:"thread_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
