package tournaments

import (
	"time"

	"github.com/google/uuid"
)

// Status is the registration lifecycle of a tournament.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusOpen     Status = "open"
	StatusClosed   Status = "closed"
	StatusFinished Status = "finished"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusOpen, StatusClosed, StatusFinished:
		return true
	}
	return false
}

// Tournament is a bracketed competition with limited slots.
type Tournament struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Game        string    `json:"game"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Capacity    int       `json:"capacity"`
	StartsAt    time.Time `json:"starts_at"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Registration is one participant's slot in a tournament.
type Registration struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	UserID       uuid.UUID `json:"user_id"`
	RegisteredAt time.Time `json:"registered_at"`
}
