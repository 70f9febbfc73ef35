package events

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of an event creation request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Event is a scheduled community happening.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Game        string    `json:"game"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Request is an event proposal awaiting an admin decision.
type Request struct {
	ID          uuid.UUID     `json:"id"`
	RequesterID uuid.UUID     `json:"requester_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Game        string        `json:"game"`
	Location    string        `json:"location"`
	StartsAt    time.Time     `json:"starts_at"`
	EndsAt      time.Time     `json:"ends_at"`
	Status      RequestStatus `json:"status"`
	Reason      string        `json:"reason,omitempty"`
	DecidedBy   *uuid.UUID    `json:"decided_by,omitempty"`
	DecidedAt   *time.Time    `json:"decided_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
