package teams

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a team creation request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Membership roles. A team has exactly one owner at any time.
const (
	MemberRoleOwner  = "owner"
	MemberRoleMember = "member"
)

// Team is a roster competing under one tag.
type Team struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Tag         string    `json:"tag"`
	Description string    `json:"description"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership ties a user to a team.
type Membership struct {
	ID       uuid.UUID `json:"id"`
	TeamID   uuid.UUID `json:"team_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Request is a team creation request awaiting an admin decision.
type Request struct {
	ID          uuid.UUID     `json:"id"`
	RequesterID uuid.UUID     `json:"requester_id"`
	Name        string        `json:"name"`
	Tag         string        `json:"tag"`
	Description string        `json:"description"`
	Status      RequestStatus `json:"status"`
	Reason      string        `json:"reason,omitempty"`
	DecidedBy   *uuid.UUID    `json:"decided_by,omitempty"`
	DecidedAt   *time.Time    `json:"decided_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
