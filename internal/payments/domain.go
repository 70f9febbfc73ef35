package payments

import (
	"time"

	"github.com/google/uuid"
)

// Event is one verified webhook delivery from the payment provider. The log
// is append-only; downstream consumers read it, the webhook endpoint never
// triggers business side effects itself.
type Event struct {
	ID         uuid.UUID `json:"id"`
	ProviderID string    `json:"provider_id"`
	Type       string    `json:"type"`
	Payload    []byte    `json:"-"`
	ReceivedAt time.Time `json:"received_at"`
}
