package identity

import (
	"encoding/json"
	"time"
)

// Record is a registered platform user. Signal is the fingerprint string
// supplied at creation and never changes; DisplayPayload is the only field
// that is updated afterwards.
type Record struct {
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	Signal         string          `json:"-"`
	DisplayPayload json.RawMessage `json:"displayPayload"`
	JoinedAt       int64           `json:"joinedAtUnixTime"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NewRecord holds the fields needed to create a Record.
type NewRecord struct {
	Username       string
	Signal         string
	DisplayPayload json.RawMessage
	JoinedAt       int64
}

// LinkedRecord is a dependent record owned by a resolved identity.
type LinkedRecord struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"ownerId"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}
