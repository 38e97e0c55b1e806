// Package store persists platform identities and their linked records.
//
// Three backends implement Store: MemoryStore (process local), SQLiteStore
// (modernc.org/sqlite) and GraphStore (Memgraph/Neo4j over bolt). Every
// backend returns List results oldest first, which the resolver relies on
// for its tie-break.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/platformid/internal/identity"
)

// ErrNotFound is returned when an update or link targets an unknown id.
var ErrNotFound = errors.New("record not found")

type Store interface {
	FindBySignal(ctx context.Context, signal string) (*identity.Record, error)
	List(ctx context.Context) ([]identity.Record, error)
	Create(ctx context.Context, rec identity.NewRecord) (*identity.Record, error)
	UpdateDisplayPayload(ctx context.Context, id string, payload json.RawMessage) (*identity.Record, error)
	CreateLinked(ctx context.Context, ownerID string, payload json.RawMessage) (*identity.LinkedRecord, error)
	Close(ctx context.Context) error
}

// Clock and IDGenerator are swapped out in tests.
type (
	Clock       func() time.Time
	IDGenerator func() string
)

func defaultClock() time.Time { return time.Now().UTC() }

func defaultID() string { return uuid.New().String() }

func clonePayload(p json.RawMessage) json.RawMessage {
	if p == nil {
		return nil
	}
	out := make(json.RawMessage, len(p))
	copy(out, p)
	return out
}
