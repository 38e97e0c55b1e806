package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/agenthands/platformid/internal/identity"
)

// MemoryStore keeps records in insertion order behind a RWMutex.
type MemoryStore struct {
	mu      sync.RWMutex
	records []identity.Record
	linked  []identity.LinkedRecord

	Now   Clock
	NewID IDGenerator
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Now: defaultClock, NewID: defaultID}
}

func (s *MemoryStore) FindBySignal(ctx context.Context, signal string) (*identity.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].Signal == signal {
			rec := copyRecord(s.records[i])
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]identity.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]identity.Record, len(s.records))
	for i := range s.records {
		out[i] = copyRecord(s.records[i])
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, in identity.NewRecord) (*identity.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := identity.Record{
		ID:             s.NewID(),
		Username:       in.Username,
		Signal:         in.Signal,
		DisplayPayload: clonePayload(in.DisplayPayload),
		JoinedAt:       in.JoinedAt,
		CreatedAt:      s.Now(),
	}

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()

	out := copyRecord(rec)
	return &out, nil
}

func (s *MemoryStore) UpdateDisplayPayload(ctx context.Context, id string, payload json.RawMessage) (*identity.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].DisplayPayload = clonePayload(payload)
			rec := copyRecord(s.records[i])
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("update display payload %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) CreateLinked(ctx context.Context, ownerID string, payload json.RawMessage) (*identity.LinkedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.records {
		if s.records[i].ID == ownerID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("create linked record for %s: %w", ownerID, ErrNotFound)
	}

	rec := identity.LinkedRecord{
		ID:        s.NewID(),
		OwnerID:   ownerID,
		Payload:   clonePayload(payload),
		CreatedAt: s.Now(),
	}
	s.linked = append(s.linked, rec)
	rec.Payload = clonePayload(rec.Payload)
	return &rec, nil
}

// Linked returns the linked records owned by ownerID.
func (s *MemoryStore) Linked(ownerID string) []identity.LinkedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []identity.LinkedRecord
	for _, l := range s.linked {
		if l.OwnerID == ownerID {
			l.Payload = clonePayload(l.Payload)
			out = append(out, l)
		}
	}
	return out
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func copyRecord(r identity.Record) identity.Record {
	r.DisplayPayload = clonePayload(r.DisplayPayload)
	return r
}
