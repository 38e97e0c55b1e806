package core

import (
	"context"
	"encoding/json"

	"github.com/agenthands/platformid/internal/identity"
	"github.com/agenthands/platformid/internal/store"
)

// MockStore wraps a MemoryStore and lets tests inject failures and inspect
// what reached the backend.
type MockStore struct {
	*store.MemoryStore

	ListErr   error
	CreateErr error
	UpdateErr error
	LinkErr   error

	Created    []identity.NewRecord
	UpdatedIDs []string
	LinkedIDs  []string
}

func NewMockStore() *MockStore {
	return &MockStore{MemoryStore: store.NewMemoryStore()}
}

func (m *MockStore) List(ctx context.Context) ([]identity.Record, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.MemoryStore.List(ctx)
}

func (m *MockStore) Create(ctx context.Context, rec identity.NewRecord) (*identity.Record, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Created = append(m.Created, rec)
	return m.MemoryStore.Create(ctx, rec)
}

func (m *MockStore) UpdateDisplayPayload(ctx context.Context, id string, payload json.RawMessage) (*identity.Record, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	m.UpdatedIDs = append(m.UpdatedIDs, id)
	return m.MemoryStore.UpdateDisplayPayload(ctx, id, payload)
}

func (m *MockStore) CreateLinked(ctx context.Context, ownerID string, payload json.RawMessage) (*identity.LinkedRecord, error) {
	if m.LinkErr != nil {
		return nil, m.LinkErr
	}
	m.LinkedIDs = append(m.LinkedIDs, ownerID)
	return m.MemoryStore.CreateLinked(ctx, ownerID, payload)
}
