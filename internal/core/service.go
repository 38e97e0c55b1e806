// Package core implements the identity workflows callers reach through the
// HTTP API: resolve, create, update the displayed payload and create a
// linked record.
package core

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/agenthands/platformid/internal/fingerprint"
	"github.com/agenthands/platformid/internal/identity"
	"github.com/agenthands/platformid/internal/store"
)

type Service struct {
	Store    store.Store
	Resolver *fingerprint.Resolver
}

func NewService(s store.Store, r *fingerprint.Resolver) *Service {
	return &Service{Store: s, Resolver: r}
}

// Resolution is the caller-facing result of Resolve.
type Resolution struct {
	Found   bool
	Record  *identity.Record
	Outcome fingerprint.Outcome
}

func (s *Service) Resolve(ctx context.Context, signal string) (Resolution, error) {
	if signal == "" {
		return Resolution{}, &ValidationError{Fields: []string{"signal"}}
	}
	out, err := s.resolve(ctx, signal)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Found: out.Matched(), Record: out.Record, Outcome: out}, nil
}

// Create stores a new identity. Duplicate signals are accepted.
func (s *Service) Create(ctx context.Context, in identity.NewRecord) (*identity.Record, error) {
	var missing []string
	if in.Username == "" {
		missing = append(missing, "username")
	}
	if in.Signal == "" {
		missing = append(missing, "signal")
	}
	if isFalsy(in.DisplayPayload) {
		missing = append(missing, "displayPayload")
	}
	if in.JoinedAt == 0 {
		missing = append(missing, "joinedAtUnixTime")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	rec, err := s.Store.Create(ctx, in)
	if err != nil {
		return nil, &StoreError{Op: "create", Err: err}
	}
	return rec, nil
}

// UpdateDisplay replaces the display payload of the identity the signal
// resolves to.
func (s *Service) UpdateDisplay(ctx context.Context, signal string, payload json.RawMessage) (*identity.Record, error) {
	if err := requireSignalAndPayload(signal, payload, "displayPayload"); err != nil {
		return nil, err
	}
	out, err := s.resolve(ctx, signal)
	if err != nil {
		return nil, err
	}
	if !out.Matched() {
		return nil, ErrNotFound
	}

	rec, err := s.Store.UpdateDisplayPayload(ctx, out.Record.ID, payload)
	if err != nil {
		return nil, &StoreError{Op: "update display payload", Err: err}
	}
	return rec, nil
}

// CreateLinked stores payload as a record owned by the identity the signal
// resolves to.
func (s *Service) CreateLinked(ctx context.Context, signal string, payload json.RawMessage) (*identity.LinkedRecord, error) {
	if err := requireSignalAndPayload(signal, payload, "payload"); err != nil {
		return nil, err
	}
	out, err := s.resolve(ctx, signal)
	if err != nil {
		return nil, err
	}
	if !out.Matched() {
		return nil, ErrUnauthorized
	}

	linked, err := s.Store.CreateLinked(ctx, out.Record.ID, payload)
	if err != nil {
		return nil, &StoreError{Op: "create linked record", Err: err}
	}
	return linked, nil
}

func (s *Service) resolve(ctx context.Context, signal string) (fingerprint.Outcome, error) {
	out, err := s.Resolver.Resolve(ctx, s.Store, signal)
	if err != nil {
		return fingerprint.Outcome{}, &StoreError{Op: "resolve", Err: err}
	}
	return out, nil
}

func requireSignalAndPayload(signal string, payload json.RawMessage, payloadField string) error {
	var missing []string
	if signal == "" {
		missing = append(missing, "signal")
	}
	if isFalsy(payload) {
		missing = append(missing, payloadField)
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// isFalsy reports whether a JSON value is absent, null, false, zero or an
// empty string.
func isFalsy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return true
	}
	switch string(v) {
	case "null", "false", `""`:
		return true
	}
	if v[0] != '-' && (v[0] < '0' || v[0] > '9') {
		return false
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return false
	}
	return f == 0
}
