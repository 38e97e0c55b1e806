package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/platformid/internal/driver"
	"github.com/agenthands/platformid/internal/identity"
)

// GraphStore keeps identities as :PlatformUser nodes and linked records as
// :LinkedRecord nodes joined to their owner with a BELONGS_TO edge.
type GraphStore struct {
	Driver driver.GraphDriver

	Now   Clock
	NewID IDGenerator

	seqMu   sync.Mutex
	lastSeq int64
}

func NewGraphStore(d driver.GraphDriver) *GraphStore {
	return &GraphStore{Driver: d, Now: defaultClock, NewID: defaultID}
}

// nextSeq returns a creation sequence that strictly increases within this
// store even when the clock repeats or steps backwards.
func (g *GraphStore) nextSeq(now time.Time) int64 {
	g.seqMu.Lock()
	defer g.seqMu.Unlock()

	seq := now.UnixNano()
	if seq <= g.lastSeq {
		seq = g.lastSeq + 1
	}
	g.lastSeq = seq
	return seq
}

func (g *GraphStore) BuildIndices(ctx context.Context) error {
	return g.Driver.BuildIndices(ctx)
}

func (g *GraphStore) Close(ctx context.Context) error {
	return g.Driver.Close(ctx)
}

func (g *GraphStore) FindBySignal(ctx context.Context, signal string) (*identity.Record, error) {
	res, err := g.Driver.ExecuteQuery(ctx, driver.FindPlatformUserBySignalQuery, map[string]interface{}{
		"signal": signal,
	})
	if err != nil {
		return nil, fmt.Errorf("find by signal: %w", err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	return decodeUser(res.Records[0])
}

func (g *GraphStore) List(ctx context.Context) ([]identity.Record, error) {
	res, err := g.Driver.ExecuteQuery(ctx, driver.ListPlatformUsersQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("list platform users: %w", err)
	}

	out := make([]identity.Record, 0, len(res.Records))
	for _, r := range res.Records {
		rec, err := decodeUser(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (g *GraphStore) Create(ctx context.Context, in identity.NewRecord) (*identity.Record, error) {
	now := g.Now()
	params := map[string]interface{}{
		"id":              g.NewID(),
		"username":        in.Username,
		"signal":          in.Signal,
		"display_payload": string(in.DisplayPayload),
		"joined_at":       in.JoinedAt,
		"created_at":      now.Format(time.RFC3339Nano),
		"seq":             g.nextSeq(now),
	}

	res, err := g.Driver.ExecuteQuery(ctx, driver.CreatePlatformUserQuery, params)
	if err != nil {
		return nil, fmt.Errorf("create platform user: %w", err)
	}
	if len(res.Records) == 0 {
		// Fall back to the written values when the server returns no row.
		return &identity.Record{
			ID:             params["id"].(string),
			Username:       in.Username,
			Signal:         in.Signal,
			DisplayPayload: clonePayload(in.DisplayPayload),
			JoinedAt:       in.JoinedAt,
			CreatedAt:      now,
		}, nil
	}
	return decodeUser(res.Records[0])
}

func (g *GraphStore) UpdateDisplayPayload(ctx context.Context, id string, payload json.RawMessage) (*identity.Record, error) {
	res, err := g.Driver.ExecuteQuery(ctx, driver.UpdateDisplayPayloadQuery, map[string]interface{}{
		"id":              id,
		"display_payload": string(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("update display payload: %w", err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("update display payload %s: %w", id, ErrNotFound)
	}
	return decodeUser(res.Records[0])
}

func (g *GraphStore) CreateLinked(ctx context.Context, ownerID string, payload json.RawMessage) (*identity.LinkedRecord, error) {
	params := map[string]interface{}{
		"id":         g.NewID(),
		"owner_id":   ownerID,
		"payload":    string(payload),
		"created_at": g.Now().Format(time.RFC3339Nano),
	}
	res, err := g.Driver.ExecuteQuery(ctx, driver.CreateLinkedRecordQuery, params)
	if err != nil {
		return nil, fmt.Errorf("create linked record: %w", err)
	}
	// MATCH on the owner yields no rows when it does not exist.
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("create linked record for %s: %w", ownerID, ErrNotFound)
	}

	r := res.Records[0]
	id, err := recordString(r, "id")
	if err != nil {
		return nil, err
	}
	owner, err := recordString(r, "owner_id")
	if err != nil {
		return nil, err
	}
	body, err := recordString(r, "payload")
	if err != nil {
		return nil, err
	}
	created, err := recordString(r, "created_at")
	if err != nil {
		return nil, err
	}
	return &identity.LinkedRecord{
		ID:        id,
		OwnerID:   owner,
		Payload:   json.RawMessage(body),
		CreatedAt: parseTimestamp(created),
	}, nil
}

func decodeUser(r *neo4j.Record) (*identity.Record, error) {
	var (
		rec identity.Record
		err error
	)
	if rec.ID, err = recordString(r, "id"); err != nil {
		return nil, err
	}
	if rec.Username, err = recordString(r, "username"); err != nil {
		return nil, err
	}
	if rec.Signal, err = recordString(r, "signal"); err != nil {
		return nil, err
	}
	payload, err := recordString(r, "display_payload")
	if err != nil {
		return nil, err
	}
	rec.DisplayPayload = json.RawMessage(payload)

	if v, ok := r.Get("joined_at"); ok {
		switch n := v.(type) {
		case int64:
			rec.JoinedAt = n
		case int:
			rec.JoinedAt = int64(n)
		case float64:
			rec.JoinedAt = int64(n)
		}
	}
	created, err := recordString(r, "created_at")
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = parseTimestamp(created)
	return &rec, nil
}

func recordString(r *neo4j.Record, key string) (string, error) {
	v, ok := r.Get(key)
	if !ok {
		return "", fmt.Errorf("graph record missing %q", key)
	}
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("graph record field %q: unexpected type %T", key, v)
	}
	return s, nil
}
