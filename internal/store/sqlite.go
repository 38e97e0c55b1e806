package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agenthands/platformid/internal/identity"
)

const userColumns = "id, username, signal, display_payload, joined_at, created_at"

// SQLiteStore persists identities in a single SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string

	Now   Clock
	NewID IDGenerator
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure database dir: %w", err)
		}
	}

	// DSN pragmas apply to every pooled connection.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &SQLiteStore{db: db, path: path, Now: defaultClock, NewID: defaultID}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) FindBySignal(ctx context.Context, signal string) (*identity.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM platform_users WHERE signal = ? ORDER BY seq ASC LIMIT 1`, signal)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by signal: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]identity.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM platform_users ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list platform users: %w", err)
	}
	defer rows.Close()

	var out []identity.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan platform user: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate platform users: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Create(ctx context.Context, in identity.NewRecord) (*identity.Record, error) {
	rec := identity.Record{
		ID:             s.NewID(),
		Username:       in.Username,
		Signal:         in.Signal,
		DisplayPayload: clonePayload(in.DisplayPayload),
		JoinedAt:       in.JoinedAt,
		CreatedAt:      s.Now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO platform_users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Username,
		rec.Signal,
		string(rec.DisplayPayload),
		rec.JoinedAt,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert platform user: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) UpdateDisplayPayload(ctx context.Context, id string, payload json.RawMessage) (*identity.Record, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE platform_users SET display_payload = ? WHERE id = ?`, string(payload), id)
	if err != nil {
		return nil, fmt.Errorf("update display payload: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("update display payload %s: %w", id, ErrNotFound)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM platform_users WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("reload platform user: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) CreateLinked(ctx context.Context, ownerID string, payload json.RawMessage) (*identity.LinkedRecord, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM platform_users WHERE id = ?`, ownerID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check owner: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("create linked record for %s: %w", ownerID, ErrNotFound)
	}

	rec := identity.LinkedRecord{
		ID:        s.NewID(),
		OwnerID:   ownerID,
		Payload:   clonePayload(payload),
		CreatedAt: s.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO linked_records (id, owner_id, payload, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID,
		rec.OwnerID,
		string(rec.Payload),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert linked record: %w", err)
	}
	return &rec, nil
}

// LinkedFor returns the linked records owned by ownerID, oldest first.
func (s *SQLiteStore) LinkedFor(ctx context.Context, ownerID string) ([]identity.LinkedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, payload, created_at FROM linked_records WHERE owner_id = ? ORDER BY seq ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list linked records: %w", err)
	}
	defer rows.Close()

	var out []identity.LinkedRecord
	for rows.Next() {
		var (
			l       identity.LinkedRecord
			payload string
			created string
		)
		if err := rows.Scan(&l.ID, &l.OwnerID, &payload, &created); err != nil {
			return nil, fmt.Errorf("scan linked record: %w", err)
		}
		l.Payload = json.RawMessage(payload)
		l.CreatedAt = parseTimestamp(created)
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*identity.Record, error) {
	var (
		rec     identity.Record
		payload string
		created string
	)
	if err := row.Scan(&rec.ID, &rec.Username, &rec.Signal, &payload, &rec.JoinedAt, &created); err != nil {
		return nil, err
	}
	rec.DisplayPayload = json.RawMessage(payload)
	rec.CreatedAt = parseTimestamp(created)
	return &rec, nil
}

func parseTimestamp(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
