// Package archive keeps an audit copy of sessions after housekeeping removes
// them from the live registry.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

var ErrNotFound = errors.New("archive: session not found")

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS archived_sessions (
	id           TEXT PRIMARY KEY,
	code         TEXT NOT NULL,
	kind         TEXT NOT NULL,
	owner_id     TEXT NOT NULL,
	capacity     INTEGER NOT NULL,
	status       TEXT NOT NULL,
	room_ref     TEXT NOT NULL,
	features     TEXT NOT NULL,
	participants TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	started_at   TEXT,
	ended_at     TEXT,
	archived_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_archived_sessions_owner ON archived_sessions(owner_id, created_at);
`

// Store is a SQLite backed archive. It implements core.Archiver.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to dsn and creates the schema if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}
	// A single writer avoids SQLITE_BUSY and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the snapshot, so re-archiving after a failed removal is harmless.
func (s *Store) Save(ctx context.Context, sess domain.Session) error {
	features, err := json.Marshal(sess.Features)
	if err != nil {
		return fmt.Errorf("archive: encode features: %w", err)
	}
	participants, err := json.Marshal(sess.Participants)
	if err != nil {
		return fmt.Errorf("archive: encode participants: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO archived_sessions
			(id, code, kind, owner_id, capacity, status, room_ref, features, participants, created_at, started_at, ended_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			participants = excluded.participants,
			ended_at = excluded.ended_at,
			archived_at = excluded.archived_at`,
		string(sess.ID),
		string(sess.Code),
		string(sess.Kind),
		string(sess.OwnerID),
		sess.Capacity,
		string(sess.Status),
		string(sess.RoomRef),
		string(features),
		string(participants),
		formatTime(sess.CreatedAt),
		formatTimePtr(sess.StartedAt),
		formatTimePtr(sess.EndedAt),
		formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("archive: save %s: %w", sess.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, code, kind, owner_id, capacity, status, room_ref, features, participants, created_at, started_at, ended_at FROM archived_sessions`

func (s *Store) Get(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, string(id))
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, ErrNotFound
	}
	return sess, err
}

// ListByOwner returns the owner's archived sessions, oldest first.
func (s *Store) ListByOwner(ctx context.Context, owner domain.UserID) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE owner_id = ? ORDER BY created_at`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (domain.Session, error) {
	var (
		sess                        domain.Session
		features, participants      string
		createdAt                   string
		startedAt, endedAt          sql.NullString
		id, code, kind, owner, stat string
		room                        string
	)
	if err := row.Scan(&id, &code, &kind, &owner, &sess.Capacity, &stat, &room,
		&features, &participants, &createdAt, &startedAt, &endedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, err
		}
		return domain.Session{}, fmt.Errorf("archive: scan: %w", err)
	}
	sess.ID = domain.SessionID(id)
	sess.Code = domain.Code(code)
	sess.Kind = domain.Kind(kind)
	sess.OwnerID = domain.UserID(owner)
	sess.Status = domain.Status(stat)
	sess.RoomRef = domain.RoomRef(room)

	if err := json.Unmarshal([]byte(features), &sess.Features); err != nil {
		return domain.Session{}, fmt.Errorf("archive: decode features: %w", err)
	}
	if err := json.Unmarshal([]byte(participants), &sess.Participants); err != nil {
		return domain.Session{}, fmt.Errorf("archive: decode participants: %w", err)
	}
	var err error
	if sess.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return domain.Session{}, fmt.Errorf("archive: parse created_at: %w", err)
	}
	if sess.StartedAt, err = parseTimePtr(startedAt); err != nil {
		return domain.Session{}, fmt.Errorf("archive: parse started_at: %w", err)
	}
	if sess.EndedAt, err = parseTimePtr(endedAt); err != nil {
		return domain.Session{}, fmt.Errorf("archive: parse ended_at: %w", err)
	}
	return sess, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTimePtr(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
