package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sheridangray/family-event-planner/internal/dedup"
	"github.com/sheridangray/family-event-planner/internal/event"
)

// Fixed-width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB is the SQLite event store and merge audit log
type DB struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// MergeRecord is one row of the merge audit log
type MergeRecord struct {
	ID              string          `json:"id"`
	PrimaryID       string          `json:"primaryId"`
	PrimaryTitle    string          `json:"primaryTitle"`
	DuplicateID     string          `json:"duplicateId"`
	DuplicateSource string          `json:"duplicateSource"`
	Duplicate       *event.Event    `json:"duplicateEvent"`
	SimilarityScore float64         `json:"similarityScore"`
	MergeType       dedup.MergeType `json:"mergeType"`
	CreatedAt       time.Time       `json:"createdAt"`
}

var _ dedup.AuditSink = (*DB)(nil)

// OpenDB opens or creates the database at path and applies the schema
func OpenDB(path string) (*DB, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Audit writes arrive from several goroutines; one connection serializes them
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{conn: conn, path: path, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id          TEXT PRIMARY KEY,
			source      TEXT NOT NULL DEFAULT '',
			title       TEXT NOT NULL DEFAULT '',
			event_date  TEXT,
			merge_count INTEGER NOT NULL DEFAULT 1,
			payload     TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date)`,
		`CREATE TABLE IF NOT EXISTS merge_audit (
			id                TEXT PRIMARY KEY,
			primary_id        TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			duplicate_id      TEXT NOT NULL DEFAULT '',
			duplicate_source  TEXT NOT NULL DEFAULT '',
			duplicate_payload TEXT NOT NULL,
			similarity_score  REAL NOT NULL,
			merge_type        TEXT NOT NULL,
			created_at        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_merge_audit_primary ON merge_audit(primary_id)`,
		`CREATE INDEX IF NOT EXISTS idx_merge_audit_created ON merge_audit(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w\nstatement: %s", err, stmt)
		}
	}
	return nil
}

// SaveEvents inserts or replaces events by id in one transaction
func (db *DB) SaveEvents(ctx context.Context, events []*event.Event) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, source, title, event_date, merge_count, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source      = excluded.source,
			title       = excluded.title,
			event_date  = excluded.event_date,
			merge_count = excluded.merge_count,
			payload     = excluded.payload,
			updated_at  = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := db.now().UTC().Format(timeLayout)
	for _, evt := range events {
		if evt == nil || evt.ID == "" {
			continue
		}
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("encoding event %s: %w", evt.ID, err)
		}

		var date sql.NullString
		if evt.HasDate() {
			date = sql.NullString{String: evt.Date.UTC().Format(timeLayout), Valid: true}
		}

		mergeCount := evt.MergeCount
		if mergeCount < 1 {
			mergeCount = 1
		}

		if _, err := stmt.ExecContext(ctx, evt.ID, evt.Source, evt.Title, date, mergeCount, string(payload), now, now); err != nil {
			return fmt.Errorf("saving event %s: %w", evt.ID, err)
		}
	}

	return tx.Commit()
}

// GetEvent returns the stored copy of an event, or nil if it is unknown
func (db *DB) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	var payload string
	err := db.conn.QueryRowContext(ctx, `SELECT payload FROM events WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query event %s: %w", id, err)
	}

	var evt event.Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return nil, fmt.Errorf("decoding event %s: %w", id, err)
	}
	return &evt, nil
}

// CountEvents returns the number of stored events
func (db *DB) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// RecordEventMerge implements dedup.AuditSink. It returns an empty id when
// the primary event is not in the store.
func (db *DB) RecordEventMerge(ctx context.Context, primaryID string, duplicate *event.Event, score float64, mergeType dedup.MergeType) (string, error) {
	var exists int
	err := db.conn.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, primaryID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up primary %s: %w", primaryID, err)
	}

	payload, err := json.Marshal(duplicate)
	if err != nil {
		return "", fmt.Errorf("encoding duplicate: %w", err)
	}

	id := uuid.NewString()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO merge_audit (id, primary_id, duplicate_id, duplicate_source, duplicate_payload, similarity_score, merge_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, primaryID, duplicate.ID, duplicate.Source, string(payload), score, string(mergeType),
		db.now().UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("insert merge audit: %w", err)
	}

	return id, nil
}

// RecentMerges returns the newest audit rows first
func (db *DB) RecentMerges(ctx context.Context, limit int) ([]MergeRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT m.id, m.primary_id, COALESCE(e.title, ''), m.duplicate_id, m.duplicate_source,
		       m.duplicate_payload, m.similarity_score, m.merge_type, m.created_at
		FROM merge_audit m
		LEFT JOIN events e ON e.id = m.primary_id
		ORDER BY m.created_at DESC, m.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query merges: %w", err)
	}
	defer rows.Close()

	var records []MergeRecord
	for rows.Next() {
		var (
			r         MergeRecord
			payload   string
			mergeType string
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.PrimaryID, &r.PrimaryTitle, &r.DuplicateID, &r.DuplicateSource,
			&payload, &r.SimilarityScore, &mergeType, &createdAt); err != nil {
			return nil, fmt.Errorf("scan merge: %w", err)
		}

		r.MergeType = dedup.MergeType(mergeType)
		r.Duplicate = &event.Event{}
		if err := json.Unmarshal([]byte(payload), r.Duplicate); err != nil {
			return nil, fmt.Errorf("decoding merge %s: %w", r.ID, err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing merge time %q: %w", createdAt, err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
