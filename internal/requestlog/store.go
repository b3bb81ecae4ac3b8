// Package requestlog keeps a SQLite-backed log of synthesis requests.
package requestlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oratelabs/orate-core/internal/config"
)

// Record is one synthesis request as served.
type Record struct {
	ID         int64
	RequestID  string
	VoiceID    string
	Engine     string
	Format     string
	Translated bool
	TextLen    int
	ChunkCount int
	Status     string
	CreatedAt  time.Time
}

// Event is one timeline entry within a request.
type Event struct {
	ID        int64
	RequestID string
	Type      string
	Detail    string
	CreatedAt time.Time
}

// Request statuses.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store wraps the SQLite request log. In ephemeral retention mode all writes
// are no-ops.
type Store struct {
	db    *sql.DB
	cfg   config.RequestLogConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the request log according to config.
func Open(ctx context.Context, cfg config.RequestLogConfig, log *slog.Logger) (*Store, error) {
	if cfg.RetentionMode == "ephemeral" {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart {
		if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
			log.Warn("request log vacuum failed", slog.String("error", err.Error()))
		}
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("request log prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS requests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL UNIQUE,
    voice_id TEXT,
    engine TEXT,
    format TEXT,
    translated INTEGER NOT NULL DEFAULT 0,
    text_len INTEGER NOT NULL DEFAULT 0,
    chunk_count INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL,
    event_type TEXT,
    detail TEXT,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(request_id) REFERENCES requests(request_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_events_request_created ON events(request_id, created_at);
CREATE INDEX IF NOT EXISTS idx_requests_created ON requests(created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AppendRequest records a new synthesis request.
func (s *Store) AppendRequest(ctx context.Context, rec Record) error {
	if s.db == nil {
		return nil
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock().UTC()
	}
	if rec.Status == "" {
		rec.Status = StatusStarted
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requests(request_id, voice_id, engine, format, translated, text_len, chunk_count, status, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.VoiceID, rec.Engine, rec.Format, rec.Translated, rec.TextLen, rec.ChunkCount, rec.Status, rec.CreatedAt)
	return err
}

// UpdateStatus marks a request completed or failed.
func (s *Store) UpdateStatus(ctx context.Context, requestID, status string, chunkCount int) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE requests SET status = ?, chunk_count = ? WHERE request_id = ?`,
		status, chunkCount, requestID)
	return err
}

// AppendEvent writes a timeline entry for a request.
func (s *Store) AppendEvent(ctx context.Context, evt Event) error {
	if s.db == nil {
		return nil
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events(request_id, event_type, detail, created_at) VALUES(?, ?, ?, ?)`,
		evt.RequestID, evt.Type, evt.Detail, evt.CreatedAt)
	return err
}

// ListRequestEvents returns up to limit events for a request, oldest first.
func (s *Store) ListRequestEvents(ctx context.Context, requestID string, limit int) ([]Event, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, event_type, detail, created_at FROM events
		 WHERE request_id = ? ORDER BY created_at ASC, id ASC LIMIT ?`,
		requestID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.RequestID, &evt.Type, &evt.Detail, &evt.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// ListRecent returns up to limit requests, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, voice_id, engine, format, translated, text_len, chunk_count, status, created_at
		 FROM requests ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.VoiceID, &rec.Engine, &rec.Format,
			&rec.Translated, &rec.TextLen, &rec.ChunkCount, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune enforces the retention policy: requests older than RetentionDays are
// deleted, then the newest MaxRequests rows are kept.
func (s *Store) Prune(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().UTC().AddDate(0, 0, -s.cfg.RetentionDays)
		if _, err := s.db.ExecContext(ctx, `DELETE FROM requests WHERE created_at < ?`, cutoff); err != nil {
			return err
		}
	}
	if s.cfg.MaxRequests > 0 {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM requests WHERE request_id NOT IN (
			    SELECT request_id FROM requests ORDER BY created_at DESC, id DESC LIMIT ?
			 )`, s.cfg.MaxRequests)
		if err != nil {
			return err
		}
	}
	return nil
}
