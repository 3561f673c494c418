package core

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists message records in a single local SQLite file and
// serves scoped range reads ordered by recency. It exclusively owns all
// persisted records; there is no update or delete operation.
type SQLiteStore struct {
	db     *sql.DB
	config Config
	mu     sync.RWMutex
	closed bool
}

// NewStore creates a message store for the given configuration. The database
// is not touched until Init is called.
func NewStore(config Config) (*SQLiteStore, error) {
	if config.Path == "" {
		return nil, wrapError("init", ErrUnavailable, fmt.Errorf("database path cannot be empty"))
	}
	return &SQLiteStore{config: config}, nil
}

// Init opens the database and creates the schema if absent. It is idempotent
// and safe to call on every process start. A failure here is fatal to the
// whole plugin's initialization.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return wrapError("init", ErrUnavailable, ErrStoreClosed)
	}

	if s.db == nil {
		if dir := filepath.Dir(s.config.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return wrapError("init", ErrUnavailable, fmt.Errorf("failed to create data directory: %w", err))
			}
		}

		// busy_timeout=10000: wait up to 10s for a lock instead of failing immediately
		// journal_mode=WAL: readers do not block the capture path
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", s.config.Path)
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return wrapError("init", ErrUnavailable, fmt.Errorf("failed to open database: %w", err))
		}

		// Connections are bounded to the worker pool size; no connection is
		// shared between concurrent delegated calls.
		db.SetMaxOpenConns(2)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(time.Hour)

		s.db = db
	}

	if err := s.createSchema(ctx); err != nil {
		return wrapError("init", ErrUnavailable, err)
	}

	s.config.Logger.Info().Str("path", s.config.Path).Msg("history database schema initialized")

	return nil
}

// createSchema creates the messages table and its access indices
func (s *SQLiteStore) createSchema(ctx context.Context) error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		platform_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		sender_name TEXT,
		message_text TEXT,
		message_outline TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session_time ON messages (session_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_messages_sender_time ON messages (sender_id, created_at DESC);
	`

	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Insert appends one record. The row id assigned by the engine stays internal.
func (s *SQLiteStore) Insert(ctx context.Context, rec Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return wrapError("insert", ErrWriteFailed, ErrStoreClosed)
	}

	const insertSQL = `
		INSERT INTO messages (
			session_id, platform_id, sender_id, sender_name,
			message_text, message_outline, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, insertSQL,
		rec.SessionID, rec.PlatformID, rec.SenderID, rec.SenderName,
		rec.MessageText, rec.MessageOutline, rec.CreatedAt.UTC().Unix())
	if err != nil {
		return wrapError("insert", ErrWriteFailed, err)
	}

	return nil
}

// ScanFilter is a conjunction of optional constraints applied before ranking.
// Empty slices mean no constraint on that dimension.
type ScanFilter struct {
	Sessions  []string
	Platforms []string
	Senders   []string
	TextLike  string // LIKE pattern against message_text (and message_outline unless TextOnly)
	TextOnly  bool
}

// Scan returns up to limit records matching the filter, ordered by created_at
// descending. limit <= 0 means no limit.
func (s *SQLiteStore) Scan(ctx context.Context, filter ScanFilter, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return nil, wrapError("scan", ErrReadFailed, ErrStoreClosed)
	}

	var clauses []string
	var args []any

	if filter.TextLike != "" {
		if filter.TextOnly {
			clauses = append(clauses, "message_text LIKE ?")
			args = append(args, filter.TextLike)
		} else {
			clauses = append(clauses, "(message_text LIKE ? OR message_outline LIKE ?)")
			args = append(args, filter.TextLike, filter.TextLike)
		}
	}

	for _, c := range []struct {
		column string
		values []string
	}{
		{"session_id", filter.Sessions},
		{"platform_id", filter.Platforms},
		{"sender_id", filter.Senders},
	} {
		if len(c.values) == 0 {
			continue
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(c.values)), ",")
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", c.column, placeholders))
		for _, v := range c.values {
			args = append(args, v)
		}
	}

	query := "SELECT session_id, platform_id, sender_id, sender_name, " +
		"message_text, message_outline, created_at FROM messages"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError("scan", ErrReadFailed, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt int64
		if err := rows.Scan(&rec.SessionID, &rec.PlatformID, &rec.SenderID, &rec.SenderName,
			&rec.MessageText, &rec.MessageOutline, &createdAt); err != nil {
			return nil, wrapError("scan", ErrReadFailed, err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapError("scan", ErrReadFailed, err)
	}

	return records, nil
}

// Stats reports record count, the most recent record time and up to sampleSize
// recent samples. Exists is false when nothing has been written to disk yet.
func (s *SQLiteStore) Stats(ctx context.Context, sampleSize int) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return Stats{}, wrapError("stats", ErrReadFailed, ErrStoreClosed)
	}

	if _, err := os.Stat(s.config.Path); err != nil {
		return Stats{}, nil
	}

	st := Stats{Exists: true}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM messages").Scan(&st.Total); err != nil {
		return Stats{}, wrapError("stats", ErrReadFailed, err)
	}

	var latest sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(created_at) FROM messages").Scan(&latest); err != nil {
		return Stats{}, wrapError("stats", ErrReadFailed, err)
	}
	if latest.Valid {
		st.Latest = time.Unix(latest.Int64, 0).UTC()
	}

	if sampleSize <= 0 {
		return st, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, sender_name, message_outline, message_text, created_at
		FROM messages
		ORDER BY created_at DESC
		LIMIT ?`, sampleSize)
	if err != nil {
		return Stats{}, wrapError("stats", ErrReadFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sessionID, senderName, outline, text string
		var createdAt int64
		if err := rows.Scan(&sessionID, &senderName, &outline, &text, &createdAt); err != nil {
			return Stats{}, wrapError("stats", ErrReadFailed, err)
		}
		if senderName == "" {
			senderName = "Unknown"
		}
		snippet := outline
		if snippet == "" {
			snippet = text
		}
		st.Samples = append(st.Samples, Sample{
			SessionID:  sessionID,
			SenderName: senderName,
			Snippet:    snippet,
			CreatedAt:  time.Unix(createdAt, 0).UTC(),
		})
	}

	if err := rows.Err(); err != nil {
		return Stats{}, wrapError("stats", ErrReadFailed, err)
	}

	return st, nil
}

// Close closes the database connection and releases resources
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	if s.db != nil {
		return s.db.Close()
	}

	return nil
}
