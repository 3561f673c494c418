package core

import (
	"fmt"
	"time"
)

// Record is one captured chat message. Records are immutable once stored;
// the store's internal row id is never exposed to callers.
type Record struct {
	SessionID      string    `json:"session_id"`
	PlatformID     string    `json:"platform_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name,omitempty"`
	MessageText    string    `json:"message_text"`
	MessageOutline string    `json:"message_outline"`
	CreatedAt      time.Time `json:"created_at"` // UTC, second precision
}

// FormatLine renders the record as a single human-readable line.
func (r Record) FormatLine() string {
	name := r.SenderName
	if name == "" {
		name = r.SenderID
	}
	return fmt.Sprintf("%s %s: %s", r.CreatedAt.Local().Format("01-02 15:04"), name, r.MessageText)
}

// ScoredRecord is a record with its similarity score against a query keyword.
type ScoredRecord struct {
	Record
	Score int `json:"score"`
}

// Stats provides a read-only snapshot of the store for self-check reporting.
type Stats struct {
	Exists  bool      `json:"exists"`
	Total   int64     `json:"total"`
	Latest  time.Time `json:"latest,omitempty"` // zero when the store is empty
	Samples []Sample  `json:"samples,omitempty"`
}

// Sample is one of the most recent records, trimmed down for display.
type Sample struct {
	SessionID  string    `json:"session_id"`
	SenderName string    `json:"sender_name"`
	Snippet    string    `json:"snippet"`
	CreatedAt  time.Time `json:"created_at"`
}
