package models

import "time"

// Message statuses. A message is always exactly one of the two; there is
// no undecided state.
const (
	StatusValid   = "valid"
	StatusInvalid = "invalid"
)

// ValidStatus reports whether s is one of the two message statuses.
// Every boundary that accepts a status checks it here before writing.
func ValidStatus(s string) bool {
	return s == StatusValid || s == StatusInvalid
}

// Message represents a chat message stored in the 'messages' table.
// Text messages carry no file fields; uploads carry both. Messages are
// never deleted, only their status is toggled.
type Message struct {
	ID          string    `db:"id" json:"_id"`
	Sender      string    `db:"sender" json:"sender"`
	Text        string    `db:"text" json:"text"`
	FileID      *string   `db:"file_id" json:"file_id"`
	Filename    *string   `db:"filename" json:"filename,omitempty"`
	ContentType *string   `db:"content_type" json:"content_type,omitempty"`
	Private     bool      `db:"private" json:"private"`
	Receiver    *string   `db:"receiver" json:"receiver,omitempty"`
	Status      string    `db:"status" json:"status"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
}

// StoredFile represents an uploaded binary stored in the 'files' table.
// File bytes are immutable once written; redaction happens per request
// on a copy, never against the stored blob.
type StoredFile struct {
	ID          string    `db:"id"`
	Filename    string    `db:"filename"`
	ContentType string    `db:"content_type"`
	Sender      string    `db:"sender"`
	Data        []byte    `db:"data"`
	CreatedAt   time.Time `db:"created_at"`
}
