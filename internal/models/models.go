package models

import (
	"io"
	"time"
)

// Entry types as rendered in catalog responses
const (
	EntryTypeFile   = "file"
	EntryTypeFolder = "folder"
)

// Entry is one immediate child of a cataloged directory
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"` // root-relative, forward slashes
	Size int64  `json:"size"` // folders report their recursive content size
	Type string `json:"type"` // "file" or "folder"
}

// TransferRecord describes one completed transfer for the history store
type TransferRecord struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"` // upload, file, folder, selection
	Path      string    `json:"path"`
	Name      string    `json:"name,omitempty"`
	SizeBytes int64     `json:"size_bytes"`
	Status    string    `json:"status"` // completed, partial, failed
	Remote    string    `json:"remote,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventPayload is posted to the webhook listener for each activity event
type EventPayload struct {
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	Connections int64  `json:"connections"`
	Timestamp   string `json:"timestamp"`
}

// ByteCounter wraps an io.Writer and counts bytes written
type ByteCounter struct {
	Writer io.Writer
	Count  int64
}

func (bc *ByteCounter) Write(p []byte) (int, error) {
	n, err := bc.Writer.Write(p)
	bc.Count += int64(n)
	return n, err
}
