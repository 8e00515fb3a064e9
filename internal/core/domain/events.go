package domain

import "time"

type EventKind string

const (
	EventDocumentsLoaded EventKind = "documents_loaded"
	EventLoadFailed      EventKind = "load_failed"
	EventDocumentsUpdate EventKind = "documents_updated"
)

type Event struct {
	Kind       EventKind `json:"kind"`
	Models     int       `json:"models,omitempty"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
