package storage

import "context"

// DocumentStore is the interface any document backend must satisfy.
type DocumentStore interface {
	// NewBatch starts an empty atomic write batch against collection.
	NewBatch(collection string) WriteBatch
	Close() error
}

// WriteBatch collects document upserts and applies them all-or-nothing.
type WriteBatch interface {
	// Set stages a full-document upsert of fields under id.
	Set(id string, fields map[string]any)
	Commit(ctx context.Context) error
}
