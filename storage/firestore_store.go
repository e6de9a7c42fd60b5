package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

// FirestoreStore writes documents to Cloud Firestore. Credentials come from
// Application Default Credentials; FIRESTORE_EMULATOR_HOST is honoured by
// the client library.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a Firestore client for projectID.
func NewFirestoreStore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore: new client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (fs *FirestoreStore) NewBatch(collection string) WriteBatch {
	return &firestoreBatch{
		client: fs.client,
		coll:   fs.client.Collection(collection),
	}
}

func (fs *FirestoreStore) Close() error {
	return fs.client.Close()
}

type firestoreWrite struct {
	doc    *firestore.DocumentRef
	fields map[string]any
}

type firestoreBatch struct {
	client *firestore.Client
	coll   *firestore.CollectionRef
	writes []firestoreWrite
}

func (b *firestoreBatch) Set(id string, fields map[string]any) {
	b.writes = append(b.writes, firestoreWrite{doc: b.coll.Doc(id), fields: fields})
}

// Commit applies the staged writes in one read-write transaction, so either
// every document is set or none is.
func (b *firestoreBatch) Commit(ctx context.Context) error {
	if len(b.writes) == 0 {
		return nil
	}
	err := b.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		for _, w := range b.writes {
			if err := tx.Set(w.doc, w.fields); err != nil {
				return err
			}
		}
		return nil
	}, firestore.MaxAttempts(1)) // failed batches are not retried
	if err != nil {
		return fmt.Errorf("firestore: commit %d writes: %w", len(b.writes), err)
	}
	return nil
}
