package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"villa-importer/utils"
)

func TestMongoDocumentSetsID(t *testing.T) {
	fields := map[string]any{"id": "v1", "price": int64(100)}

	doc := mongoDocument("v1", fields)

	assert.Equal(t, "v1", doc["_id"])
	assert.Equal(t, int64(100), doc["price"])
	_, leaked := fields["_id"]
	assert.False(t, leaked, "input fields must not be mutated")
}

// Needs a replica set, e.g. mongodb://localhost:27017/?replicaSet=rs0.
func TestMongoStoreAgainstServer(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	retry := &utils.RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, Logger: utils.NewNopLogger()}
	ms, err := NewMongoStore(ctx, uri, "villa_importer_test", retry)
	require.NoError(t, err)
	defer ms.Close()

	coll := ms.db.Collection("villas")
	_, _ = coll.DeleteMany(ctx, bson.M{})

	for run := 0; run < 2; run++ {
		b := ms.NewBatch("villas")
		b.Set("v1", map[string]any{"id": "v1", "price": int64(100)})
		b.Set("v2", map[string]any{"id": "v2", "price": int64(200)})
		require.NoError(t, b.Commit(ctx))
	}

	n, err := coll.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
