package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"villa-importer/utils"
)

// MongoStore writes documents to MongoDB, using the listing id as _id.
// Batches run inside a multi-document transaction, so the server must be a
// replica set or sharded cluster.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri and pings the primary.
func NewMongoStore(ctx context.Context, uri, database string, retry *utils.RetryConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	err = retry.Do(ctx, "mongo ping", func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: %w", err)
	}

	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (ms *MongoStore) NewBatch(collection string) WriteBatch {
	return &mongoBatch{client: ms.client, coll: ms.db.Collection(collection)}
}

func (ms *MongoStore) Close() error {
	if err := ms.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("mongo: disconnect: %w", err)
	}
	return nil
}

type mongoBatch struct {
	client *mongo.Client
	coll   *mongo.Collection
	models []mongo.WriteModel
}

func (b *mongoBatch) Set(id string, fields map[string]any) {
	b.models = append(b.models, mongo.NewReplaceOneModel().
		SetFilter(bson.M{"_id": id}).
		SetReplacement(mongoDocument(id, fields)).
		SetUpsert(true))
}

// Commit runs every staged replace-with-upsert in one transaction.
func (b *mongoBatch) Commit(ctx context.Context) error {
	if len(b.models) == 0 {
		return nil
	}

	sess, err := b.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo: start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return b.coll.BulkWrite(sc, b.models, options.BulkWrite().SetOrdered(true))
	})
	if err != nil {
		return fmt.Errorf("mongo: bulk upsert %d documents: %w", len(b.models), err)
	}
	return nil
}

// mongoDocument copies fields into a bson.M with _id set to id.
func mongoDocument(id string, fields map[string]any) bson.M {
	doc := make(bson.M, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc["_id"] = id
	return doc
}
