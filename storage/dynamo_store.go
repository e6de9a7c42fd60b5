package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TransactWriter is the slice of the DynamoDB API the store needs.
type TransactWriter interface {
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput,
		optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoStore writes documents to DynamoDB. The collection name is the
// table name and keyAttr is the table's string partition key.
type DynamoStore struct {
	client  TransactWriter
	keyAttr string
}

// NewDynamoStore loads the default AWS credential chain and returns a store.
// endpoint overrides the service URL (DynamoDB Local, LocalStack).
func NewDynamoStore(ctx context.Context, region, endpoint, keyAttr string) (*DynamoStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewDynamoStoreFromClient(client, keyAttr), nil
}

// NewDynamoStoreFromClient wraps an existing client.
func NewDynamoStoreFromClient(client TransactWriter, keyAttr string) *DynamoStore {
	if keyAttr == "" {
		keyAttr = "id"
	}
	return &DynamoStore{client: client, keyAttr: keyAttr}
}

func (ds *DynamoStore) NewBatch(collection string) WriteBatch {
	return &dynamoBatch{store: ds, table: collection}
}

func (ds *DynamoStore) Close() error { return nil }

type dynamoBatch struct {
	store *DynamoStore
	table string
	ids   []string
	docs  []map[string]any
}

func (b *dynamoBatch) Set(id string, fields map[string]any) {
	b.ids = append(b.ids, id)
	b.docs = append(b.docs, fields)
}

// Commit writes every staged item with a single TransactWriteItems call.
func (b *dynamoBatch) Commit(ctx context.Context) error {
	if len(b.ids) == 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, len(b.ids))
	for i, id := range b.ids {
		item, err := attributevalue.MarshalMap(b.docs[i])
		if err != nil {
			return fmt.Errorf("dynamodb: marshal %q: %w", id, err)
		}
		item[b.store.keyAttr] = &types.AttributeValueMemberS{Value: id}

		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(b.table),
				Item:      item,
			},
		})
	}

	_, err := b.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return fmt.Errorf("dynamodb: transact write %d items: %w", len(items), err)
	}
	return nil
}
