// Package dynamo stores embedding vectors in a DynamoDB table.
//
// Table schema:
//   - Partition key: key (string) - sha256 of model and value
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name canonify-embeddings \
//	  --attribute-definitions AttributeName=key,AttributeType=S \
//	  --key-schema AttributeName=key,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/canonify/embedcache"
)

var _ embedcache.Cache = (*Cache)(nil)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Cache implements embedcache.Cache on a DynamoDB table.
type Cache struct {
	client      DDBClient
	tableName   string
	compression embedcache.Compression
}

// New loads the default AWS configuration and creates a Cache for tableName.
func New(ctx context.Context, tableName string) (*Cache, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewCache(dynamodb.NewFromConfig(cfg), tableName), nil
}

// NewCache creates a Cache from an existing client.
func NewCache(client DDBClient, tableName string) *Cache {
	return &Cache{
		client:      client,
		tableName:   tableName,
		compression: embedcache.CompressionZSTD,
	}
}

// Get implements embedcache.Cache.
func (c *Cache) Get(ctx context.Context, key embedcache.Key) ([]float32, bool, error) {
	resp, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key.Hash()},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get embedding from DynamoDB: %w", err)
	}
	if len(resp.Item) == 0 {
		return nil, false, nil
	}

	attr, ok := resp.Item["vector"].(*types.AttributeValueMemberB)
	if !ok {
		return nil, false, errors.New("invalid vector attribute in DynamoDB")
	}
	vec, err := embedcache.DecodeVector(attr.Value)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Put implements embedcache.Cache.
func (c *Cache) Put(ctx context.Context, key embedcache.Key, vec []float32) error {
	block, err := embedcache.EncodeVector(vec, c.compression)
	if err != nil {
		return err
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"key":    &types.AttributeValueMemberS{Value: key.Hash()},
			"model":  &types.AttributeValueMemberS{Value: key.Model},
			"value":  &types.AttributeValueMemberS{Value: key.Value},
			"vector": &types.AttributeValueMemberB{Value: block},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to put embedding to DynamoDB: %w", err)
	}
	return nil
}
