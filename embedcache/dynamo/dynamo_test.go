package dynamo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/canonify/embedcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
	err   error
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := params.Item["key"].(*types.AttributeValueMemberS).Value
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := params.Key["key"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: m.items[key]}, nil
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()
	c := NewCache(client, "embeddings")

	key := embedcache.Key{Model: "text-embedding-3-small", Value: "NYC"}

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, key, []float32{0.6, 0.8}))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{0.6, 0.8}, got)

	item := client.items[key.Hash()]
	assert.Equal(t, "NYC", item["value"].(*types.AttributeValueMemberS).Value)
}

func TestCache_InvalidAttribute(t *testing.T) {
	client := newMockDDBClient()
	key := embedcache.Key{Model: "m", Value: "v"}
	client.items[key.Hash()] = map[string]types.AttributeValue{
		"key":    &types.AttributeValueMemberS{Value: key.Hash()},
		"vector": &types.AttributeValueMemberS{Value: "oops"},
	}

	_, _, err := NewCache(client, "t").Get(context.Background(), key)
	assert.Error(t, err)
}

func TestCache_ClientError(t *testing.T) {
	client := newMockDDBClient()
	client.err = errors.New("throttled")
	c := NewCache(client, "t")

	_, _, err := c.Get(context.Background(), embedcache.Key{Model: "m", Value: "v"})
	assert.ErrorIs(t, err, client.err)

	err = c.Put(context.Background(), embedcache.Key{Model: "m", Value: "v"}, []float32{1})
	assert.ErrorIs(t, err, client.err)
}
