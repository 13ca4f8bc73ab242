package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/idelsangithub/node-tree-api/logging"
	"github.com/idelsangithub/node-tree-api/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	tableName           = "NodeTreePageCache"
	generationItemKey   = "generation"
	generationAttribute = "gen"
)

// DynamoDBAPI defines the interface for DynamoDB operations
type DynamoDBAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// CacheItem is one cached page as stored in DynamoDB
type CacheItem struct {
	Key       string `dynamodbav:"key"`
	Data      string `dynamodbav:"data"`
	Timestamp int64  `dynamodbav:"timestamp"`
	TTL       int64  `dynamodbav:"ttl"`
}

// DynamoDBCache implements CacheProvider using DynamoDB
type DynamoDBCache struct {
	client   DynamoDBAPI
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDynamoDBCache creates a new DynamoDB cache provider
func NewDynamoDBCache(ctx context.Context, logger *zap.Logger) (*DynamoDBCache, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewDynamoDBCacheWithClient(dynamodb.NewFromConfig(cfg), logger), nil
}

// NewDynamoDBCacheWithClient creates a new DynamoDB cache provider with a custom client
func NewDynamoDBCacheWithClient(client DynamoDBAPI, logger *zap.Logger) *DynamoDBCache {
	return &DynamoDBCache{
		client:   client,
		cacheTTL: DefaultTTL,
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
}

// Initialize creates the DynamoDB table if it doesn't exist
func (c *DynamoDBCache) Initialize(ctx context.Context) error {
	_, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err == nil {
		return nil
	}

	_, err = c.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("key"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("key"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	return err
}

func itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"key": &types.AttributeValueMemberS{Value: key},
	}
}

// generation reads the current invalidation epoch
func (c *DynamoDBCache) generation(ctx context.Context) (Generation, error) {
	result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key:       itemKey(generationItemKey),
	})
	if err != nil {
		return NoGeneration, err
	}
	if result.Item == nil {
		return 0, nil
	}

	attr, ok := result.Item[generationAttribute].(*types.AttributeValueMemberN)
	if !ok {
		return 0, nil
	}
	gen, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return NoGeneration, err
	}
	return Generation(gen), nil
}

// GetPage retrieves a page from DynamoDB cache if available
func (c *DynamoDBCache) GetPage(ctx context.Context, key PageKey) (*models.Page, Generation, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Debug("dynamodb cache unavailable", zap.Error(err))
		return nil, NoGeneration, false
	}
	k := pageKey(key, gen)

	result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key:       itemKey(k),
	})
	if err != nil || result.Item == nil {
		return nil, gen, false
	}

	var item CacheItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, gen, false
	}

	// Check if cache is still valid
	if c.now().Unix() > item.TTL {
		if _, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(tableName),
			Key:       itemKey(k),
		}); err != nil {
			c.logger.Warn("error deleting expired cache item", zap.String("key", k), zap.Error(err))
		}
		return nil, gen, false
	}

	var page models.Page
	if err := json.Unmarshal([]byte(item.Data), &page); err != nil {
		return nil, gen, false
	}
	return &page, gen, true
}

// SetPage stores a page in DynamoDB cache under the generation it was
// computed in
func (c *DynamoDBCache) SetPage(ctx context.Context, key PageKey, page *models.Page, gen Generation) {
	if gen == NoGeneration {
		return
	}
	k := pageKey(key, gen)
	data, err := json.Marshal(page)
	if err != nil {
		return
	}

	now := c.now()
	item := CacheItem{
		Key:       k,
		Data:      string(data),
		Timestamp: now.Unix(),
		TTL:       now.Add(c.cacheTTL).Unix(),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return
	}

	if _, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      av,
	}); err != nil {
		c.logger.Warn("error storing cache item", zap.String("key", k), zap.Error(err))
	}
}

// InvalidateCache retires every cached page by writing a new generation
func (c *DynamoDBCache) InvalidateCache(ctx context.Context) error {
	_, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item: map[string]types.AttributeValue{
			"key":               &types.AttributeValueMemberS{Value: generationItemKey},
			generationAttribute: &types.AttributeValueMemberN{Value: strconv.FormatInt(c.now().UnixNano(), 10)},
		},
	})
	return err
}

// SetCacheTTL sets the cache time-to-live duration
func (c *DynamoDBCache) SetCacheTTL(ttl time.Duration) {
	c.cacheTTL = ttl
}
