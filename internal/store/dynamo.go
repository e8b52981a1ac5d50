package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/roach88/prefs/internal/plist"
)

// DefaultDynamoTimeout bounds each DynamoDB request made by a Dynamo store.
const DefaultDynamoTimeout = 10 * time.Second

// DynamoAPI is the subset of the DynamoDB client used by Dynamo.
// *dynamodb.Client satisfies it.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
}

// DynamoConfig holds connection settings for NewDynamoClient.
type DynamoConfig struct {
	Region    string
	Endpoint  string // Optional; e.g. DynamoDB Local
	AccessKey string // Optional; static credentials are used only when set
	SecretKey string
}

// dynamoItem is the persisted layout: one item per key, value in canonical
// typed-JSON form.
type dynamoItem struct {
	Key   string `dynamodbav:"pk"`
	Kind  string `dynamodbav:"kind"`
	Value string `dynamodbav:"value"`
}

// Dynamo is a Store backed by a DynamoDB table whose partition key is the
// string attribute "pk".
type Dynamo struct {
	client  DynamoAPI
	table   string
	timeout time.Duration
}

// NewDynamoClient builds a DynamoDB client from the default AWS config chain.
func NewDynamoClient(ctx context.Context, cfg DynamoConfig) (*sdk.Client, error) {
	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewDynamo wraps client as a Store over table.
func NewDynamo(client DynamoAPI, table string) (*Dynamo, error) {
	if client == nil {
		return nil, fmt.Errorf("new dynamo store: nil client")
	}
	if table == "" {
		return nil, fmt.Errorf("new dynamo store: empty table name")
	}
	return &Dynamo{client: client, table: table, timeout: DefaultDynamoTimeout}, nil
}

// Table returns the table name.
func (d *Dynamo) Table() string {
	return d.table
}

// Get reads key with a strongly consistent read.
func (d *Dynamo) Get(key string) (plist.Value, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: key}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, false, fmt.Errorf("get %q: decode item: %w", key, err)
	}
	v, err := unmarshalValue(item.Kind, item.Value)
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

// Set puts a whole item for key, replacing any previous one.
func (d *Dynamo) Set(key string, v plist.Value) error {
	kind, text, err := marshalValue(v)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	av, err := attributevalue.MarshalMap(dynamoItem{Key: key, Kind: kind, Value: text})
	if err != nil {
		return fmt.Errorf("set %q: encode item: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if _, err := d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: aws.String(d.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Remove deletes the item for key. DeleteItem on a missing key succeeds.
func (d *Dynamo) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if _, err := d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: key}},
	}); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Keys scans the table for every partition key and sorts them.
func (d *Dynamo) Keys() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	keys := []string{}
	p := sdk.NewScanPaginator(d.client, &sdk.ScanInput{
		TableName:            aws.String(d.table),
		ProjectionExpression: aws.String("pk"),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list keys: %w", err)
		}
		for _, item := range page.Items {
			pk, ok := item["pk"].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			keys = append(keys, pk.Value)
		}
	}
	slices.Sort(keys)
	return keys, nil
}
