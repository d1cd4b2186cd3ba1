package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// recordItem is the DynamoDB shape of a record
type recordItem struct {
	ID           string `dynamodbav:"ID"`
	AgentName    string `dynamodbav:"AgentName"`
	CustomerName string `dynamodbav:"CustomerName"`
	PhoneNumber  string `dynamodbav:"PhoneNumber"`
	Issue        string `dynamodbav:"Issue"`
	Status       string `dynamodbav:"Status"`
	CallDuration string `dynamodbav:"CallDuration"`
	CreatedAt    string `dynamodbav:"CreatedAt"` // RFC3339Nano, orders List
}

func (it recordItem) record() types.Record {
	return types.Record{
		ID: types.RecordID(it.ID),
		RecordFields: types.RecordFields{
			AgentName:    it.AgentName,
			CustomerName: it.CustomerName,
			PhoneNumber:  it.PhoneNumber,
			Issue:        it.Issue,
			Status:       types.Status(it.Status),
			CallDuration: types.Minutes(it.CallDuration),
		},
	}
}

// DynamoDBStore implements Store using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs on EC2
		// instances when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	// Create the table in local mode
	if cfg.Mode == DynamoModeLocal {
		if err := CreateTableIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Str("table", cfg.RecordsTable).
		Msg("DynamoDB store initialized")

	return store, nil
}

func (s *DynamoDBStore) key(id types.RecordID) map[string]dbtypes.AttributeValue {
	return map[string]dbtypes.AttributeValue{
		"ID": &dbtypes.AttributeValueMemberS{Value: string(id)},
	}
}

func (s *DynamoDBStore) List(ctx context.Context) ([]types.Record, error) {
	var items []recordItem

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.config.RecordsTable),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan records: %w", err)
		}
		var batch []recordItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal records: %w", err)
		}
		items = append(items, batch...)
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt < items[j].CreatedAt })

	records := make([]types.Record, 0, len(items))
	for _, it := range items {
		records = append(records, it.record())
	}
	return records, nil
}

func (s *DynamoDBStore) Get(ctx context.Context, id types.RecordID) (types.Record, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.RecordsTable),
		Key:       s.key(id),
	})
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to get record: %w", err)
	}
	if result.Item == nil {
		return types.Record{}, ErrNotFound
	}

	var it recordItem
	if err := attributevalue.UnmarshalMap(result.Item, &it); err != nil {
		return types.Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return it.record(), nil
}

func (s *DynamoDBStore) Create(ctx context.Context, fields types.RecordFields) (types.Record, error) {
	it := recordItem{
		ID:           uuid.New().String(),
		AgentName:    fields.AgentName,
		CustomerName: fields.CustomerName,
		PhoneNumber:  fields.PhoneNumber,
		Issue:        fields.Issue,
		Status:       string(fields.Status),
		CallDuration: string(fields.CallDuration),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}

	item, err := attributevalue.MarshalMap(it)
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to marshal record: %w", err)
	}

	cond := expression.Name("ID").AttributeNotExists()
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.config.RecordsTable),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to save record: %w", err)
	}
	return it.record(), nil
}

func (s *DynamoDBStore) Update(ctx context.Context, id types.RecordID, patch Patch) (types.Record, error) {
	if patch.Empty() {
		return s.Get(ctx, id)
	}

	var update expression.UpdateBuilder
	set := func(name string, value string) {
		update = update.Set(expression.Name(name), expression.Value(value))
	}
	if patch.AgentName != nil {
		set("AgentName", *patch.AgentName)
	}
	if patch.CustomerName != nil {
		set("CustomerName", *patch.CustomerName)
	}
	if patch.PhoneNumber != nil {
		set("PhoneNumber", *patch.PhoneNumber)
	}
	if patch.Issue != nil {
		set("Issue", *patch.Issue)
	}
	if patch.Status != nil {
		set("Status", string(*patch.Status))
	}
	if patch.CallDuration != nil {
		set("CallDuration", string(*patch.CallDuration))
	}

	cond := expression.Name("ID").AttributeExists()
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.RecordsTable),
		Key:                       s.key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              dbtypes.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return types.Record{}, ErrNotFound
		}
		return types.Record{}, fmt.Errorf("failed to update record: %w", err)
	}

	var it recordItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &it); err != nil {
		return types.Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return it.record(), nil
}

func (s *DynamoDBStore) Delete(ctx context.Context, id types.RecordID) error {
	cond := expression.Name("ID").AttributeExists()
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.config.RecordsTable),
		Key:                      s.key(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) Close() error { return nil }

func isConditionFailed(err error) bool {
	var ccf *dbtypes.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
