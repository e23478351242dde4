package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the store calls.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type DynamoStore struct {
	client DynamoAPI
	table  string
}

type DynamoOptions struct {
	Region   string
	Endpoint string
}

func NewDynamoStore(client DynamoAPI, table string) (*DynamoStore, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}
	return &DynamoStore{client: client, table: table}, nil
}

// NewDynamoStoreFromEnv resolves credentials and region through the default
// AWS chain. Endpoint, when set, points the client at a local emulator.
func NewDynamoStoreFromEnv(ctx context.Context, table string, opts DynamoOptions) (*DynamoStore, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return NewDynamoStore(client, table)
}

func taskKey(taskID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		FieldTaskID: &types.AttributeValueMemberS{Value: taskID},
	}
}

func (s *DynamoStore) GetTask(ctx context.Context, taskID string) (Task, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       taskKey(taskID),
	})
	if err != nil {
		return Task{}, false, fmt.Errorf("dynamodb get item: %w", err)
	}
	if len(out.Item) == 0 {
		return Task{}, false, nil
	}

	var task Task
	if err := attributevalue.UnmarshalMap(out.Item, &task); err != nil {
		return Task{}, false, fmt.Errorf("decode task item: %w", err)
	}
	return task, true, nil
}

// taskItem writes every attribute as a string so that empty values are never
// stored as NULL.
func taskItem(task Task) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		FieldTaskID:      &types.AttributeValueMemberS{Value: task.ID},
		FieldTitle:       &types.AttributeValueMemberS{Value: task.Title},
		FieldDescription: &types.AttributeValueMemberS{Value: task.Description},
		FieldStatus:      &types.AttributeValueMemberS{Value: task.Status},
	}
}

func (s *DynamoStore) PutTask(ctx context.Context, task Task) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      taskItem(task),
	})
	if err != nil {
		return fmt.Errorf("dynamodb put item: %w", err)
	}
	return nil
}

func (s *DynamoStore) UpdateTask(ctx context.Context, taskID string, fields TaskFields, precondition Precondition) error {
	if err := checkPrecondition(precondition); err != nil {
		return err
	}

	update := expression.
		Set(expression.Name(FieldTitle), expression.Value(fields.Title)).
		Set(expression.Name(FieldDescription), expression.Value(fields.Description)).
		Set(expression.Name(FieldStatus), expression.Value(fields.Status))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(FieldTaskID))).
		Build()
	if err != nil {
		return fmt.Errorf("build update expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       taskKey(taskID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return ErrPreconditionFailed
	}
	if err != nil {
		return fmt.Errorf("dynamodb update item: %w", err)
	}
	return nil
}

func (s *DynamoStore) DeleteTask(ctx context.Context, taskID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       taskKey(taskID),
	})
	if err != nil {
		return fmt.Errorf("dynamodb delete item: %w", err)
	}
	return nil
}
