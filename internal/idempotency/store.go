package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/aws"
)

// Store encapsulates idempotency operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration // default TTL window when creating entries
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
// ttlWindow: default TTL window (e.g., 48*time.Hour)
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// NewDoneRecord builds a finished record carrying the response to replay for duplicates.
// It is written by callers that create the record together with their own items.
func (s *Store) NewDoneRecord(scope, key, orderID, responseBody string, responseStatus int) Record {
	now := s.nowFunc()
	return Record{
		IdempotencyKey: Key(scope, key),
		Scope:          scope,
		Status:         StatusDone,
		OrderID:        orderID,
		ResponseBody:   responseBody,
		ResponseStatus: responseStatus,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}
}

// CreateIfNotExists creates an idempotency record with status IN_PROGRESS if the key does not exist.
// Returns (created=true, nil) if successfully created.
// Returns (created=false, nil) if the record already exists (caller should Get to inspect).
// Returns (created=false, err) on other errors.
func (s *Store) CreateIfNotExists(ctx context.Context, scope, key, orderID string) (bool, error) {
	now := s.nowFunc()
	rec := Record{
		IdempotencyKey: Key(scope, key),
		Scope:          scope,
		Status:         StatusInProgress,
		OrderID:        orderID,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
	})
	if err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}

	return true, nil
}

// Retry moves a FAILED record back to IN_PROGRESS. Returns (false, nil) if the record
// is not FAILED anymore, e.g. because a concurrent retry took it.
func (s *Store) Retry(ctx context.Context, scope, key string) (bool, error) {
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              recordKey(scope, key),
		UpdateExpression: awsString("SET #s = :inprogress, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inprogress": &types.AttributeValueMemberS{Value: StatusInProgress},
			":failed":     &types.AttributeValueMemberS{Value: StatusFailed},
			":ua":         &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)},
		},
		ConditionExpression: awsString("#s = :failed"),
	})
	if err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("update item (retry): %w", err)
	}
	return true, nil
}

// Get retrieves an idempotency record by key. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, scope, key string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            recordKey(scope, key),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// MarkDone sets status to DONE and stores a small response body & status.
func (s *Store) MarkDone(ctx context.Context, scope, key, responseBody string, responseStatus int) error {
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              recordKey(scope, key),
		UpdateExpression: awsString("SET #s = :done, response_body = :rb, response_status = :rs, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":done": &types.AttributeValueMemberS{Value: StatusDone},
			":rb":   &types.AttributeValueMemberS{Value: responseBody},
			":rs":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", responseStatus)},
			":ua":   &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return fmt.Errorf("update item (mark done): %w", err)
	}
	return nil
}

// MarkFailed marks the idempotency record as FAILED and stores a note for operators.
func (s *Store) MarkFailed(ctx context.Context, scope, key, note string) error {
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              recordKey(scope, key),
		UpdateExpression: awsString("SET #s = :failed, note = :n, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":failed": &types.AttributeValueMemberS{Value: StatusFailed},
			":n":      &types.AttributeValueMemberS{Value: note},
			":ua":     &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return fmt.Errorf("update item (mark failed): %w", err)
	}
	return nil
}

func recordKey(scope, key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"idempotency_key": &types.AttributeValueMemberS{Value: Key(scope, key)},
	}
}

// Helper
func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
