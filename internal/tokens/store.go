package tokens

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/aws"
)

// ErrTokenExists is returned by Create when the token string is already taken.
var ErrTokenExists = errors.New("token already exists")

// Store encapsulates operations on the order_tokens table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

// Create persists a new token. It never overwrites an existing one.
func (s *Store) Create(ctx context.Context, t Token) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(#t)"),
		ExpressionAttributeNames: map[string]string{
			"#t": "token",
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrTokenExists
		}
		return fmt.Errorf("put token: %w", err)
	}
	return nil
}

// Get fetches a token. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, token string) (*Token, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"token": &types.AttributeValueMemberS{Value: token},
		},
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var t Token
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return &t, nil
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
