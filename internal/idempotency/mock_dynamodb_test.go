package idempotency

import (
	"context"
	"errors"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// simpleMock is a very small in-memory mock for PutItem/GetItem/UpdateItem used in unit tests.
type simpleMock struct {
	mu          sync.Mutex
	table       map[string]map[string]types.AttributeValue
	putCalls    int
	getCalls    int
	updateCalls int
}

func newSimpleMock() *simpleMock {
	return &simpleMock{
		table: map[string]map[string]types.AttributeValue{},
	}
}

func (m *simpleMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	keyAttr := params.Item["idempotency_key"]
	if keyAttr == nil {
		return nil, errors.New("missing key")
	}
	k := keyAttr.(*types.AttributeValueMemberS).Value
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(idempotency_key)" {
		if _, ok := m.table[k]; ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.table[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *simpleMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	keyAttr := params.Key["idempotency_key"]
	if keyAttr == nil {
		return nil, errors.New("missing key")
	}
	item, ok := m.table[keyAttr.(*types.AttributeValueMemberS).Value]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *simpleMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	keyAttr := params.Key["idempotency_key"]
	if keyAttr == nil {
		return nil, errors.New("missing key")
	}
	k := keyAttr.(*types.AttributeValueMemberS).Value
	item, ok := m.table[k]
	if !ok {
		return nil, errors.New("item not found")
	}
	// only the status condition used by Retry is understood
	if params.ConditionExpression != nil && *params.ConditionExpression == "#s = :failed" {
		cur, _ := item["status"].(*types.AttributeValueMemberS)
		if cur == nil || cur.Value != StatusFailed {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	for placeholder, attr := range map[string]string{
		":rb": "response_body", ":rs": "response_status", ":ua": "updated_at", ":n": "note",
	} {
		if v, ok := params.ExpressionAttributeValues[placeholder]; ok {
			item[attr] = v
		}
	}
	// Retry carries both :failed (condition) and :inprogress (new value), so :inprogress goes last
	for _, placeholder := range []string{":done", ":failed", ":inprogress"} {
		if v, ok := params.ExpressionAttributeValues[placeholder]; ok {
			item["status"] = v
		}
	}
	m.table[k] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *simpleMock) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	return nil, errors.New("query not supported")
}

func (m *simpleMock) BatchGetItem(ctx context.Context, params *dyn.BatchGetItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchGetItemOutput, error) {
	return nil, errors.New("batch get not supported")
}

func (m *simpleMock) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, errors.New("transactions not supported")
}
