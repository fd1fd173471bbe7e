package shops

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// readMock serves GetItem, Query and BatchGetItem from per-table item lists. Writes
// are not supported.
type readMock struct {
	mu     sync.Mutex
	tables map[string][]map[string]types.AttributeValue
	err    error

	pageSize        int // Query page size, 0 returns everything at once
	queryCalls      int
	batchCalls      int
	unprocessedOnce bool // the first BatchGetItem call leaves its last key unprocessed
}

func newReadMock() *readMock {
	return &readMock{tables: map[string][]map[string]types.AttributeValue{}}
}

func (m *readMock) add(table string, v any) {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		panic(err)
	}
	m.tables[table] = append(m.tables[table], item)
}

func matches(item map[string]types.AttributeValue, name, value string) bool {
	s, ok := item[name].(*types.AttributeValueMemberS)
	return ok && s.Value == value
}

func (m *readMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for name, v := range params.Key {
		want := v.(*types.AttributeValueMemberS).Value
		for _, item := range m.tables[*params.TableName] {
			if matches(item, name, want) {
				return &dyn.GetItemOutput{Item: item}, nil
			}
		}
	}
	return &dyn.GetItemOutput{}, nil
}

func (m *readMock) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	if m.err != nil {
		return nil, m.err
	}
	if *params.KeyConditionExpression != "shop_id = :sid" {
		return nil, errors.New("unsupported key condition")
	}
	want := params.ExpressionAttributeValues[":sid"].(*types.AttributeValueMemberS).Value
	var items []map[string]types.AttributeValue
	for _, item := range m.tables[*params.TableName] {
		if matches(item, "shop_id", want) {
			items = append(items, item)
		}
	}

	offset := 0
	if start, ok := params.ExclusiveStartKey["offset"].(*types.AttributeValueMemberN); ok {
		offset, _ = strconv.Atoi(start.Value)
	}
	items = items[offset:]
	if m.pageSize == 0 || len(items) <= m.pageSize {
		return &dyn.QueryOutput{Items: items}, nil
	}
	return &dyn.QueryOutput{
		Items:            items[:m.pageSize],
		LastEvaluatedKey: map[string]types.AttributeValue{"offset": &types.AttributeValueMemberN{Value: strconv.Itoa(offset + m.pageSize)}},
	}, nil
}

func (m *readMock) BatchGetItem(ctx context.Context, params *dyn.BatchGetItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchGetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := &dyn.BatchGetItemOutput{
		Responses:       map[string][]map[string]types.AttributeValue{},
		UnprocessedKeys: map[string]types.KeysAndAttributes{},
	}
	for table, ka := range params.RequestItems {
		keys := ka.Keys
		if m.unprocessedOnce && len(keys) > 1 {
			m.unprocessedOnce = false
			out.UnprocessedKeys[table] = types.KeysAndAttributes{Keys: keys[len(keys)-1:]}
			keys = keys[:len(keys)-1]
		}
		for _, key := range keys {
			for name, v := range key {
				want := v.(*types.AttributeValueMemberS).Value
				for _, item := range m.tables[table] {
					if matches(item, name, want) {
						out.Responses[table] = append(out.Responses[table], item)
					}
				}
			}
		}
	}
	return out, nil
}

func (m *readMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	return nil, errors.New("read-only mock")
}

func (m *readMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return nil, errors.New("read-only mock")
}

func (m *readMock) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, errors.New("read-only mock")
}
