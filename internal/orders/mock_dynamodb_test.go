package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is an in-memory table set that understands the small expression
// vocabulary used by Store: SET/REMOVE updates and AND/OR conditions built from
// attribute_exists(x), attribute_not_exists(x), x = :v, x <> :v and x < :n.
type mockDynamo struct {
	mu     sync.Mutex
	pks    map[string]string // table -> pk attribute
	tables map[string]map[string]map[string]types.AttributeValue

	transactErr error
	updateErr   error
}

func newMockDynamo(pks map[string]string) *mockDynamo {
	m := &mockDynamo{pks: pks, tables: map[string]map[string]map[string]types.AttributeValue{}}
	for tbl := range pks {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
	return m
}

func (m *mockDynamo) pkOf(table string, item map[string]types.AttributeValue) (string, error) {
	name, ok := m.pks[table]
	if !ok {
		return "", fmt.Errorf("unknown table %s", table)
	}
	v, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("missing pk %s", name)
	}
	return v.Value, nil
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		return names[name]
	}
	return name
}

func equalAttr(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	}
	return false
}

func checkCondition(cond *string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) bool {
	if cond == nil {
		return true
	}
	return evalTerms(*cond, item, names, values)
}

// splitTop splits s on sep outside parentheses.
func splitTop(s, sep string) []string {
	var out []string
	depth, last := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && strings.HasPrefix(s[i:], sep) {
			out = append(out, s[last:i])
			last = i + len(sep)
			i += len(sep) - 1
		}
	}
	return append(out, s[last:])
}

func evalTerms(cond string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) bool {
	for _, term := range splitTop(cond, " AND ") {
		if !evalTerm(strings.TrimSpace(term), item, names, values) {
			return false
		}
	}
	return true
}

func evalTerm(term string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) bool {
	if alts := splitTop(term, " OR "); len(alts) > 1 {
		for _, alt := range alts {
			if evalTerm(strings.TrimSpace(alt), item, names, values) {
				return true
			}
		}
		return false
	}
	switch {
	case strings.HasPrefix(term, "attribute_exists("):
		n := resolveName(strings.TrimSuffix(strings.TrimPrefix(term, "attribute_exists("), ")"), names)
		_, ok := item[n]
		return ok
	case strings.HasPrefix(term, "attribute_not_exists("):
		n := resolveName(strings.TrimSuffix(strings.TrimPrefix(term, "attribute_not_exists("), ")"), names)
		_, ok := item[n]
		return !ok
	case strings.HasPrefix(term, "(") && strings.HasSuffix(term, ")"):
		return evalTerms(term[1:len(term)-1], item, names, values)
	}
	for _, op := range []string{" <> ", " < ", " = "} {
		parts := strings.SplitN(term, op, 2)
		if len(parts) != 2 {
			continue
		}
		cur, ok := item[resolveName(parts[0], names)]
		want := values[parts[1]]
		switch op {
		case " <> ":
			return !ok || !equalAttr(cur, want)
		case " < ":
			return ok && lessN(cur, want)
		default:
			return ok && equalAttr(cur, want)
		}
	}
	return false
}

func lessN(a, b types.AttributeValue) bool {
	av, ok1 := a.(*types.AttributeValueMemberN)
	bv, ok2 := b.(*types.AttributeValueMemberN)
	if !ok1 || !ok2 {
		return false
	}
	x, err1 := strconv.ParseFloat(av.Value, 64)
	y, err2 := strconv.ParseFloat(bv.Value, 64)
	return err1 == nil && err2 == nil && x < y
}

func applyUpdate(expr string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) {
	setPart, removePart := expr, ""
	if i := strings.Index(expr, " REMOVE "); i >= 0 {
		setPart, removePart = expr[:i], expr[i+len(" REMOVE "):]
	}
	setPart = strings.TrimPrefix(setPart, "SET ")
	for _, clause := range strings.Split(setPart, ",") {
		parts := strings.SplitN(strings.TrimSpace(clause), " = ", 2)
		if len(parts) == 2 {
			item[resolveName(parts[0], names)] = values[parts[1]]
		}
	}
	for _, n := range strings.Split(removePart, ",") {
		if n = strings.TrimSpace(n); n != "" {
			delete(item, resolveName(n, names))
		}
	}
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := m.pkOf(*params.TableName, params.Item)
	if err != nil {
		return nil, err
	}
	existing := m.tables[*params.TableName][pk]
	if existing == nil {
		existing = map[string]types.AttributeValue{}
	}
	if !checkCondition(params.ConditionExpression, existing, params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	m.tables[*params.TableName][pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := m.pkOf(*params.TableName, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[*params.TableName][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	pk, err := m.pkOf(*params.TableName, params.Key)
	if err != nil {
		return nil, err
	}
	item := m.tables[*params.TableName][pk]
	if item == nil {
		item = map[string]types.AttributeValue{}
	}
	if !checkCondition(params.ConditionExpression, item, params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	for k, v := range params.Key {
		item[k] = v
	}
	applyUpdate(*params.UpdateExpression, item, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	m.tables[*params.TableName][pk] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	return nil, errors.New("query not supported")
}

func (m *mockDynamo) BatchGetItem(ctx context.Context, params *dyn.BatchGetItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchGetItemOutput, error) {
	return nil, errors.New("batch get not supported")
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transactErr != nil {
		return nil, m.transactErr
	}
	// First pass: verify condition expressions
	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false
	for i, it := range params.TransactItems {
		none := "None"
		reasons[i] = types.CancellationReason{Code: &none}
		p := it.Put
		if p == nil {
			continue
		}
		pk, err := m.pkOf(*p.TableName, p.Item)
		if err != nil {
			return nil, err
		}
		existing := m.tables[*p.TableName][pk]
		if existing == nil {
			existing = map[string]types.AttributeValue{}
		}
		if !checkCondition(p.ConditionExpression, existing, p.ExpressionAttributeNames, p.ExpressionAttributeValues) {
			code := "ConditionalCheckFailed"
			reasons[i] = types.CancellationReason{Code: &code}
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{CancellationReasons: reasons}
	}
	// Second pass: apply all puts
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil {
			pk, _ := m.pkOf(*p.TableName, p.Item)
			m.tables[*p.TableName][pk] = p.Item
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}
