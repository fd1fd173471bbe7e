package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/aws"
)

var (
	// ErrStatusMismatch is returned when a conditional status transition finds a different status.
	ErrStatusMismatch = errors.New("status mismatch/conditional failed")
	// ErrAlreadyClaimed is returned when another invocation is processing the order.
	ErrAlreadyClaimed = errors.New("order already claimed for processing")
	// ErrClaimNotHeld is returned by ReleaseClaim when the caller does not own the claim.
	ErrClaimNotHeld = errors.New("claim not held by this owner")
	// ErrOrderNumberTaken is returned when the generated order number already exists.
	ErrOrderNumberTaken = errors.New("order number already taken")
	// ErrDuplicateRequest is returned when the idempotency key was already used.
	ErrDuplicateRequest = errors.New("idempotency key already used")
	// ErrNotFound is returned by updates on a missing order.
	ErrNotFound = errors.New("order not found")
)

const conditionalCheckFailed = "ConditionalCheckFailed"

// DefaultClaimLease is how long a processing claim blocks other claimers. A claim older
// than the lease is treated as abandoned.
const DefaultClaimLease = 10 * time.Minute

// Tables names the DynamoDB tables written by the store.
type Tables struct {
	Orders       string
	OrderNumbers string // guard items enforcing order_number uniqueness
	Idempotency  string
}

// Store encapsulates operations on the orders table.
type Store struct {
	client aws.DynamoDBAPI
	tables Tables
	// idempotencyTTL is applied to idempotency items that carry no expires_at.
	idempotencyTTL time.Duration
	claimLease     time.Duration
	nowFunc        func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tables Tables, idempotencyTTL time.Duration) *Store {
	return &Store{
		client:         client,
		tables:         tables,
		idempotencyTTL: idempotencyTTL,
		claimLease:     DefaultClaimLease,
		nowFunc:        time.Now,
	}
}

// WithClaimLease overrides DefaultClaimLease. Non-positive values are ignored.
func (s *Store) WithClaimLease(d time.Duration) *Store {
	if d > 0 {
		s.claimLease = d
	}
	return s
}

type orderNumberGuard struct {
	OrderNumber string    `dynamodbav:"order_number"` // PK
	OrderID     string    `dynamodbav:"order_id"`
	CreatedAt   time.Time `dynamodbav:"created_at"`
}

// Create atomically writes:
//   - an idempotency item (when idempotencyItem is non-nil) guarded by attribute_not_exists(idempotency_key)
//   - a guard item in the order numbers table guarded by attribute_not_exists(order_number)
//   - the order itself guarded by attribute_not_exists(order_id)
//
// It returns ErrDuplicateRequest or ErrOrderNumberTaken when the matching condition fails.
func (s *Store) Create(ctx context.Context, order Order, idempotencyItem any) error {
	now := s.nowFunc()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order item: %w", err)
	}
	guardMap, err := attributevalue.MarshalMap(orderNumberGuard{
		OrderNumber: order.OrderNumber,
		OrderID:     order.OrderID,
		CreatedAt:   order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order number guard: %w", err)
	}

	var transactItems []types.TransactWriteItem
	// reasons maps each transact item index to the error reported when its condition fails
	var reasons []error

	if idempotencyItem != nil {
		idempMap, err := attributevalue.MarshalMap(idempotencyItem)
		if err != nil {
			return fmt.Errorf("marshal idempotency item: %w", err)
		}
		if _, ok := idempMap["expires_at"]; !ok && s.idempotencyTTL > 0 {
			expires := now.Add(s.idempotencyTTL).Unix()
			idempMap["expires_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expires)}
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           &s.tables.Idempotency,
				Item:                idempMap,
				ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
			},
		})
		reasons = append(reasons, ErrDuplicateRequest)
	}

	transactItems = append(transactItems,
		types.TransactWriteItem{
			Put: &types.Put{
				TableName:           &s.tables.OrderNumbers,
				Item:                guardMap,
				ConditionExpression: awsString("attribute_not_exists(order_number)"),
			},
		},
		types.TransactWriteItem{
			Put: &types.Put{
				TableName:           &s.tables.Orders,
				Item:                orderMap,
				ConditionExpression: awsString("attribute_not_exists(order_id)"),
			},
		},
	)
	reasons = append(reasons, ErrOrderNumberTaken, errors.New("order id already exists"))

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for i, r := range tce.CancellationReasons {
				if i < len(reasons) && r.Code != nil && *r.Code == conditionalCheckFailed {
					return reasons[i]
				}
			}
			return fmt.Errorf("transaction canceled: %w", err)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tables.Orders,
		Key:            orderKey(orderID),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// SetManualDetails stores the temporary order number and/or selected bank account.
// Nil arguments leave the attribute untouched.
func (s *Store) SetManualDetails(ctx context.Context, orderID string, tempOrderNumber, bankAccountID *string) error {
	expr := "SET updated_at = :ua"
	values := map[string]types.AttributeValue{
		":ua": &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)},
	}
	if tempOrderNumber != nil {
		expr += ", temp_order_number = :tmp"
		values[":tmp"] = &types.AttributeValueMemberS{Value: *tempOrderNumber}
	}
	if bankAccountID != nil {
		expr += ", selected_bank_account_id = :ba"
		values[":ba"] = &types.AttributeValueMemberS{Value: *bankAccountID}
	}

	return s.update(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tables.Orders,
		Key:                       orderKey(orderID),
		UpdateExpression:          &expr,
		ExpressionAttributeValues: values,
		ConditionExpression:       awsString("attribute_exists(order_id)"),
	}, ErrNotFound)
}

// Claim marks the order as being processed by owner. Returns ErrAlreadyClaimed if
// another invocation holds a claim younger than the lease, or if the order was
// already invoiced.
func (s *Store) Claim(ctx context.Context, orderID, owner string) error {
	now := s.nowFunc()
	return s.update(ctx, &dyn.UpdateItemInput{
		TableName:                &s.tables.Orders,
		Key:                      orderKey(orderID),
		UpdateExpression:         awsString("SET processing_claim = :claim, claimed_at = :now, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":claim": &types.AttributeValueMemberS{Value: owner},
			":now":   &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
			":stale": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(-s.claimLease).Unix(), 10)},
			":sent":  &types.AttributeValueMemberS{Value: StatusInvoiceSent},
			":ua":    &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(order_id) AND #s <> :sent AND (attribute_not_exists(processing_claim) OR claimed_at < :stale)"),
	}, ErrAlreadyClaimed)
}

// ReleaseClaim removes the claim held by owner so the order can be processed again.
// Returns ErrClaimNotHeld if owner no longer holds it.
func (s *Store) ReleaseClaim(ctx context.Context, orderID, owner string) error {
	return s.update(ctx, &dyn.UpdateItemInput{
		TableName:        &s.tables.Orders,
		Key:              orderKey(orderID),
		UpdateExpression: awsString("SET updated_at = :ua REMOVE processing_claim, claimed_at"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":claim": &types.AttributeValueMemberS{Value: owner},
			":ua":    &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)},
		},
		ConditionExpression: awsString("processing_claim = :claim"),
	}, ErrClaimNotHeld)
}

// CompleteInvoice moves the order from expectedStatus to invoice_sent and records the
// invoice. Returns ErrStatusMismatch if the order is no longer in expectedStatus.
func (s *Store) CompleteInvoice(ctx context.Context, orderID, expectedStatus string, inv InvoiceDetails) error {
	expr := "SET #s = :new, invoice_sent = :t, invoice_pdf_generated = :t, updated_at = :ua"
	values := map[string]types.AttributeValue{
		":new":      &types.AttributeValueMemberS{Value: StatusInvoiceSent},
		":t":        &types.AttributeValueMemberBOOL{Value: true},
		":ua":       &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)},
		":expected": &types.AttributeValueMemberS{Value: expectedStatus},
	}
	if inv.Number != "" {
		expr += ", invoice_number = :inv"
		values[":inv"] = &types.AttributeValueMemberS{Value: inv.Number}
	}
	if inv.PDFURL != "" {
		expr += ", invoice_pdf_url = :url"
		values[":url"] = &types.AttributeValueMemberS{Value: inv.PDFURL}
	}

	return s.update(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tables.Orders,
		Key:                       orderKey(orderID),
		UpdateExpression:          &expr,
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
		ConditionExpression:       awsString("#s = :expected"),
	}, ErrStatusMismatch)
}

// update runs an UpdateItem and maps a failed condition to condErr.
func (s *Store) update(ctx context.Context, input *dyn.UpdateItemInput, condErr error) error {
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return condErr
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func orderKey(orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
