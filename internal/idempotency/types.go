package idempotency

import "time"

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// Scopes keep keys from different entry points apart.
const (
	ScopeCreateOrder = "create_order"
	ScopeWorker      = "worker"
)

// Record is the shape persisted in the idempotency DynamoDB table.
type Record struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK, prefixed with the scope
	Scope          string    `dynamodbav:"scope"`
	Status         string    `dynamodbav:"status"`
	OrderID        string    `dynamodbav:"order_id,omitempty"`
	ResponseBody   string    `dynamodbav:"response_body,omitempty"` // small JSON responses only
	ResponseStatus int       `dynamodbav:"response_status,omitempty"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note           string    `dynamodbav:"note,omitempty"`
}

// Key namespaces a client supplied key under scope.
func Key(scope, key string) string {
	return scope + "#" + key
}
