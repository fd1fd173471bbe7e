package main

import (
	"context"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/checkout"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/validation"
)

// OrderProcessor runs the processing path of an order.
type OrderProcessor interface {
	ProcessInstant(ctx context.Context, req validation.ProcessInstantRequest) (*checkout.ProcessInstantResponse, error)
	ProcessManual(ctx context.Context, req validation.ProcessManualRequest) (*checkout.ProcessManualResponse, error)
	OrderStatus(ctx context.Context, orderID string) (*checkout.StatusReport, error)
}

// Deduper records which events were handled. Implemented by idempotency.Store.
type Deduper interface {
	CreateIfNotExists(ctx context.Context, scope, key, orderID string) (bool, error)
	Get(ctx context.Context, scope, key string) (*idempotency.Record, error)
	Retry(ctx context.Context, scope, key string) (bool, error)
	MarkDone(ctx context.Context, scope, key, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, scope, key, note string) error
}
