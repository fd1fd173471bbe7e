package checkout

import (
	"context"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/integrations"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/orders"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/shops"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/tokens"
)

// ShopStore reads shop configuration. Lookups return (nil, nil) when the item is missing.
type ShopStore interface {
	GetShop(ctx context.Context, shopID string) (*shops.Shop, error)
	GetBankAccount(ctx context.Context, bankAccountID string) (*shops.BankAccount, error)
	GetEmailConfig(ctx context.Context, emailConfigID string) (*shops.EmailConfig, error)
	ListActivePaymentMethods(ctx context.Context, shopID string) ([]shops.PaymentMethod, error)
}

type TokenStore interface {
	Create(ctx context.Context, t tokens.Token) error
	Get(ctx context.Context, token string) (*tokens.Token, error)
}

type OrderStore interface {
	Create(ctx context.Context, order orders.Order, idempotencyItem any) error
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	SetManualDetails(ctx context.Context, orderID string, tempOrderNumber, bankAccountID *string) error
	Claim(ctx context.Context, orderID, owner string) error
	ReleaseClaim(ctx context.Context, orderID, owner string) error
	CompleteInvoice(ctx context.Context, orderID, expectedStatus string, inv orders.InvoiceDetails) error
}

type IdempotencyStore interface {
	Get(ctx context.Context, scope, key string) (*idempotency.Record, error)
	NewDoneRecord(scope, key, orderID, responseBody string, responseStatus int) idempotency.Record
}

type InvoiceGenerator interface {
	GenerateInvoice(ctx context.Context, orderID string) (orders.InvoiceDetails, error)
}

type EmailSender interface {
	SendOrderConfirmation(ctx context.Context, mail integrations.ConfirmationEmail) error
}

// EventPublisher announces created orders to the worker queue.
type EventPublisher interface {
	Publish(ctx context.Context, payload any, attributes map[string]string) error
}

// Metrics counts soft failures.
type Metrics interface {
	Count(ctx context.Context, name string, dimensions map[string]string) error
}
