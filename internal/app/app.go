// Package app wires the checkout service to its AWS-backed stores and collaborators.
package app

import (
	"log/slog"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/aws"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/checkout"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/config"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/integrations"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/orders"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/shops"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/tokens"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/validation"
)

// NewIdempotencyStore returns the store shared by order creation and the worker.
func NewIdempotencyStore(cfg config.Config, clients *aws.AWSClients) *idempotency.Store {
	return idempotency.NewStore(clients.DynamoDB, cfg.Tables.Idempotency, cfg.IdempotencyTTL)
}

// NewCheckoutService wires the checkout service to DynamoDB, SQS, CloudWatch and the
// collaborator functions. Events are published only when a queue is configured.
func NewCheckoutService(cfg config.Config, clients *aws.AWSClients, logger *slog.Logger) *checkout.Service {
	invoker := aws.NewInvoker(clients.Lambda)

	deps := checkout.Deps{
		Shops: shops.NewStore(clients.DynamoDB, shops.Tables{
			Shops:              cfg.Tables.Shops,
			BankAccounts:       cfg.Tables.BankAccounts,
			EmailConfigs:       cfg.Tables.EmailConfigs,
			PaymentMethods:     cfg.Tables.PaymentMethods,
			ShopPaymentMethods: cfg.Tables.ShopPaymentMethods,
		}),
		Tokens: tokens.NewStore(clients.DynamoDB, cfg.Tables.OrderTokens),
		Orders: orders.NewStore(clients.DynamoDB, orders.Tables{
			Orders:       cfg.Tables.Orders,
			OrderNumbers: cfg.Tables.OrderNumbers,
			Idempotency:  cfg.Tables.Idempotency,
		}, cfg.IdempotencyTTL),
		Idempotency: NewIdempotencyStore(cfg, clients),
		Invoices:    integrations.NewInvoiceClient(invoker, cfg.InvoiceFunctionName),
		Emails:      integrations.NewEmailClient(invoker, cfg.EmailFunctionName),
		Metrics:     aws.NewMetricsRecorder(clients.CloudWatch, cfg.MetricsNamespace),
		Validator:   validation.New(),
		Logger:      logger,
	}
	// without a queue the storefront calls the processor routes itself
	if cfg.OrdersQueueURL != "" {
		deps.Events = aws.NewPublisher(clients.SQS, cfg.OrdersQueueURL)
	}

	return checkout.New(deps, checkout.Options{
		TokenTTL:            cfg.TokenTTL,
		CollaboratorTimeout: cfg.CollaboratorTimeout,
	})
}
