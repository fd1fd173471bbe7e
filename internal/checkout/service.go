// Package checkout implements the storefront checkout pipeline: order tokens, order
// creation, the instant and manual processors and the status projection polled by clients.
package checkout

import (
	"context"
	"log/slog"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/orders"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/shops"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/tokens"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/validation"
)

const (
	DefaultTokenTTL            = time.Hour
	DefaultCollaboratorTimeout = 15 * time.Second

	softFailureMetric = "SoftFailure"
)

// Deps groups the collaborators of a Service. Events and Metrics are optional.
type Deps struct {
	Shops       ShopStore
	Tokens      TokenStore
	Orders      OrderStore
	Idempotency IdempotencyStore
	Invoices    InvoiceGenerator
	Emails      EmailSender
	Events      EventPublisher
	Metrics     Metrics
	Validator   *validatorv10.Validate
	Logger      *slog.Logger
}

// Options tunes a Service. Zero values fall back to the defaults.
type Options struct {
	TokenTTL time.Duration
	// CollaboratorTimeout bounds every call made outside the request's own store reads.
	CollaboratorTimeout time.Duration
}

// Service runs the checkout operations. It holds no per-order state.
type Service struct {
	shops       ShopStore
	tokens      TokenStore
	orders      OrderStore
	idempotency IdempotencyStore
	invoices    InvoiceGenerator
	emails      EmailSender
	events      EventPublisher
	metrics     Metrics
	validate    *validatorv10.Validate
	logger      *slog.Logger

	tokenTTL    time.Duration
	callTimeout time.Duration

	nowFunc        func() time.Time
	newToken       func() (string, error)
	newOrderNumber func(time.Time) (string, error)
	newID          func() string
}

// New builds a Service from its dependencies.
func New(deps Deps, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.CollaboratorTimeout <= 0 {
		opts.CollaboratorTimeout = DefaultCollaboratorTimeout
	}
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		shops:          deps.Shops,
		tokens:         deps.Tokens,
		orders:         deps.Orders,
		idempotency:    deps.Idempotency,
		invoices:       deps.Invoices,
		emails:         deps.Emails,
		events:         deps.Events,
		metrics:        deps.Metrics,
		validate:       deps.Validator,
		logger:         deps.Logger,
		tokenTTL:       opts.TokenTTL,
		callTimeout:    opts.CollaboratorTimeout,
		nowFunc:        time.Now,
		newToken:       generateToken,
		newOrderNumber: generateOrderNumber,
		newID:          uuid.NewString,
	}
}

func (s *Service) now() time.Time { return s.nowFunc().UTC() }

func (s *Service) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return validationError("invalid request", validation.Fields(err))
	}
	return nil
}

func requireID(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", validationError(name+" is required", map[string]string{name: "required"})
	}
	return value, nil
}

// activeShop loads a shop and rejects missing or deactivated ones.
func (s *Service) activeShop(ctx context.Context, shopID string) (*shops.Shop, error) {
	shop, err := s.shops.GetShop(ctx, shopID)
	if err != nil {
		return nil, storeError("could not load shop", err)
	}
	if shop == nil {
		return nil, notFound("shop not found")
	}
	if !shop.IsActive {
		return nil, inactive("shop is not active")
	}
	return shop, nil
}

// validToken loads a token and rejects missing or expired ones.
func (s *Service) validToken(ctx context.Context, token string) (*tokens.Token, error) {
	tok, err := s.tokens.Get(ctx, token)
	if err != nil {
		return nil, storeError("could not load token", err)
	}
	if tok == nil {
		return nil, notFound("token not found")
	}
	if tok.Expired(s.now()) {
		return nil, expired("token has expired")
	}
	return tok, nil
}

func (s *Service) loadOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, storeError("could not load order", err)
	}
	if order == nil {
		return nil, notFound("order not found")
	}
	return order, nil
}

// emailConfig returns the e-mail configuration of the order's shop, or nil when the
// shop is gone or has none.
func (s *Service) emailConfig(ctx context.Context, shopID string) (*shops.EmailConfig, error) {
	shop, err := s.shops.GetShop(ctx, shopID)
	if err != nil {
		return nil, storeError("could not load shop", err)
	}
	if shop == nil || shop.EmailConfigID == "" {
		return nil, nil
	}
	cfg, err := s.shops.GetEmailConfig(ctx, shop.EmailConfigID)
	if err != nil {
		return nil, storeError("could not load email configuration", err)
	}
	return cfg, nil
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.callTimeout)
}
