package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/orders"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/pricing"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/tokens"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/validation"
)

type CreateOrderResponse struct {
	OrderID      string  `json:"order_id"`
	OrderNumber  string  `json:"order_number"`
	Status       string  `json:"status"`
	TotalAmount  float64 `json:"total_amount"`
	CheckoutMode string  `json:"checkout_mode"`
}

// orderCart is the priced selection an order is built from, taken either from the
// request or from a redeemed token.
type orderCart struct {
	product       string
	liters        float64
	pricePerLiter float64
	deliveryFee   float64
	vatRate       float64
	// quote is the token's stored total and VAT, used as-is when set
	quote         *tokens.Cart
}

// CreateOrder persists a new order for an active shop. With a non-empty
// idempotencyKey a repeated submission returns the first response instead of creating
// a second order. The caller picks the processor from the returned checkout mode.
func (s *Service) CreateOrder(ctx context.Context, req validation.CreateOrderRequest, idempotencyKey string) (*CreateOrderResponse, error) {
	if req.Token != "" {
		// the token's cart replaces any submitted one
		req.Cart = nil
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	if s.idempotency == nil {
		idempotencyKey = ""
	}
	if idempotencyKey != "" {
		if resp, err := s.replayCreate(ctx, idempotencyKey); resp != nil || err != nil {
			return resp, err
		}
	}

	shop, err := s.activeShop(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}

	var cart orderCart
	if req.Token != "" {
		tok, err := s.validToken(ctx, req.Token)
		if err != nil {
			return nil, err
		}
		if tok.ShopID != shop.ShopID {
			return nil, validationError("token belongs to a different shop", map[string]string{"token": "shop_mismatch"})
		}
		cart = orderCart{
			product:       tok.Cart.Product,
			liters:        tok.Cart.Liters,
			pricePerLiter: tok.Cart.PricePerLiter,
			deliveryFee:   tok.Cart.DeliveryFee,
			vatRate:       tok.Cart.VATRate,
			quote:         &tok.Cart,
		}
	} else {
		cart = orderCart{
			product:       req.Cart.Product,
			liters:        *req.Cart.Liters,
			pricePerLiter: *req.Cart.PricePerLiter,
			deliveryFee:   *req.Cart.DeliveryFee,
			vatRate:       shop.VATRate,
		}
	}

	quote := pricing.NewQuote(cart.liters, cart.pricePerLiter, cart.deliveryFee, cart.vatRate)
	if cart.quote != nil {
		quote.Total = cart.quote.TotalAmount
		quote.VATAmount = cart.quote.VATAmount
	}
	mode := shop.Mode()
	now := s.now()

	order := orders.Order{
		OrderID:        s.newID(),
		ShopID:         shop.ShopID,
		Token:          req.Token,
		Customer:       orders.Customer(req.Customer),
		Delivery:       orders.Address(req.DeliveryAddress),
		UseSameAddress: req.UseSameAddress,
		Product:        cart.product,
		Liters:         cart.liters,
		PricePerLiter:  cart.pricePerLiter,
		BasePrice:      quote.BasePrice,
		DeliveryFee:    quote.DeliveryFee,
		TotalAmount:    quote.Total,
		Amount:         quote.Total,
		Currency:       shop.CurrencyOrDefault(),
		VATRate:        quote.VATRate,
		VATAmount:      quote.VATAmount,
		PaymentMethod:  req.PaymentMethod,
		DeliveryDate:   req.DeliveryDate,
		Notes:          req.Notes,
		Status:         orders.InitialStatus(mode),
		ProcessingMode: mode,
		CreatedAt:      now,
	}
	if !req.UseSameAddress && req.BillingAddress != nil {
		billing := orders.Address(*req.BillingAddress)
		order.Billing = &billing
	}

	resp, err := s.persistOrder(ctx, &order, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if resp.OrderID != order.OrderID {
		// a concurrent duplicate won; its response was replayed
		return resp, nil
	}
	s.logger.Info("order created",
		"order_id", order.OrderID,
		"order_number", order.OrderNumber,
		"shop_id", order.ShopID,
		"status", order.Status,
		"processing_mode", order.ProcessingMode,
	)

	if s.events != nil {
		event := orders.Event{
			Type:           orders.EventOrderCreated,
			OrderID:        order.OrderID,
			OrderNumber:    order.OrderNumber,
			ShopID:         order.ShopID,
			CheckoutMode:   order.ProcessingMode,
			IdempotencyKey: idempotencyKey,
			OccurredAt:     now,
		}
		s.softStep(ctx, order.OrderID, StepPublish, func(ctx context.Context) error {
			return s.events.Publish(ctx, event, event.Attributes())
		})
	}
	return resp, nil
}

// persistOrder assigns an order number and writes the order, regenerating the number
// when it is already taken. A concurrent duplicate of the same idempotency key yields
// the response stored by the winner.
func (s *Service) persistOrder(ctx context.Context, order *orders.Order, idempotencyKey string) (*CreateOrderResponse, error) {
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		number, err := s.newOrderNumber(s.now())
		if err != nil {
			return nil, storeError("could not generate order number", err)
		}
		order.OrderNumber = number

		resp := &CreateOrderResponse{
			OrderID:      order.OrderID,
			OrderNumber:  order.OrderNumber,
			Status:       order.Status,
			TotalAmount:  order.TotalAmount,
			CheckoutMode: order.ProcessingMode,
		}

		var idempotencyItem any
		if idempotencyKey != "" {
			body, err := json.Marshal(resp)
			if err != nil {
				return nil, storeError("could not encode response", err)
			}
			idempotencyItem = s.idempotency.NewDoneRecord(idempotency.ScopeCreateOrder, idempotencyKey, order.OrderID, string(body), http.StatusCreated)
		}

		err = s.orders.Create(ctx, *order, idempotencyItem)
		switch {
		case err == nil:
			return resp, nil
		case errors.Is(err, orders.ErrOrderNumberTaken):
			s.logger.Warn("order number collision, regenerating", "order_number", number, "attempt", attempt)
			continue
		case errors.Is(err, orders.ErrDuplicateRequest):
			replayed, rerr := s.replayCreate(ctx, idempotencyKey)
			if rerr != nil {
				return nil, rerr
			}
			if replayed == nil {
				return nil, conflict("request with this idempotency key is already in progress", err)
			}
			return replayed, nil
		default:
			return nil, storeError("could not store order", err)
		}
	}
	return nil, storeError("could not allocate a unique order number", orders.ErrOrderNumberTaken)
}

// replayCreate returns the stored response for an idempotency key, or nil when the key
// is unused.
func (s *Service) replayCreate(ctx context.Context, key string) (*CreateOrderResponse, error) {
	rec, err := s.idempotency.Get(ctx, idempotency.ScopeCreateOrder, key)
	if err != nil {
		return nil, storeError("could not check idempotency key", err)
	}
	if rec == nil {
		return nil, nil
	}
	if rec.Status != idempotency.StatusDone || rec.ResponseBody == "" {
		return nil, conflict("request with this idempotency key is already in progress", nil)
	}
	var resp CreateOrderResponse
	if err := json.Unmarshal([]byte(rec.ResponseBody), &resp); err != nil {
		return nil, storeError("could not decode stored response", err)
	}
	s.logger.Info("replaying order creation", "order_id", resp.OrderID)
	return &resp, nil
}
