package checkout

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/pricing"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/tokens"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/validation"
)

type IssueTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ShopSummary is the shop data a storefront shows next to a resolved cart.
type ShopSummary struct {
	ShopID     string  `json:"shop_id"`
	Name       string  `json:"name"`
	Street     string  `json:"street,omitempty"`
	PostalCode string  `json:"postal_code,omitempty"`
	City       string  `json:"city,omitempty"`
	VATRate    float64 `json:"vat_rate"`
	Currency   string  `json:"currency"`
}

type ResolveTokenResponse struct {
	Token     string      `json:"token"`
	Cart      tokens.Cart `json:"cart"`
	ExpiresAt time.Time   `json:"expires_at"`
	Shop      ShopSummary `json:"shop"`
}

// totalTolerance is the allowed difference between a submitted total and the computed one.
const totalTolerance = 1e-6

// IssueToken captures a priced cart for an active shop. The submitted total must match
// liters * price_per_liter + delivery_fee; the VAT share is computed from the shop's rate.
func (s *Service) IssueToken(ctx context.Context, req validation.IssueTokenRequest) (*IssueTokenResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if want := pricing.Total(*req.Liters, *req.PricePerLiter, *req.DeliveryFee); math.Abs(want-*req.TotalAmount) > totalTolerance {
		return nil, validationError("total_amount does not match liters * price_per_liter + delivery_fee",
			map[string]string{"total_amount": "mismatch"})
	}
	shop, err := s.activeShop(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tok := tokens.Token{
		ShopID: shop.ShopID,
		Cart: tokens.Cart{
			Product:       req.Product,
			Liters:        *req.Liters,
			PricePerLiter: *req.PricePerLiter,
			DeliveryFee:   *req.DeliveryFee,
			TotalAmount:   *req.TotalAmount,
			VATRate:       shop.VATRate,
			VATAmount:     pricing.VATFromGross(*req.TotalAmount, shop.VATRate),
		},
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}

	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		tok.Token, err = s.newToken()
		if err != nil {
			return nil, storeError("could not issue token", err)
		}
		err = s.tokens.Create(ctx, tok)
		if errors.Is(err, tokens.ErrTokenExists) {
			s.logger.Warn("token collision, regenerating", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, storeError("could not store token", err)
		}
		s.logger.Info("token issued", "shop_id", tok.ShopID, "expires_at", tok.ExpiresAt)
		return &IssueTokenResponse{Token: tok.Token, ExpiresAt: tok.ExpiresAt}, nil
	}
	return nil, storeError("could not allocate a unique token", tokens.ErrTokenExists)
}

// ResolveToken returns the cart behind a token along with its shop. Resolving never
// consumes or extends the token.
func (s *Service) ResolveToken(ctx context.Context, token string) (*ResolveTokenResponse, error) {
	token, err := requireID("token", token)
	if err != nil {
		return nil, err
	}
	tok, err := s.validToken(ctx, token)
	if err != nil {
		return nil, err
	}
	shop, err := s.shops.GetShop(ctx, tok.ShopID)
	if err != nil {
		return nil, storeError("could not load shop", err)
	}
	if shop == nil {
		return nil, notFound("shop not found")
	}

	return &ResolveTokenResponse{
		Token:     tok.Token,
		Cart:      tok.Cart,
		ExpiresAt: tok.ExpiresAt,
		Shop: ShopSummary{
			ShopID:     shop.ShopID,
			Name:       shop.Name,
			Street:     shop.Street,
			PostalCode: shop.PostalCode,
			City:       shop.City,
			VATRate:    shop.VATRate,
			Currency:   shop.CurrencyOrDefault(),
		},
	}, nil
}
