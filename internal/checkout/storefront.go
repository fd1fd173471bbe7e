package checkout

import (
	"context"
)

type BankData struct {
	AccountHolder string `json:"account_holder"`
	BankName      string `json:"bank_name"`
	IBAN          string `json:"iban"`
	BIC           string `json:"bic"`
}

type PaymentMethod struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ShopConfig is the public configuration of a shop.
type ShopConfig struct {
	ShopID         string          `json:"shop_id"`
	Name           string          `json:"name"`
	Street         string          `json:"street,omitempty"`
	PostalCode     string          `json:"postal_code,omitempty"`
	City           string          `json:"city,omitempty"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Currency       string          `json:"currency"`
	VATRate        float64         `json:"vat_rate"`
	CheckoutMode   string          `json:"checkout_mode"`
	PaymentMethods []PaymentMethod `json:"payment_methods"`
}

// ShopBankData returns the active bank account of an active shop.
func (s *Service) ShopBankData(ctx context.Context, shopID string) (*BankData, error) {
	shopID, err := requireID("shop_id", shopID)
	if err != nil {
		return nil, err
	}
	shop, err := s.activeShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if shop.BankAccountID == "" {
		return nil, notFound("shop has no bank account")
	}
	acct, err := s.shops.GetBankAccount(ctx, shop.BankAccountID)
	if err != nil {
		return nil, storeError("could not load bank account", err)
	}
	if acct == nil || (acct.ShopID != "" && acct.ShopID != shop.ShopID) {
		return nil, notFound("bank account not found")
	}
	if !acct.IsActive {
		return nil, inactive("bank account is not active")
	}
	return &BankData{
		AccountHolder: acct.AccountHolder,
		BankName:      acct.BankName,
		IBAN:          acct.IBAN,
		BIC:           acct.BIC,
	}, nil
}

// ShopConfig returns the public configuration of an active shop with the payment
// methods it currently offers.
func (s *Service) ShopConfig(ctx context.Context, shopID string) (*ShopConfig, error) {
	shopID, err := requireID("shop_id", shopID)
	if err != nil {
		return nil, err
	}
	shop, err := s.activeShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	methods, err := s.shops.ListActivePaymentMethods(ctx, shop.ShopID)
	if err != nil {
		return nil, storeError("could not load payment methods", err)
	}

	cfg := &ShopConfig{
		ShopID:         shop.ShopID,
		Name:           shop.Name,
		Street:         shop.Street,
		PostalCode:     shop.PostalCode,
		City:           shop.City,
		Email:          shop.Email,
		Phone:          shop.Phone,
		Currency:       shop.CurrencyOrDefault(),
		VATRate:        shop.VATRate,
		CheckoutMode:   shop.Mode(),
		PaymentMethods: make([]PaymentMethod, 0, len(methods)),
	}
	for _, m := range methods {
		cfg.PaymentMethods = append(cfg.PaymentMethods, PaymentMethod{
			ID:          m.PaymentMethodID,
			Code:        m.Code,
			Name:        m.Name,
			Description: m.Description,
		})
	}
	return cfg, nil
}
