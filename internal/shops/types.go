package shops

// Checkout modes
const (
	CheckoutModeInstant = "instant"
	CheckoutModeManual  = "manual"
)

const DefaultCurrency = "EUR"

// Shop is a tenant storefront. It is read-only to the checkout pipeline.
type Shop struct {
	ShopID        string  `dynamodbav:"shop_id"` // PK
	Name          string  `dynamodbav:"name"`
	Street        string  `dynamodbav:"street,omitempty"`
	PostalCode    string  `dynamodbav:"postal_code,omitempty"`
	City          string  `dynamodbav:"city,omitempty"`
	Email         string  `dynamodbav:"email,omitempty"`
	Phone         string  `dynamodbav:"phone,omitempty"`
	IsActive      bool    `dynamodbav:"is_active"`
	CheckoutMode  string  `dynamodbav:"checkout_mode"` // instant | manual
	VATRate       float64 `dynamodbav:"vat_rate,omitempty"`
	Currency      string  `dynamodbav:"currency,omitempty"`
	BankAccountID string  `dynamodbav:"bank_account_id,omitempty"`
	EmailConfigID string  `dynamodbav:"email_config_id,omitempty"`
}

// Mode returns the checkout mode, treating anything other than instant as manual.
func (s Shop) Mode() string {
	if s.CheckoutMode == CheckoutModeInstant {
		return CheckoutModeInstant
	}
	return CheckoutModeManual
}

func (s Shop) CurrencyOrDefault() string {
	if s.Currency == "" {
		return DefaultCurrency
	}
	return s.Currency
}

// BankAccount holds the transfer details shown to customers paying by bank transfer.
type BankAccount struct {
	BankAccountID string `dynamodbav:"bank_account_id"` // PK
	ShopID        string `dynamodbav:"shop_id"`
	AccountHolder string `dynamodbav:"account_holder"`
	BankName      string `dynamodbav:"bank_name"`
	IBAN          string `dynamodbav:"iban"`
	BIC           string `dynamodbav:"bic,omitempty"`
	IsActive      bool   `dynamodbav:"is_active"`
}

// EmailConfig is a shop's e-mail provider configuration.
type EmailConfig struct {
	EmailConfigID string `dynamodbav:"email_config_id"` // PK
	ShopID        string `dynamodbav:"shop_id"`
	APIKey        string `dynamodbav:"api_key,omitempty"`
	FromEmail     string `dynamodbav:"from_email,omitempty"`
	FromName      string `dynamodbav:"from_name,omitempty"`
	IsActive      bool   `dynamodbav:"is_active"`
}

// Usable reports whether mail can be sent with this configuration.
func (c *EmailConfig) Usable() bool {
	return c != nil && c.IsActive && c.APIKey != ""
}

// PaymentMethod is a globally defined way to pay.
type PaymentMethod struct {
	PaymentMethodID string `dynamodbav:"payment_method_id"` // PK
	Code            string `dynamodbav:"code"`
	Name            string `dynamodbav:"name"`
	Description     string `dynamodbav:"description,omitempty"`
	IsActive        bool   `dynamodbav:"is_active"`
}

// ShopPaymentMethod links a payment method to a shop.
type ShopPaymentMethod struct {
	ShopID          string `dynamodbav:"shop_id"`           // PK
	PaymentMethodID string `dynamodbav:"payment_method_id"` // SK
	IsActive        bool   `dynamodbav:"is_active"`
}
