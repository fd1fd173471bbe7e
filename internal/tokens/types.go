package tokens

import "time"

// Cart is the priced quote captured by a token. Its values are authoritative for the
// order created from it.
type Cart struct {
	Product       string  `dynamodbav:"product" json:"product"`
	Liters        float64 `dynamodbav:"liters" json:"liters"`
	PricePerLiter float64 `dynamodbav:"price_per_liter" json:"price_per_liter"`
	DeliveryFee   float64 `dynamodbav:"delivery_fee" json:"delivery_fee"`
	TotalAmount   float64 `dynamodbav:"total_amount" json:"total_amount"`
	VATRate       float64 `dynamodbav:"vat_rate" json:"vat_rate"`
	VATAmount     float64 `dynamodbav:"vat_amount" json:"vat_amount"`
}

// Token is the item stored in the order_tokens table. It is written once and never updated.
type Token struct {
	Token     string    `dynamodbav:"token"` // PK
	ShopID    string    `dynamodbav:"shop_id"`
	Cart      Cart      `dynamodbav:"cart"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	ExpiresAt time.Time `dynamodbav:"expires_at"`
}

// Expired reports whether now is past the token's expiry.
func (t Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
