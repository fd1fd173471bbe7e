// Package pricing holds the money arithmetic for heating-oil quotes.
// Products are computed exactly in decimal and converted back to float64 once,
// so 100 * 1.1 is 110 and not 110.00000000000001.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Quote is the priced breakdown of one heating-oil delivery.
type Quote struct {
	BasePrice   float64
	DeliveryFee float64
	Total       float64
	VATRate     float64
	VATAmount   float64
}

// BasePrice returns liters * pricePerLiter.
func BasePrice(liters, pricePerLiter float64) float64 {
	return toFloat(decimal.NewFromFloat(liters).Mul(decimal.NewFromFloat(pricePerLiter)))
}

// Total returns liters * pricePerLiter + deliveryFee.
func Total(liters, pricePerLiter, deliveryFee float64) float64 {
	base := decimal.NewFromFloat(liters).Mul(decimal.NewFromFloat(pricePerLiter))
	return toFloat(base.Add(decimal.NewFromFloat(deliveryFee)))
}

// VATFromGross extracts the VAT already contained in a gross total:
// total * rate / (100 + rate). A rate <= 0 yields 0.
func VATFromGross(total, vatRate float64) float64 {
	if vatRate <= 0 {
		return 0
	}
	rate := decimal.NewFromFloat(vatRate)
	vat := decimal.NewFromFloat(total).Mul(rate).Div(hundred.Add(rate))
	return toFloat(vat)
}

// NewQuote prices a cart and extracts its VAT.
func NewQuote(liters, pricePerLiter, deliveryFee, vatRate float64) Quote {
	total := Total(liters, pricePerLiter, deliveryFee)
	return Quote{
		BasePrice:   BasePrice(liters, pricePerLiter),
		DeliveryFee: deliveryFee,
		Total:       total,
		VATRate:     vatRate,
		VATAmount:   VATFromGross(total, vatRate),
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
