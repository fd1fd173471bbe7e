package checkout

import (
	"context"
	"time"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/orders"
)

// StatusReport is the projection polled by storefront clients.
type StatusReport struct {
	OrderID             string    `json:"order_id"`
	OrderNumber         string    `json:"order_number"`
	Status              string    `json:"status"`
	ProcessingMode      string    `json:"processing_mode"`
	PaymentMethod       string    `json:"payment_method"`
	TotalAmount         float64   `json:"total_amount"`
	Currency            string    `json:"currency"`
	VATAmount           float64   `json:"vat_amount"`
	InvoiceNumber       string    `json:"invoice_number,omitempty"`
	InvoicePDFGenerated bool      `json:"invoice_pdf_generated"`
	InvoicePDFURL       string    `json:"invoice_pdf_url,omitempty"`
	InvoiceSent         bool      `json:"invoice_sent"`
	BankDetailsShown    bool      `json:"bank_details_shown"`
	TempOrderNumber     string    `json:"temp_order_number,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	NextSteps           []string  `json:"next_steps"`
	CanShowBankDetails  bool      `json:"can_show_bank_details"`
}

// OrderStatus reports the current state of an order and what happens next.
func (s *Service) OrderStatus(ctx context.Context, orderID string) (*StatusReport, error) {
	orderID, err := requireID("order_id", orderID)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	steps, canShowBank := DeriveStatus(*order)
	return &StatusReport{
		OrderID:             order.OrderID,
		OrderNumber:         order.OrderNumber,
		Status:              order.Status,
		ProcessingMode:      order.ProcessingMode,
		PaymentMethod:       order.PaymentMethod,
		TotalAmount:         order.TotalAmount,
		Currency:            order.Currency,
		VATAmount:           order.VATAmount,
		InvoiceNumber:       order.InvoiceNumber,
		InvoicePDFGenerated: order.InvoicePDFGenerated,
		InvoicePDFURL:       order.InvoicePDFURL,
		InvoiceSent:         order.InvoiceSent,
		BankDetailsShown:    order.BankDetailsShown,
		TempOrderNumber:     order.TempOrderNumber,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
		NextSteps:           steps,
		CanShowBankDetails:  canShowBank,
	}, nil
}

// DeriveStatus computes the next steps shown to the customer and whether the bank
// details may be revealed. It does not modify the order.
func DeriveStatus(o orders.Order) (nextSteps []string, canShowBankDetails bool) {
	nextSteps = []string{}
	bankTransfer := o.PaymentMethod == orders.PaymentBankTransfer

	switch o.Status {
	case orders.StatusPending:
		if o.ProcessingMode == orders.ModeManual {
			nextSteps = append(nextSteps,
				"Your order is awaiting manual review by the shop.",
				"You will receive a confirmation email shortly.",
			)
		} else {
			nextSteps = append(nextSteps, "Your order is being processed automatically.")
		}
	case orders.StatusConfirmed:
		if bankTransfer && !o.BankDetailsShown {
			canShowBankDetails = true
			nextSteps = append(nextSteps, "Please transfer the total amount using the bank details provided.")
		}
		if !o.InvoicePDFGenerated {
			nextSteps = append(nextSteps, "Your invoice is being prepared.")
		}
	case orders.StatusInvoiceSent:
		nextSteps = append(nextSteps, "Your invoice has been sent by email.")
		if bankTransfer {
			nextSteps = append(nextSteps, "Please transfer the total amount as stated on your invoice.")
		}
	case orders.StatusPaid:
		nextSteps = append(nextSteps, "Payment received.", "Your delivery is being prepared.")
	case orders.StatusDelivered:
		nextSteps = append(nextSteps, "Your order is complete.")
	case orders.StatusCancelled:
		nextSteps = append(nextSteps, "Your order has been cancelled.")
	}
	return nextSteps, canShowBankDetails
}
