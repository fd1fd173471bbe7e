package orders

import "time"

// Order statuses
const (
	StatusPending     = "pending"
	StatusConfirmed   = "confirmed"
	StatusPaid        = "paid"
	StatusDelivered   = "delivered"
	StatusCancelled   = "cancelled"
	StatusInvoiceSent = "invoice_sent" // terminal marker of the instant path
)

// Processing modes, frozen from the shop's checkout mode at creation.
const (
	ModeInstant = "instant"
	ModeManual  = "manual"
)

const PaymentBankTransfer = "bank_transfer"

// InitialStatus derives the status of a new order from the shop's checkout mode.
func InitialStatus(checkoutMode string) string {
	if checkoutMode == ModeInstant {
		return StatusConfirmed
	}
	return StatusPending
}

type Customer struct {
	FirstName string `dynamodbav:"first_name" json:"first_name"`
	LastName  string `dynamodbav:"last_name" json:"last_name"`
	Email     string `dynamodbav:"email" json:"email"`
	Phone     string `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
}

type Address struct {
	Street     string `dynamodbav:"street" json:"street"`
	PostalCode string `dynamodbav:"postal_code" json:"postal_code"`
	City       string `dynamodbav:"city" json:"city"`
}

// Order represents the item stored in the orders DynamoDB table.
type Order struct {
	OrderID        string   `dynamodbav:"order_id"` // PK
	OrderNumber    string   `dynamodbav:"order_number"`
	ShopID         string   `dynamodbav:"shop_id"`
	Token          string   `dynamodbav:"token,omitempty"` // token the order was redeemed from
	Customer       Customer `dynamodbav:"customer"`
	Delivery       Address  `dynamodbav:"delivery_address"`
	UseSameAddress bool     `dynamodbav:"use_same_address"`
	Billing        *Address `dynamodbav:"billing_address,omitempty"`

	Product       string  `dynamodbav:"product"`
	Liters        float64 `dynamodbav:"liters"`
	PricePerLiter float64 `dynamodbav:"price_per_liter"`
	BasePrice     float64 `dynamodbav:"base_price"`
	DeliveryFee   float64 `dynamodbav:"delivery_fee"`
	TotalAmount   float64 `dynamodbav:"total_amount"`
	Amount        float64 `dynamodbav:"amount"` // mirrors TotalAmount for older clients
	Currency      string  `dynamodbav:"currency"`
	VATRate       float64 `dynamodbav:"vat_rate"`
	VATAmount     float64 `dynamodbav:"vat_amount"`
	PaymentMethod string  `dynamodbav:"payment_method"`
	DeliveryDate  string  `dynamodbav:"delivery_date,omitempty"`
	Notes         string  `dynamodbav:"notes,omitempty"`

	Status         string `dynamodbav:"status"`
	ProcessingMode string `dynamodbav:"processing_mode"`

	InvoiceNumber       string `dynamodbav:"invoice_number,omitempty"`
	InvoicePDFGenerated bool   `dynamodbav:"invoice_pdf_generated"`
	InvoicePDFURL       string `dynamodbav:"invoice_pdf_url,omitempty"`
	InvoiceSent         bool   `dynamodbav:"invoice_sent"`

	BankDetailsShown      bool   `dynamodbav:"bank_details_shown"`
	SelectedBankAccountID string `dynamodbav:"selected_bank_account_id,omitempty"`
	TempOrderNumber       string `dynamodbav:"temp_order_number,omitempty"`

	ProcessingClaim string    `dynamodbav:"processing_claim,omitempty"`
	ClaimedAt       int64     `dynamodbav:"claimed_at,omitempty"` // unix seconds
	CreatedAt       time.Time `dynamodbav:"created_at"`
	UpdatedAt       time.Time `dynamodbav:"updated_at"`
}

// InvoiceDetails is what the invoice collaborator reports back for an order.
type InvoiceDetails struct {
	Number string
	PDFURL string
}
