package validation

// Numeric fields are pointers so that an absent value is distinguishable from zero.

// IssueTokenRequest is the payload for POST /order-tokens
type IssueTokenRequest struct {
	ShopID        string   `json:"shop_id" validate:"required"`
	Product       string   `json:"product" validate:"required"`
	Liters        *float64 `json:"liters" validate:"required,gt=0"`
	PricePerLiter *float64 `json:"price_per_liter" validate:"required,gte=0"`
	DeliveryFee   *float64 `json:"delivery_fee" validate:"required,gte=0"`
	TotalAmount   *float64 `json:"total_amount" validate:"required,gte=0"`
}

type Customer struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty"`
}

type Address struct {
	Street     string `json:"street" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	City       string `json:"city" validate:"required"`
}

// Cart is the priced selection submitted with an order.
type Cart struct {
	Product       string   `json:"product" validate:"required"`
	Liters        *float64 `json:"liters" validate:"required,gt=0"`
	PricePerLiter *float64 `json:"price_per_liter" validate:"required,gte=0"`
	DeliveryFee   *float64 `json:"delivery_fee" validate:"required,gte=0"`
}

// CreateOrderRequest is the payload for POST /orders.
// Cart may be omitted when Token is given; the token's cart is used instead.
type CreateOrderRequest struct {
	ShopID          string   `json:"shop_id" validate:"required"`
	Token           string   `json:"token,omitempty"`
	Customer        Customer `json:"customer"`
	DeliveryAddress Address  `json:"delivery_address"`
	UseSameAddress  bool     `json:"use_same_address"`
	BillingAddress  *Address `json:"billing_address,omitempty" validate:"omitempty"`
	Cart            *Cart    `json:"cart,omitempty" validate:"omitempty"`
	PaymentMethod   string   `json:"payment_method" validate:"required"`
	DeliveryDate    string   `json:"delivery_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes           string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ProcessInstantRequest is the payload for POST /orders/process-instant
type ProcessInstantRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// ProcessManualRequest is the payload for POST /orders/process-manual
type ProcessManualRequest struct {
	OrderID         string  `json:"order_id" validate:"required"`
	TempOrderNumber *string `json:"temp_order_number,omitempty" validate:"omitempty,min=1,max=64"`
	BankAccountID   *string `json:"bank_account_id,omitempty" validate:"omitempty,min=1"`
}
