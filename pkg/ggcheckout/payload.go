package ggcheckout

// Payload is the raw webhook body sent by GGCheckout. The provider has
// shipped two shapes over time: an older flat format with fields directly on
// the object, and the current nested format with payment/customer/product
// objects. Both are accepted; Normalize resolves them into an Event.
type Payload struct {
	// Flat format (old integrations)
	TransactionID    string   `json:"transaction_id,omitempty"`
	OrderID          string   `json:"order_id,omitempty"`
	ExternalID       string   `json:"external_id,omitempty"`
	Status           string   `json:"status,omitempty"`
	ProductID        string   `json:"product_id,omitempty"`
	UserID           string   `json:"user_id,omitempty"`
	CustomerEmail    string   `json:"customer_email,omitempty"`
	CustomerName     string   `json:"customer_name,omitempty"`
	CustomerDocument string   `json:"customer_document,omitempty"`
	CustomerPhone    string   `json:"customer_phone,omitempty"`
	Amount           *float64 `json:"amount,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	Event            string   `json:"event,omitempty"`
	Signature        string   `json:"signature,omitempty"`

	// Nested format (current)
	Payment  *PaymentInfo  `json:"payment,omitempty"`
	Customer *CustomerInfo `json:"customer,omitempty"`
	Products []ProductInfo `json:"products,omitempty"`
	Product  *ProductInfo  `json:"product,omitempty"`
}

// PaymentInfo is the nested payment object.
type PaymentInfo struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Amount *float64 `json:"amount"`
	Method string   `json:"method,omitempty"`
}

// CustomerInfo is the nested customer object.
type CustomerInfo struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
}

// ProductInfo is a nested product entry. The provider sends either a single
// product object or a products array; in both cases only the first product
// is considered.
type ProductInfo struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Title string   `json:"title,omitempty"`
	Price *float64 `json:"price"`
}
