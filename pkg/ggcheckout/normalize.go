package ggcheckout

import (
	"strings"
)

// Canonical statuses produced by Normalize.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// DefaultCurrency is assumed when the payload carries no currency.
const DefaultCurrency = "BRL"

// statusMapping maps GGCheckout status vocabulary to canonical statuses.
// Unknown values fall back to pending so that provider vocabulary drift does
// not hard-fail the whole event.
var statusMapping = map[string]string{
	"paid":      StatusCompleted,
	"approved":  StatusCompleted,
	"completed": StatusCompleted,
	"pending":   StatusPending,
	"cancelled": StatusCancelled,
	"canceled":  StatusCancelled,
	"failed":    StatusFailed,
	"refunded":  StatusCancelled,
}

// Event is the canonical webhook event after shape and status normalization.
type Event struct {
	ExternalID       string
	Status           string
	ProductID        string
	Amount           float64
	Currency         string
	UserID           string
	CustomerEmail    string
	CustomerName     string
	CustomerDocument string
	CustomerPhone    string
}

// ValidationError reports why a payload could not be normalized. Each entry
// is a human-readable description of one missing or malformed field.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Details, "; ")
}

// Normalize resolves a raw payload into a canonical Event. Field resolution
// is first-non-empty across the flat and nested formats (flat first, except
// status where payment.status wins); status is mapped through statusMapping. It returns a *ValidationError when the external id,
// status, or product id cannot be resolved, or when an amount is present but
// not positive.
func Normalize(p *Payload) (*Event, error) {
	var errs []string

	// Status is the one field where the nested format wins: providers that
	// send both put the payment lifecycle under payment.status and use the
	// top-level field for the envelope.
	rawStatus := firstNonEmpty(paymentStatus(p), p.Status)
	if rawStatus == "" {
		errs = append(errs, "Missing required field: status or payment.status")
	}

	productID := firstNonEmpty(p.ProductID, nestedProductID(p))
	if productID == "" {
		errs = append(errs, "Missing required field: product_id, product.id or products[0].id")
	}

	externalID := firstNonEmpty(p.TransactionID, p.OrderID, p.ExternalID, paymentID(p))
	if externalID == "" {
		errs = append(errs, "Missing required field: transaction_id, order_id, external_id or payment.id")
	}

	amount, amountSet := resolveAmount(p)
	if amountSet && amount <= 0 {
		errs = append(errs, "Invalid amount: must be a positive number")
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Details: errs}
	}

	status, ok := statusMapping[strings.ToLower(rawStatus)]
	if !ok {
		status = StatusPending
	}

	ev := &Event{
		ExternalID: externalID,
		Status:     status,
		ProductID:  productID,
		Amount:     amount,
		Currency:   firstNonEmpty(p.Currency, DefaultCurrency),
		UserID:     p.UserID,
	}

	ev.CustomerEmail = firstNonEmpty(p.CustomerEmail, customerField(p, func(c *CustomerInfo) string { return c.Email }))
	ev.CustomerName = firstNonEmpty(p.CustomerName, customerField(p, func(c *CustomerInfo) string { return c.Name }))
	ev.CustomerDocument = firstNonEmpty(p.CustomerDocument, customerField(p, func(c *CustomerInfo) string { return c.Document }))
	ev.CustomerPhone = firstNonEmpty(p.CustomerPhone, customerField(p, func(c *CustomerInfo) string { return c.Phone }))

	return ev, nil
}

// resolveAmount picks the amount with the same precedence as the other
// fields: flat amount, then payment.amount, then product.price. The second
// return value reports whether any of them was present in the payload.
func resolveAmount(p *Payload) (float64, bool) {
	if p.Amount != nil {
		return *p.Amount, true
	}
	if p.Payment != nil && p.Payment.Amount != nil {
		return *p.Payment.Amount, true
	}
	if p.Product != nil && p.Product.Price != nil {
		return *p.Product.Price, true
	}
	return 0, false
}

func paymentStatus(p *Payload) string {
	if p.Payment == nil {
		return ""
	}
	return p.Payment.Status
}

func paymentID(p *Payload) string {
	if p.Payment == nil {
		return ""
	}
	return p.Payment.ID
}

func nestedProductID(p *Payload) string {
	if p.Product != nil && p.Product.ID != "" {
		return p.Product.ID
	}
	if len(p.Products) > 0 {
		return p.Products[0].ID
	}
	return ""
}

func customerField(p *Payload, get func(*CustomerInfo) string) string {
	if p.Customer == nil {
		return ""
	}
	return get(p.Customer)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
