package models

import (
	"encoding/json"
	"time"
)

type OrderStatus string
type DeliveryStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderFailed    OrderStatus = "failed"
	OrderCancelled OrderStatus = "cancelled"
)

const (
	DeliveryPending    DeliveryStatus = "pending"
	DeliveryInProgress DeliveryStatus = "delivering"
	DeliveryDelivered  DeliveryStatus = "delivered"
	DeliveryError      DeliveryStatus = "error"
)

// Order captures one purchase attempt, keyed by the external transaction id
// assigned by GGCheckout. The external id is unique; redelivered events for
// the same id update this row instead of creating a new one. DeliveryStatus
// tracks credential hand-over independently of the payment lifecycle; the
// pending/error -> delivering transition is conditional, so only one
// fulfillment attempt can be in flight per order.
type Order struct {
	ID               string          `db:"id" json:"id"`
	ExternalID       string          `db:"external_id" json:"externalId"`
	ProductID        string          `db:"product_id" json:"productId"`
	Amount           *float64        `db:"amount" json:"amount,omitempty"`
	Currency         string          `db:"currency" json:"currency"`
	Status           OrderStatus     `db:"status" json:"status"`
	DeliveryStatus   DeliveryStatus  `db:"delivery_status" json:"deliveryStatus"`
	CustomerEmail    *string         `db:"customer_email" json:"customerEmail,omitempty"`
	CustomerName     *string         `db:"customer_name" json:"customerName,omitempty"`
	CustomerDocument *string         `db:"customer_document" json:"-"`
	CustomerPhone    *string         `db:"customer_phone" json:"-"`
	AccountID        *string         `db:"account_id" json:"-"`
	RawPayload       json.RawMessage `db:"raw_payload" json:"-"`
	ErrorMessage     *string         `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time       `db:"updated_at" json:"-"`
	DeliveredAt      *time.Time      `db:"delivered_at" json:"deliveredAt,omitempty"`
	CompletedAt      *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
}
