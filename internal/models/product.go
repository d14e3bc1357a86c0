package models

import "time"

// Product represents a catalog entry the storefront sells accounts for.
// Product ids are the short slugs GGCheckout sends in webhook payloads
// (e.g. "50k").
type Product struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Price     float64   `db:"price" json:"price"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// ProductStock pairs a product with its currently available inventory count.
type ProductStock struct {
	Product
	Stock int `json:"stock"`
}
