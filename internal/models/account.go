package models

import "time"

type AccountStatus string

const (
	AccountAvailable AccountStatus = "available"
	AccountSold      AccountStatus = "sold"
)

// Account is one sellable digital-account credential. An account moves
// available -> sold exactly once; once sold it is never reassigned. Only the
// fulfillment claim writes that transition.
type Account struct {
	ID        string        `db:"id" json:"id"`
	ProductID string        `db:"product_id" json:"productId"`
	Email     string        `db:"email" json:"-"`
	Password  string        `db:"password" json:"-"`
	Status    AccountStatus `db:"status" json:"status"`
	IsSold    bool          `db:"is_sold" json:"isSold"`
	SoldAt    *time.Time    `db:"sold_at" json:"soldAt,omitempty"`
	SoldTo    *string       `db:"sold_to" json:"-"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
}
