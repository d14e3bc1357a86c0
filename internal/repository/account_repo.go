package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/glimmershop/store_api/internal/models"
	"github.com/glimmershop/store_api/internal/utils"
)

// AccountRepository handles data access for the digital-account inventory.
// The Claim transition is the only writer of account status; everything else
// reads.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Claim atomically transitions the oldest available account for a product to
// sold and returns its credentials. The inner select takes the row lock with
// SKIP LOCKED and the outer update re-checks the status, so two concurrent
// claims can never win the same account. Zero affected rows surfaces as
// utils.ErrClaimRaceLost; the caller distinguishes a lost race from empty
// stock via CountAvailable.
func (r *AccountRepository) Claim(ctx context.Context, productID string, soldTo *string) (*models.Account, error) {
	const q = `
        UPDATE accounts SET
            status = 'sold',
            is_sold = true,
            sold_at = NOW(),
            sold_to = $2
        WHERE id = (
            SELECT id FROM accounts
            WHERE product_id = $1 AND status = 'available' AND is_sold = false
            ORDER BY created_at ASC
            LIMIT 1
            FOR UPDATE SKIP LOCKED
        )
        AND status = 'available'
        RETURNING id, product_id, email, password, status, is_sold, sold_at, sold_to, created_at`

	var acc models.Account
	if err := r.db.GetContext(ctx, &acc, q, productID, soldTo); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrClaimRaceLost
		}
		return nil, err
	}
	return &acc, nil
}

// CountAvailable returns the number of unsold accounts for a product.
func (r *AccountRepository) CountAvailable(ctx context.Context, productID string) (int, error) {
	const q = `
        SELECT COUNT(*) FROM accounts
        WHERE product_id = $1 AND status = 'available' AND is_sold = false`

	var n int
	if err := r.db.GetContext(ctx, &n, q, productID); err != nil {
		return 0, err
	}
	return n, nil
}

// GetByID returns a single account row.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	const q = `SELECT * FROM accounts WHERE id = $1 LIMIT 1`

	var acc models.Account
	if err := r.db.GetContext(ctx, &acc, q, id); err != nil {
		return nil, err
	}
	return &acc, nil
}
