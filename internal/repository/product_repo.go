package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/glimmershop/store_api/internal/models"
)

// ProductRepository handles data access for the storefront catalog.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListActive returns all active catalog products, cheapest first.
func (r *ProductRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	const q = `
        SELECT * FROM products
        WHERE active = true
        ORDER BY price ASC`

	var list []models.Product
	if err := r.db.SelectContext(ctx, &list, q); err != nil {
		return nil, err
	}
	return list, nil
}

// GetByID returns a single product.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE id = $1 LIMIT 1`

	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		return nil, err
	}
	return &p, nil
}
