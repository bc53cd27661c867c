package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductStore struct {
	db *pgxpool.Pool
}

func NewProductStore(db *pgxpool.Pool) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, name, category, brand, tags, price, inventory_quantity`

func (s *ProductStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p := &domain.Product{}
	err := s.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Category, &p.Brand, &p.Tags, &p.Price, &p.InventoryQuantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductStore) List(ctx context.Context, f domain.ProductFilter, limit int) ([]domain.Product, error) {
	var c conditions

	if len(f.IDs) > 0 {
		c.add("id = ANY($%d::uuid[])", uuidStrings(f.IDs))
	}
	if f.Category != "" {
		c.add("category = $%d", f.Category)
	}
	switch {
	case len(f.CategoryIn) > 0 && len(f.BrandIn) > 0:
		cat := c.param(f.CategoryIn)
		brand := c.param(f.BrandIn)
		c.raw(fmt.Sprintf("(category = ANY($%d::text[]) OR brand = ANY($%d::text[]))", cat, brand))
	case len(f.CategoryIn) > 0:
		c.add("category = ANY($%d::text[])", f.CategoryIn)
	case len(f.BrandIn) > 0:
		c.add("brand = ANY($%d::text[])", f.BrandIn)
	}
	if f.PriceMin != nil {
		c.add("price >= $%d", *f.PriceMin)
	}
	if f.PriceMax != nil {
		c.add("price <= $%d", *f.PriceMax)
	}
	if f.MinInventory > 0 {
		c.add("inventory_quantity >= $%d", f.MinInventory)
	}
	if len(f.ExcludeIDs) > 0 {
		c.add("NOT (id = ANY($%d::uuid[]))", uuidStrings(f.ExcludeIDs))
	}

	if limit <= 0 {
		limit = 100
	}
	limitParam := c.param(limit)

	query := fmt.Sprintf(
		`SELECT %s FROM products %s ORDER BY created_at DESC LIMIT $%d`,
		productColumns, c.where(), limitParam,
	)

	rows, err := s.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Brand, &p.Tags, &p.Price, &p.InventoryQuantity); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
