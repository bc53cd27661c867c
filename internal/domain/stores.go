package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InteractionFilter narrows an interaction query. Zero-valued fields are
// ignored. Results are ordered newest first.
type InteractionFilter struct {
	UserID            *uuid.UUID
	UserIDs           []uuid.UUID
	ExcludeUserID     *uuid.UUID
	ProductIDs        []uuid.UUID
	ExcludeProductIDs []uuid.UUID
	Types             []InteractionType
	Since             *time.Time
	// Category restricts to interactions on products of this category.
	Category string
	// InStockOnly restricts to products with positive inventory.
	InStockOnly bool
	Limit       int
}

// ProductFilter narrows a product query. CategoryIn and BrandIn are OR'ed
// together when both are set; every other field is AND'ed.
type ProductFilter struct {
	IDs          []uuid.UUID
	Category     string
	CategoryIn   []string
	BrandIn      []string
	PriceMin     *float64
	PriceMax     *float64
	MinInventory int
	ExcludeIDs   []uuid.UUID
}

type InteractionStore interface {
	Create(ctx context.Context, i *Interaction) error
	List(ctx context.Context, f InteractionFilter) ([]InteractionWithProduct, error)
}

type ProductStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, f ProductFilter, limit int) ([]Product, error)
}

type PreferenceStore interface {
	Upsert(ctx context.Context, p *PreferenceProfile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*PreferenceProfile, error)
}
