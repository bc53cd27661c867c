package store

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InteractionStore struct {
	db *pgxpool.Pool
}

func NewInteractionStore(db *pgxpool.Pool) *InteractionStore {
	return &InteractionStore{db: db}
}

func (s *InteractionStore) Create(ctx context.Context, i *domain.Interaction) error {
	data, err := encodeInteractionData(i.Data)
	if err != nil {
		return err
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO user_interactions (user_id, product_id, interaction_type, interaction_data)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		i.UserID, i.ProductID, i.Type, data,
	).Scan(&i.ID, &i.CreatedAt)
}

func (s *InteractionStore) List(ctx context.Context, f domain.InteractionFilter) ([]domain.InteractionWithProduct, error) {
	var c conditions

	if f.UserID != nil {
		c.add("i.user_id = $%d", *f.UserID)
	}
	if len(f.UserIDs) > 0 {
		c.add("i.user_id = ANY($%d::uuid[])", uuidStrings(f.UserIDs))
	}
	if f.ExcludeUserID != nil {
		c.add("i.user_id <> $%d", *f.ExcludeUserID)
	}
	if len(f.ProductIDs) > 0 {
		c.add("i.product_id = ANY($%d::uuid[])", uuidStrings(f.ProductIDs))
	}
	if len(f.ExcludeProductIDs) > 0 {
		c.add("NOT (i.product_id = ANY($%d::uuid[]))", uuidStrings(f.ExcludeProductIDs))
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for n, t := range f.Types {
			types[n] = string(t)
		}
		c.add("i.interaction_type = ANY($%d::text[])", types)
	}
	if f.Since != nil {
		c.add("i.created_at >= $%d", *f.Since)
	}
	if f.Category != "" {
		c.add("p.category = $%d", f.Category)
	}
	if f.InStockOnly {
		c.raw("p.inventory_quantity > 0")
	}

	limit := ""
	if f.Limit > 0 {
		limit = fmt.Sprintf("LIMIT $%d", c.param(f.Limit))
	}

	query := fmt.Sprintf(
		`SELECT i.id, i.user_id, i.product_id, i.interaction_type, i.interaction_data, i.created_at,
		        p.id, p.name, p.category, p.brand, p.tags, p.price, p.inventory_quantity
		 FROM user_interactions i
		 JOIN products p ON p.id = i.product_id
		 %s
		 ORDER BY i.created_at DESC
		 %s`,
		c.where(), limit,
	)

	rows, err := s.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var results []domain.InteractionWithProduct
	for rows.Next() {
		var (
			iwp  domain.InteractionWithProduct
			data []byte
		)
		err := rows.Scan(
			&iwp.ID, &iwp.UserID, &iwp.ProductID, &iwp.Type, &data, &iwp.CreatedAt,
			&iwp.Product.ID, &iwp.Product.Name, &iwp.Product.Category, &iwp.Product.Brand,
			&iwp.Product.Tags, &iwp.Product.Price, &iwp.Product.InventoryQuantity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		if iwp.Data, err = decodeInteractionData(data); err != nil {
			return nil, err
		}
		results = append(results, iwp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("interaction rows: %w", err)
	}
	return results, nil
}

func encodeInteractionData(d *domain.InteractionData) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode interaction data: %w", err)
	}
	return b, nil
}

func decodeInteractionData(b []byte) (*domain.InteractionData, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var d domain.InteractionData
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode interaction data: %w", err)
	}
	return &d, nil
}
