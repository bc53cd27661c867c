package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PreferenceStore struct {
	db *pgxpool.Pool
}

func NewPreferenceStore(db *pgxpool.Pool) *PreferenceStore {
	return &PreferenceStore{db: db}
}

func (s *PreferenceStore) Upsert(ctx context.Context, p *domain.PreferenceProfile) error {
	categories, err := json.Marshal(p.CategoryScores)
	if err != nil {
		return fmt.Errorf("encode category scores: %w", err)
	}
	brands, err := json.Marshal(p.BrandScores)
	if err != nil {
		return fmt.Errorf("encode brand scores: %w", err)
	}
	tags, err := json.Marshal(p.TagScores)
	if err != nil {
		return fmt.Errorf("encode tag scores: %w", err)
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO user_preferences (user_id, category_scores, brand_scores, tag_scores, price_min, price_max, interaction_count, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		   category_scores = EXCLUDED.category_scores,
		   brand_scores = EXCLUDED.brand_scores,
		   tag_scores = EXCLUDED.tag_scores,
		   price_min = EXCLUDED.price_min,
		   price_max = EXCLUDED.price_max,
		   interaction_count = EXCLUDED.interaction_count,
		   updated_at = NOW()
		 RETURNING updated_at`,
		p.UserID, categories, brands, tags, p.PriceBand.Min, p.PriceBand.Max, p.InteractionCount,
	).Scan(&p.UpdatedAt)
}

func (s *PreferenceStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.PreferenceProfile, error) {
	var (
		p                        = &domain.PreferenceProfile{UserID: userID}
		categories, brands, tags []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT category_scores, brand_scores, tag_scores, price_min, price_max, interaction_count, updated_at
		 FROM user_preferences WHERE user_id = $1`,
		userID,
	).Scan(&categories, &brands, &tags, &p.PriceBand.Min, &p.PriceBand.Max, &p.InteractionCount, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	for _, field := range []struct {
		raw []byte
		dst *map[string]float64
	}{
		{categories, &p.CategoryScores},
		{brands, &p.BrandScores},
		{tags, &p.TagScores},
	} {
		if len(field.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(field.raw, field.dst); err != nil {
			return nil, fmt.Errorf("decode preference scores: %w", err)
		}
	}
	return p, nil
}
