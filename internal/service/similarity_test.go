package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Harshitk-cp/recommender/internal/cache"
	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimilarity(f *fixture) *SimilarityScorer {
	results := cache.New(cache.DefaultCapacity, cache.DefaultTTL,
		cache.WithClock[[]domain.Recommendation](f.clock.Now))
	return NewSimilarityScorer(f.products, results, testLogger(), NewMetrics(nil))
}

func TestProductSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    domain.Product
		want    float64
		matched []string
	}{
		{
			name:    "differs only in brand",
			a:       domain.Product{Category: "shoes", Brand: "Acme"},
			b:       domain.Product{Category: "shoes", Brand: "Beta"},
			want:    0.4,
			matched: []string{"same category"},
		},
		{
			name:    "same category and brand",
			a:       domain.Product{Category: "shoes", Brand: "Acme"},
			b:       domain.Product{Category: "shoes", Brand: "Acme"},
			want:    0.7,
			matched: []string{"same category", "same brand"},
		},
		{
			name:    "identical price",
			a:       domain.Product{Price: 50},
			b:       domain.Product{Price: 50},
			want:    0.2,
			matched: []string{"similar price"},
		},
		{
			name:    "price twenty percent apart",
			a:       domain.Product{Price: 100},
			b:       domain.Product{Price: 80},
			want:    0.2 * (1 - 2*0.2),
			matched: []string{"similar price"},
		},
		{
			name: "price half apart",
			a:    domain.Product{Price: 100},
			b:    domain.Product{Price: 50},
			want: 0,
		},
		{
			name:    "tag overlap",
			a:       domain.Product{Tags: []string{"red", "leather", "boot"}},
			b:       domain.Product{Tags: []string{"red", "leather"}},
			want:    0.1 * 2.0 / 3.0,
			matched: []string{"similar features"},
		},
		{
			name: "weak tag overlap",
			a:    domain.Product{Tags: []string{"a", "b", "c", "d"}},
			b:    domain.Product{Tags: []string{"a", "e", "f", "g"}},
			want: 0.1 * 1.0 / 7.0,
		},
		{
			name: "empty attributes never match",
			a:    domain.Product{},
			b:    domain.Product{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := ProductSimilarity(&tt.a, &tt.b)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.Equal(t, tt.matched, matched)
		})
	}
}

func TestProductSimilarity_BrandOnlyDifferenceIsExact(t *testing.T) {
	a := domain.Product{Category: "electronics", Brand: "Acme"}
	b := domain.Product{Category: "electronics", Brand: "Beta"}

	got, _ := ProductSimilarity(&a, &b)
	assert.Equal(t, 0.4, got)
}

func TestSimilarityScorer_Score(t *testing.T) {
	f := newFixture()
	source := f.product("runner", "shoes", "Acme", 100, 5, "running", "mesh")
	twin := f.product("runner 2", "shoes", "Acme", 100, 5, "running", "mesh")
	cousin := f.product("trail", "shoes", "Beta", 90, 5, "running")
	f.product("sold out twin", "shoes", "Acme", 100, 0, "running", "mesh")
	f.product("hat", "hats", "Gamma", 20, 5)

	recs, err := newSimilarity(f).Score(context.Background(), source.ID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, twin.ID, recs[0].ProductID)
	assert.InDelta(t, 1.0, recs[0].Score, 1e-9)
	assert.Equal(t, "Same category, same brand, similar price and similar features", recs[0].Reason)
	assert.Equal(t, domain.AlgorithmSimilarity, recs[0].Algorithm)

	assert.Equal(t, cousin.ID, recs[1].ProductID)
	// 0.4 + 0.2*(1-0.2) + 0.1*0.5
	assert.InDelta(t, 0.61, recs[1].Score, 1e-9)
	assert.Equal(t, "Same category, similar price and similar features", recs[1].Reason)

	for _, r := range recs {
		assert.NotEqual(t, source.ID, r.ProductID)
	}
	assertScoresBounded(t, recs)
}

func TestSimilarityScorer_CachesResult(t *testing.T) {
	f := newFixture()
	source := f.product("a", "shoes", "Acme", 100, 5)
	f.product("b", "shoes", "Acme", 100, 5)

	s := newSimilarity(f)
	first, err := s.Score(context.Background(), source.ID, 5)
	require.NoError(t, err)
	second, err := s.Score(context.Background(), source.ID, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.products.getCalls)
	assert.Equal(t, 1, f.products.listCalls)

	_, err = s.Score(context.Background(), source.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, f.products.getCalls)
}

func TestSimilarityScorer_UnknownProduct(t *testing.T) {
	f := newFixture()
	f.product("a", "shoes", "Acme", 100, 5)

	s := newSimilarity(f)
	missing := uuid.New()
	for i := 0; i < 2; i++ {
		recs, err := s.Score(context.Background(), missing, 5)
		require.NoError(t, err)
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
	}
	assert.Equal(t, 0, f.products.listCalls)
}

func TestSimilarityScorer_StoreFailureDegrades(t *testing.T) {
	f := newFixture()
	f.products.err = errors.New("timeout")

	recs, err := newSimilarity(f).Score(context.Background(), uuid.New(), 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSimilarityScorer_Truncation(t *testing.T) {
	f := newFixture()
	source := f.product("src", "shoes", "Acme", 100, 5)
	for i := 0; i < 20; i++ {
		f.product(fmt.Sprintf("p%d", i), "shoes", "Acme", 100+float64(i*2), 5)
	}

	recs, err := newSimilarity(f).Score(context.Background(), source.ID, 5)
	require.NoError(t, err)
	assert.Len(t, recs, 5)
	assertSortedDesc(t, recs)
}

func TestSimilarityScorer_InvalidInput(t *testing.T) {
	f := newFixture()
	s := newSimilarity(f)

	_, err := s.Score(context.Background(), uuid.Nil, 5)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.Score(context.Background(), uuid.New(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSimilarityScorer_CanceledCallerDoesNotDegradeSharedMiss(t *testing.T) {
	f := newFixture()
	source := f.product("a", "shoes", "Acme", 100, 5)
	twin := f.product("b", "shoes", "Acme", 100, 5)

	g := newGate()
	results := cache.New(cache.DefaultCapacity, cache.DefaultTTL,
		cache.WithClock[[]domain.Recommendation](f.clock.Now))
	s := NewSimilarityScorer(&gatedProductStore{ProductStore: f.products, gate: g}, results, testLogger(), NewMetrics(nil))

	first, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan []domain.Recommendation, 1)
	go func() {
		recs, _ := s.Score(first, source.ID, 5)
		firstDone <- recs
	}()
	<-g.entered

	secondDone := make(chan []domain.Recommendation, 1)
	go func() {
		recs, _ := s.Score(context.Background(), source.ID, 5)
		secondDone <- recs
	}()

	cancelFirst()
	select {
	case recs := <-firstDone:
		assert.Empty(t, recs)
	case <-time.After(time.Second):
		t.Fatal("canceled caller kept waiting on the shared computation")
	}

	close(g.release)
	select {
	case recs := <-secondDone:
		require.Len(t, recs, 1)
		assert.Equal(t, twin.ID, recs[0].ProductID)
	case <-time.After(time.Second):
		t.Fatal("live caller never received a result")
	}
}
