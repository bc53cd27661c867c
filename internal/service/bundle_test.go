package service

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleService_ColdStartFallsBackToTrending(t *testing.T) {
	f := newFixture()
	popular := f.product("popular", "books", "Acme", 10, 5)
	f.interact(uuid.New(), popular, domain.InteractionPurchase, time.Hour)

	e := f.engine()
	b, err := e.Bundles.Get(context.Background(), uuid.New())
	require.NoError(t, err)

	// The blend itself includes the trending leg, so for_you is never empty here.
	forYou := b.Sections[domain.SectionForYou]
	require.NotEmpty(t, forYou)
	assert.Equal(t, popular.ID, forYou[0].ProductID)

	assert.Empty(t, b.Sections[domain.SectionBecauseYouViewed])
	assert.Empty(t, b.Sections[domain.SectionTrendingInCategories])
	assert.Empty(t, b.Sections[domain.SectionSimilarToCart])
	assert.Equal(t, testNow.Add(time.Hour), b.ExpiresAt)
}

func TestBundleService_ForYouFallbackWhenBlendEmpty(t *testing.T) {
	f := newFixture()
	popular := f.product("popular", "books", "Acme", 10, 5)
	f.interact(uuid.New(), popular, domain.InteractionView, time.Hour)

	e := f.engine()
	empty := &stubBlender{}
	svc := NewBundleService(empty, e.Trending, e.Similarity, f.interactions, e.bundles, testLogger())
	svc.SetClock(f.clock.Now)

	b, err := svc.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	forYou := b.Sections[domain.SectionForYou]
	require.Len(t, forYou, 1)
	assert.Equal(t, domain.AlgorithmTrending, forYou[0].Algorithm)
	assert.Equal(t, 1, empty.calls)
}

type stubBlender struct {
	calls int
}

func (s *stubBlender) Blend(ctx context.Context, userID uuid.UUID, cfg domain.BlendConfig) (*domain.BlendResult, error) {
	s.calls++
	return &domain.BlendResult{Recommendations: []domain.Recommendation{}}, nil
}

func TestBundleService_Sections(t *testing.T) {
	f := newFixture()
	viewed := f.product("viewed", "shoes", "Acme", 100, 5, "running")
	viewedTwin := f.product("viewed twin", "shoes", "Acme", 100, 5, "running")
	carted := f.product("carted", "bags", "Beta", 50, 5, "leather")
	cartTwin := f.product("cart twin", "bags", "Beta", 50, 5, "leather")
	hotShoe := f.product("hot shoe", "shoes", "Gamma", 300, 5)

	u := uuid.New()
	f.interact(u, viewed, domain.InteractionView, time.Minute)
	f.interact(u, carted, domain.InteractionCart, 2*time.Minute)
	f.interact(uuid.New(), hotShoe, domain.InteractionPurchase, time.Hour)

	b, err := f.engine().Bundles.Get(context.Background(), u)
	require.NoError(t, err)

	assert.Contains(t, productIDs(b.Sections[domain.SectionBecauseYouViewed]), viewedTwin.ID)
	assert.NotContains(t, productIDs(b.Sections[domain.SectionBecauseYouViewed]), viewed.ID)

	cart := productIDs(b.Sections[domain.SectionSimilarToCart])
	assert.Contains(t, cart, cartTwin.ID)
	assert.NotContains(t, cart, carted.ID)

	assert.Contains(t, productIDs(b.Sections[domain.SectionTrendingInCategories]), hotShoe.ID)
}

func TestBundleService_CachedUntilStale(t *testing.T) {
	f := newFixture()
	e := f.engine()
	u := uuid.New()
	ctx := context.Background()

	first, err := e.Bundles.Get(ctx, u)
	require.NoError(t, err)

	f.clock.Advance(59 * time.Minute)
	second, err := e.Bundles.Get(ctx, u)
	require.NoError(t, err)
	assert.Same(t, first, second)

	f.clock.Advance(2 * time.Minute)
	third, err := e.Bundles.Get(ctx, u)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.True(t, third.GeneratedAt.After(first.GeneratedAt))
	assert.False(t, first.IsStale(testNow), "stale bundles are replaced, not mutated")
}

func TestBundleService_InvalidatedByStrongSignal(t *testing.T) {
	f := newFixture()
	p := f.product("p", "books", "Acme", 10, 5)
	e := f.engine()
	u := uuid.New()
	ctx := context.Background()

	first, err := e.Bundles.Get(ctx, u)
	require.NoError(t, err)

	require.NoError(t, e.Recorder.Record(ctx, u, p.ID, domain.InteractionView, nil))
	again, err := e.Bundles.Get(ctx, u)
	require.NoError(t, err)
	assert.Same(t, first, again)

	require.NoError(t, e.Recorder.Record(ctx, u, p.ID, domain.InteractionPurchase, nil))
	fresh, err := e.Bundles.Get(ctx, u)
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
}

func TestBundleService_InvalidInput(t *testing.T) {
	f := newFixture()
	_, err := f.engine().Bundles.Get(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
