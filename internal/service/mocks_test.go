package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/Harshitk-cp/recommender/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: testNow}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// --- Product store ---

type mockProductStore struct {
	mu        sync.Mutex
	products  map[uuid.UUID]domain.Product
	order     []uuid.UUID
	getCalls  int
	listCalls int
	err       error
}

func newMockProductStore() *mockProductStore {
	return &mockProductStore{products: make(map[uuid.UUID]domain.Product)}
}

func (m *mockProductStore) add(p domain.Product) domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if _, ok := m.products[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.products[p.ID] = p
	return p
}

func (m *mockProductStore) get(id uuid.UUID) (domain.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	return p, ok
}

func (m *mockProductStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductStore) List(ctx context.Context, f domain.ProductFilter, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}

	ids := idSet(f.IDs)
	excluded := idSet(f.ExcludeIDs)
	categories := stringSet(f.CategoryIn)
	brands := stringSet(f.BrandIn)

	var out []domain.Product
	for _, id := range m.order {
		p := m.products[id]
		if len(ids) > 0 {
			if _, ok := ids[p.ID]; !ok {
				continue
			}
		}
		if _, ok := excluded[p.ID]; ok {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if len(categories) > 0 || len(brands) > 0 {
			_, catOK := categories[p.Category]
			_, brandOK := brands[p.Brand]
			if !catOK && !brandOK {
				continue
			}
		}
		if f.PriceMin != nil && p.Price < *f.PriceMin {
			continue
		}
		if f.PriceMax != nil && p.Price > *f.PriceMax {
			continue
		}
		if f.MinInventory > 0 && p.InventoryQuantity < f.MinInventory {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// --- Interaction store ---

type mockInteractionStore struct {
	mu          sync.Mutex
	products    *mockProductStore
	rows        []domain.Interaction
	listCalls   int
	createCalls int
	listErr     error
	createErr   error
	// lastCreateCtxErr records ctx.Err() seen by the last Create.
	lastCreateCtxErr error
}

func newMockInteractionStore(products *mockProductStore) *mockInteractionStore {
	return &mockInteractionStore{products: products}
}

func (m *mockInteractionStore) add(userID, productID uuid.UUID, t domain.InteractionType, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, domain.Interaction{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Type:      t,
		CreatedAt: at,
	})
}

func (m *mockInteractionStore) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

func (m *mockInteractionStore) Create(ctx context.Context, i *domain.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	m.lastCreateCtxErr = ctx.Err()
	if m.createErr != nil {
		return m.createErr
	}
	i.ID = uuid.New()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = testNow
	}
	m.rows = append(m.rows, *i)
	return nil
}

func (m *mockInteractionStore) List(ctx context.Context, f domain.InteractionFilter) ([]domain.InteractionWithProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}

	users := idSet(f.UserIDs)
	products := idSet(f.ProductIDs)
	excludedProducts := idSet(f.ExcludeProductIDs)
	types := make(map[domain.InteractionType]struct{}, len(f.Types))
	for _, t := range f.Types {
		types[t] = struct{}{}
	}

	var out []domain.InteractionWithProduct
	for _, i := range m.rows {
		if f.UserID != nil && i.UserID != *f.UserID {
			continue
		}
		if len(users) > 0 {
			if _, ok := users[i.UserID]; !ok {
				continue
			}
		}
		if f.ExcludeUserID != nil && i.UserID == *f.ExcludeUserID {
			continue
		}
		if len(products) > 0 {
			if _, ok := products[i.ProductID]; !ok {
				continue
			}
		}
		if _, ok := excludedProducts[i.ProductID]; ok {
			continue
		}
		if len(types) > 0 {
			if _, ok := types[i.Type]; !ok {
				continue
			}
		}
		if f.Since != nil && i.CreatedAt.Before(*f.Since) {
			continue
		}

		var p domain.Product
		if m.products != nil {
			var ok bool
			if p, ok = m.products.get(i.ProductID); !ok {
				continue
			}
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.InStockOnly && p.InventoryQuantity <= 0 {
			continue
		}
		out = append(out, domain.InteractionWithProduct{Interaction: i, Product: p})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// gate holds store reads until released. Like a database driver, a held
// read returns early when its ctx is done.
type gate struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type gatedInteractionStore struct {
	domain.InteractionStore
	gate *gate
}

func (s *gatedInteractionStore) List(ctx context.Context, f domain.InteractionFilter) ([]domain.InteractionWithProduct, error) {
	if err := s.gate.wait(ctx); err != nil {
		return nil, err
	}
	return s.InteractionStore.List(ctx, f)
}

func (s *gatedInteractionStore) Create(ctx context.Context, i *domain.Interaction) error {
	if err := s.gate.wait(ctx); err != nil {
		return err
	}
	return s.InteractionStore.Create(ctx, i)
}

type gatedProductStore struct {
	domain.ProductStore
	gate *gate
}

func (s *gatedProductStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if err := s.gate.wait(ctx); err != nil {
		return nil, err
	}
	return s.ProductStore.GetByID(ctx, id)
}

// --- Preference store ---

type mockPreferenceStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*domain.PreferenceProfile
	upserts  int
	err      error
}

func newMockPreferenceStore() *mockPreferenceStore {
	return &mockPreferenceStore{profiles: make(map[uuid.UUID]*domain.PreferenceProfile)}
}

func (m *mockPreferenceStore) Upsert(ctx context.Context, p *domain.PreferenceProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.upserts++
	m.profiles[p.UserID] = p
	return nil
}

func (m *mockPreferenceStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.PreferenceProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (m *mockPreferenceStore) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

// --- Fixtures ---

type fixture struct {
	clock        *testClock
	products     *mockProductStore
	interactions *mockInteractionStore
	preferences  *mockPreferenceStore
}

func newFixture() *fixture {
	products := newMockProductStore()
	return &fixture{
		clock:        newTestClock(),
		products:     products,
		interactions: newMockInteractionStore(products),
		preferences:  newMockPreferenceStore(),
	}
}

func (f *fixture) product(name, category, brand string, price float64, inventory int, tags ...string) domain.Product {
	return f.products.add(domain.Product{
		Name:              name,
		Category:          category,
		Brand:             brand,
		Tags:              tags,
		Price:             price,
		InventoryQuantity: inventory,
	})
}

// interact records an interaction ago before the fixture clock.
func (f *fixture) interact(userID uuid.UUID, p domain.Product, t domain.InteractionType, ago time.Duration) {
	f.interactions.add(userID, p.ID, t, f.clock.Now().Add(-ago))
}

func (f *fixture) engine() *Engine {
	return NewEngine(f.interactions, f.products, f.preferences, EngineConfig{Now: f.clock.Now}, testLogger(), NewMetrics(nil))
}

func productIDs(recs []domain.Recommendation) []uuid.UUID {
	ids := make([]uuid.UUID, len(recs))
	for i, r := range recs {
		ids[i] = r.ProductID
	}
	return ids
}

func assertSortedDesc(t interface{ Errorf(string, ...any) }, recs []domain.Recommendation) {
	for i := 1; i < len(recs); i++ {
		if recs[i].Score > recs[i-1].Score {
			t.Errorf("recommendations not sorted at %d: %.4f > %.4f", i, recs[i].Score, recs[i-1].Score)
		}
	}
}

func assertScoresBounded(t interface{ Errorf(string, ...any) }, recs []domain.Recommendation) {
	for _, r := range recs {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("score out of bounds for %s: %f", r.ProductID, r.Score)
		}
	}
}
