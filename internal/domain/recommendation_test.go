package domain

import (
	"testing"
	"time"
)

func TestTimePeriod(t *testing.T) {
	tests := []struct {
		period   TimePeriod
		window   time.Duration
		momentum float64
	}{
		{PeriodHour, time.Hour, 2},
		{PeriodDay, 24 * time.Hour, 1.5},
		{PeriodWeek, 7 * 24 * time.Hour, 1},
		{PeriodMonth, 30 * 24 * time.Hour, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			if !ValidTimePeriod(string(tt.period)) {
				t.Fatalf("expected %q to be valid", tt.period)
			}
			if got := tt.period.Window(); got != tt.window {
				t.Errorf("Window() = %v, want %v", got, tt.window)
			}
			if got := tt.period.Momentum(); got != tt.momentum {
				t.Errorf("Momentum() = %v, want %v", got, tt.momentum)
			}
		})
	}

	for _, bad := range []string{"", "2h", "1d", "week"} {
		if ValidTimePeriod(bad) {
			t.Errorf("expected %q to be invalid", bad)
		}
	}
}

func TestInteractionType_IsStrongSignal(t *testing.T) {
	strong := map[InteractionType]bool{
		InteractionPurchase:   true,
		InteractionCart:       true,
		InteractionWishlist:   true,
		InteractionView:       false,
		InteractionImpression: false,
		InteractionClick:      false,
	}
	for it, want := range strong {
		if got := it.IsStrongSignal(); got != want {
			t.Errorf("%s.IsStrongSignal() = %v, want %v", it, got, want)
		}
		if !ValidInteractionType(string(it)) {
			t.Errorf("expected %s to be a valid interaction type", it)
		}
	}
	if ValidInteractionType("like") {
		t.Error("expected like to be invalid")
	}
}

func TestInteractionData_Validate(t *testing.T) {
	score := 0.7
	tooHigh := 1.2

	tests := []struct {
		name    string
		data    *InteractionData
		wantErr bool
	}{
		{"nil", nil, false},
		{"empty", &InteractionData{}, false},
		{"known fields", &InteractionData{Algorithm: AlgorithmTrending, Score: &score, Category: "shoes"}, false},
		{"unknown algorithm", &InteractionData{Algorithm: "matrix"}, true},
		{"score out of range", &InteractionData{Score: &tooHigh}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWeights_For(t *testing.T) {
	w := DefaultWeights()
	if w.For(AlgorithmCollaborative) != 0.3 || w.For(AlgorithmContent) != 0.3 {
		t.Errorf("unexpected default personal weights: %+v", w)
	}
	if w.For(AlgorithmTrending) != 0.2 || w.For(AlgorithmSimilarity) != 0.2 {
		t.Errorf("unexpected default global weights: %+v", w)
	}
	if w.For(AlgorithmHybrid) != 0 {
		t.Error("hybrid has no weight of its own")
	}
}

func TestPreferenceProfile_TopKeys(t *testing.T) {
	p := &PreferenceProfile{
		CategoryScores:   map[string]float64{"shoes": 5, "bags": 9, "hats": 5, "belts": 1},
		InteractionCount: 4,
	}

	got := p.TopCategories(3)
	want := []string{"bags", "hats", "shoes"}
	if len(got) != len(want) {
		t.Fatalf("TopCategories(3) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TopCategories(3)[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if p.MaxCategory() != 9 {
		t.Errorf("MaxCategory() = %v, want 9", p.MaxCategory())
	}
	if p.MaxBrand() != 0 {
		t.Errorf("MaxBrand() on empty map = %v, want 0", p.MaxBrand())
	}
}

func TestPriceBand(t *testing.T) {
	b := PriceBand{Min: 100, Max: 200}
	if !b.Contains(100) || !b.Contains(200) || b.Contains(201) {
		t.Errorf("Contains is not inclusive of bounds: %+v", b)
	}
	w := b.Widen(0.2)
	if w.Min != 80 || w.Max != 240 {
		t.Errorf("Widen(0.2) = %+v, want {80 240}", w)
	}
}

func TestPersonalizedBundle_IsStale(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := &PersonalizedBundle{GeneratedAt: now, ExpiresAt: now.Add(time.Hour)}

	if b.IsStale(now.Add(30 * time.Minute)) {
		t.Error("bundle should be fresh within its TTL")
	}
	if !b.IsStale(now.Add(61 * time.Minute)) {
		t.Error("bundle should be stale after its TTL")
	}
	var nilBundle *PersonalizedBundle
	if !nilBundle.IsStale(now) {
		t.Error("nil bundle is always stale")
	}
}
