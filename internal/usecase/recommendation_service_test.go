package usecase

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/shoproute/backend/internal/domain"
	"github.com/shoproute/backend/internal/infrastructure/catalogcsv"
	"github.com/shoproute/backend/internal/infrastructure/trainingstore"
)

const testInventoryCSV = `shopId,productName,category,stockAvailability
S1,lobster,meat,5
S2,lobster,meat,3
S3,chicken,meat,10
S4,mens haircut,grooming,8
S5,mens haircut,grooming,2
S1,shampoo,beauty,4
S6,shampoo,beauty,0
`

const testShopsCSV = `shopId,store,latitude,longitude,rating,price,queue_size
S1,Ocean Fresh,20.3500,85.8200,4.8,120,4
S2,Harbor Mart,20.3000,85.8000,4.5,100,1
S3,Meat Hub,20.3600,85.8100,4.2,90,2
S4,Style Studio,20.3400,85.8200,4.9,150,3
S5,Quick Cuts,20.3300,85.8100,4.0,60,0
S6,Corner Store,20.3200,85.8300,3.9,40,7
`

// newTestEngine wires a real CSV catalog and training store from fixture
// files in a temp dir, so evaluations exercise the full join/commit/persist
// path.
func newTestEngine(t *testing.T) (*RecommendationService, *catalogcsv.Store) {
	t.Helper()
	dir := t.TempDir()

	inventoryPath := filepath.Join(dir, "inventory.csv")
	shopsPath := filepath.Join(dir, "shops.csv")
	if err := os.WriteFile(inventoryPath, []byte(testInventoryCSV), 0o644); err != nil {
		t.Fatalf("writing inventory fixture: %v", err)
	}
	if err := os.WriteFile(shopsPath, []byte(testShopsCSV), 0o644); err != nil {
		t.Fatalf("writing shops fixture: %v", err)
	}

	catalog, err := catalogcsv.Load(inventoryPath, shopsPath, nil)
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}

	training := trainingstore.Load(filepath.Join(dir, "fuzzy_training.json"), nil)
	matcher := NewMatcherService(training, MatcherConfig{}, nil)

	return NewRecommendationService(catalog, matcher, RecommendationConfig{}, nil), catalog
}

func lobsterHaircutRequest() domain.EvaluateRequest {
	return domain.EvaluateRequest{
		Items: []domain.RequestItem{
			{Category: "meat", ProductQuery: "lobster"},
			{Category: "grooming", ProductQuery: "mens harcut"},
		},
		FilterChoice:  domain.FilterTime,
		SelectionType: "categorical",
		UserLocation:  domain.Location{Lat: 20.3488, Lon: 85.8162},
	}
}

func TestEvaluate_EndToEnd(t *testing.T) {
	engine, _ := newTestEngine(t)

	result, err := engine.Evaluate(context.Background(), lobsterHaircutRequest())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if len(result.PossiblePaths) != 5 {
		t.Fatalf("len(PossiblePaths) = %d, want 5", len(result.PossiblePaths))
	}
	if result.NoValidPath() {
		t.Fatalf("expected a valid path, got message %q", result.Message)
	}
	if result.EvaluationType != "categorical" {
		t.Errorf("EvaluationType = %q, want categorical", result.EvaluationType)
	}

	if len(result.SelectedPath) != 2 {
		t.Fatalf("len(SelectedPath) = %d, want 2", len(result.SelectedPath))
	}

	// Best-rated lobster shop is S1 (4.8), best-rated barber is S4 (4.9)
	byProduct := map[string]domain.PathEntry{}
	for _, entry := range result.SelectedPath {
		byProduct[entry.Product] = entry
		if entry.NewTokenNumber == 0 {
			t.Errorf("entry %s has no token number after commit", entry.Product)
		}
		if entry.Distance <= 0 {
			t.Errorf("entry %s has no computed distance", entry.Product)
		}
	}
	if byProduct["lobster"].ShopID != "S1" {
		t.Errorf("lobster shop = %s, want S1", byProduct["lobster"].ShopID)
	}
	if byProduct["mens haircut"].ShopID != "S4" {
		t.Errorf("haircut shop = %s, want S4", byProduct["mens haircut"].ShopID)
	}

	// Token numbers are the post-increment queue sizes: S1 4->5, S4 3->4
	if got := byProduct["lobster"].NewTokenNumber; got != 5 {
		t.Errorf("lobster token = %d, want 5", got)
	}
	if got := byProduct["mens haircut"].NewTokenNumber; got != 4 {
		t.Errorf("haircut token = %d, want 4", got)
	}

	// The misspelled "mens harcut" resolved against the catalog
	for _, outcome := range result.MatchOutcomes {
		if outcome.Kind != domain.OutcomeMatched {
			t.Errorf("outcome for %v = %s, want matched", outcome.Query, outcome.Kind)
		}
	}
}

func TestEvaluate_GibberishYieldsEmptyPaths(t *testing.T) {
	engine, _ := newTestEngine(t)

	result, err := engine.Evaluate(context.Background(), domain.EvaluateRequest{
		Items: []domain.RequestItem{
			{Category: "xqzzv", ProductQuery: "qqqqq"},
			{Category: "wwwww", ProductQuery: "vvvvv"},
		},
		FilterChoice: domain.FilterTime,
		UserLocation: domain.Location{Lat: 20.3488, Lon: 85.8162},
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if !result.NoValidPath() {
		t.Fatal("expected no-valid-path result")
	}
	if result.Message == "" {
		t.Error("no-valid-path result must carry a message")
	}
	if len(result.PossiblePaths) != 5 {
		t.Fatalf("len(PossiblePaths) = %d, want 5 empty paths", len(result.PossiblePaths))
	}
	for i, path := range result.PossiblePaths {
		if len(path) != 0 {
			t.Errorf("path %d has %d entries, want 0", i, len(path))
		}
	}
	for _, outcome := range result.MatchOutcomes {
		if outcome.Kind != domain.OutcomeUnmatched {
			t.Errorf("outcome = %s, want unmatched", outcome.Kind)
		}
	}
}

func TestEvaluate_DuplicateCategoryFirstWins(t *testing.T) {
	engine, _ := newTestEngine(t)

	result, err := engine.Evaluate(context.Background(), domain.EvaluateRequest{
		Items: []domain.RequestItem{
			{Category: "meat", ProductQuery: "lobster"},
			{Category: "Meat", ProductQuery: "chicken"}, // same canonical category
		},
		FilterChoice: domain.FilterRating,
		UserLocation: domain.Location{Lat: 20.3488, Lon: 85.8162},
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if len(result.SelectedPath) != 1 {
		t.Fatalf("len(SelectedPath) = %d, want 1 (chicken dropped)", len(result.SelectedPath))
	}
	if result.SelectedPath[0].Product != "lobster" {
		t.Errorf("surviving product = %q, want lobster", result.SelectedPath[0].Product)
	}

	kinds := []domain.MatchOutcomeKind{}
	for _, o := range result.MatchOutcomes {
		kinds = append(kinds, o.Kind)
	}
	want := []domain.MatchOutcomeKind{domain.OutcomeMatched, domain.OutcomeDropped}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("outcome %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestEvaluate_NoShopRepeatedWithinPath(t *testing.T) {
	engine, _ := newTestEngine(t)

	// S1 is both the best lobster shop and the best shampoo shop; shampoo
	// must fall back to S6 or drop out rather than reuse S1
	result, err := engine.Evaluate(context.Background(), domain.EvaluateRequest{
		Items: []domain.RequestItem{
			{Category: "meat", ProductQuery: "lobster"},
			{Category: "beauty", ProductQuery: "shampoo"},
		},
		FilterChoice: domain.FilterRating,
		UserLocation: domain.Location{Lat: 20.3488, Lon: 85.8162},
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	for i, path := range result.PossiblePaths {
		seen := map[string]bool{}
		for _, entry := range path {
			if seen[entry.ShopID] {
				t.Errorf("path %d repeats shop %s", i, entry.ShopID)
			}
			seen[entry.ShopID] = true
		}
	}

	byProduct := map[string]string{}
	for _, entry := range result.SelectedPath {
		byProduct[entry.Product] = entry.ShopID
	}
	if byProduct["lobster"] != "S1" {
		t.Errorf("lobster shop = %s, want S1", byProduct["lobster"])
	}
	if byProduct["shampoo"] != "S6" {
		t.Errorf("shampoo shop = %s, want S6 (S1 already used)", byProduct["shampoo"])
	}
}

func TestEvaluate_DoubleCommitAppliesTwice(t *testing.T) {
	engine, catalog := newTestEngine(t)
	req := lobsterHaircutRequest()

	first, err := engine.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("first Evaluate() error = %v", err)
	}
	second, err := engine.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("second Evaluate() error = %v", err)
	}

	// Queue keeps growing: the mutation is never cached
	if first.SelectedPath[0].NewTokenNumber+1 != second.SelectedPath[0].NewTokenNumber {
		t.Errorf("token numbers %d then %d, want consecutive",
			first.SelectedPath[0].NewTokenNumber, second.SelectedPath[0].NewTokenNumber)
	}

	// S1 queue 4 -> 6 after two commits
	for _, candidate := range catalog.Candidates("lobster") {
		if candidate.ShopID == "S1" && candidate.QueueSize != 6 {
			t.Errorf("S1 queue = %d, want 6 after two commits", candidate.QueueSize)
		}
	}
}

func TestEvaluate_InvalidInput(t *testing.T) {
	engine, _ := newTestEngine(t)

	tests := []struct {
		name string
		req  domain.EvaluateRequest
	}{
		{
			name: "no items",
			req:  domain.EvaluateRequest{UserLocation: domain.Location{Lat: 1, Lon: 1}},
		},
		{
			name: "path index out of range",
			req: domain.EvaluateRequest{
				Items:             []domain.RequestItem{{Category: "meat", ProductQuery: "lobster"}},
				UserLocation:      domain.Location{Lat: 1, Lon: 1},
				SelectedPathIndex: 7,
			},
		},
		{
			name: "negative path index",
			req: domain.EvaluateRequest{
				Items:             []domain.RequestItem{{Category: "meat", ProductQuery: "lobster"}},
				UserLocation:      domain.Location{Lat: 1, Lon: 1},
				SelectedPathIndex: -1,
			},
		},
		{
			name: "NaN coordinate",
			req: domain.EvaluateRequest{
				Items:        []domain.RequestItem{{Category: "meat", ProductQuery: "lobster"}},
				UserLocation: domain.Location{Lat: math.NaN(), Lon: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Evaluate(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestApplyFilter(t *testing.T) {
	candidates := []domain.Candidate{
		{ShopID: "A", Rating: 4.0, Price: 90, QueueSize: 5},
		{ShopID: "B", Rating: 4.8, Price: 120, QueueSize: 1},
		{ShopID: "C", Rating: 4.5, Price: 60, QueueSize: 3},
	}

	clone := func() []domain.Candidate {
		c := make([]domain.Candidate, len(candidates))
		copy(c, candidates)
		return c
	}

	t.Run("time sorts ascending by queue", func(t *testing.T) {
		sorted := applyFilter(clone(), domain.FilterTime)
		for i := 1; i < len(sorted); i++ {
			if sorted[i-1].QueueSize > sorted[i].QueueSize {
				t.Fatalf("queue not ascending: %+v", sorted)
			}
		}
	})

	t.Run("price sorts ascending by price", func(t *testing.T) {
		sorted := applyFilter(clone(), domain.FilterPrice)
		for i := 1; i < len(sorted); i++ {
			if sorted[i-1].Price > sorted[i].Price {
				t.Fatalf("price not ascending: %+v", sorted)
			}
		}
	})

	t.Run("anything else sorts descending by rating", func(t *testing.T) {
		sorted := applyFilter(clone(), domain.FilterChoice("other"))
		for i := 1; i < len(sorted); i++ {
			if sorted[i-1].Rating < sorted[i].Rating {
				t.Fatalf("rating not descending: %+v", sorted)
			}
		}
	})
}

func TestEvaluate_CategoryRestrictedFallback(t *testing.T) {
	engine, _ := newTestEngine(t)

	// "crab legs" misses the global product vocabulary but the category
	// resolves, so the best guess within "meat" is used
	result, err := engine.Evaluate(context.Background(), domain.EvaluateRequest{
		Items: []domain.RequestItem{
			{Category: "meat", ProductQuery: "crab legs"},
		},
		FilterChoice: domain.FilterRating,
		UserLocation: domain.Location{Lat: 20.3488, Lon: 85.8162},
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if result.NoValidPath() {
		t.Fatal("expected fallback match to produce a path")
	}
	product := result.SelectedPath[0].Product
	if product != "lobster" && product != "chicken" {
		t.Errorf("fallback product = %q, want a meat-category product", product)
	}
}
