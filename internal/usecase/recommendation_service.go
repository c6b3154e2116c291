package usecase

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/shoproute/backend/internal/domain"
)

const (
	// defaultTopShops caps each product's candidate list before and after
	// the filter re-sort.
	defaultTopShops = 10
	// defaultPathCount is how many candidate paths the generator attempts.
	// Paths are not guaranteed distinct; callers index into them, so the
	// count and ordering are part of the contract.
	defaultPathCount = 5
)

// noValidPathMessage mirrors the caller-facing no-result contract.
const noValidPathMessage = "No valid shop path found."

// RecommendationConfig holds configuration for the recommendation service
type RecommendationConfig struct {
	TopShops  int
	PathCount int
}

// RecommendationService orchestrates the request-to-response pipeline:
// fuzzy matching, candidate retrieval, filtering, path generation, path
// selection, and the commit of the chosen path's effect on catalog state.
type RecommendationService struct {
	catalog   domain.CatalogRepository
	matcher   *MatcherService
	topShops  int
	pathCount int
	logger    *zap.Logger
}

// productCandidates pairs a matched product with its filtered candidate shops,
// preserving the order products were matched in.
type productCandidates struct {
	product    string
	candidates []domain.Candidate
}

// NewRecommendationService creates a recommendation service with dependencies
func NewRecommendationService(
	catalog domain.CatalogRepository,
	matcher *MatcherService,
	config RecommendationConfig,
	logger *zap.Logger,
) *RecommendationService {
	topShops := config.TopShops
	if topShops <= 0 {
		topShops = defaultTopShops
	}
	pathCount := config.PathCount
	if pathCount <= 0 {
		pathCount = defaultPathCount
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RecommendationService{
		catalog:   catalog,
		matcher:   matcher,
		topShops:  topShops,
		pathCount: pathCount,
		logger:    logger,
	}
}

// Evaluate runs the full pipeline for one request.
//
// Unmatched items, empty candidate sets, and category collisions are policy
// drops surfaced in MatchOutcomes, not errors. The only errors are invalid
// input (checked before any catalog access) and storage I/O failures from the
// training cache or the commit.
func (s *RecommendationService) Evaluate(ctx context.Context, req domain.EvaluateRequest) (*domain.EvaluationResult, error) {
	if err := validateRequest(req, s.pathCount); err != nil {
		return nil, err
	}

	matched, outcomes, err := s.matchItems(req.Items)
	if err != nil {
		return nil, err
	}

	recommendations, err := s.collectCandidates(ctx, matched, req.UserLocation, req.FilterChoice)
	if err != nil {
		return nil, err
	}

	paths := s.generatePaths(recommendations)

	if len(paths) == 0 || len(paths[req.SelectedPathIndex]) == 0 {
		s.logger.Info("no valid shop path",
			zap.Int("items", len(req.Items)),
			zap.Int("matched", len(matched)))
		return &domain.EvaluationResult{
			Message:       noValidPathMessage,
			PossiblePaths: paths,
			MatchOutcomes: outcomes,
		}, nil
	}

	committed, err := s.catalog.Commit(paths[req.SelectedPathIndex])
	if err != nil {
		return nil, err
	}
	// The selected path and its possible_paths slot are the same entries,
	// so the committed token numbers show up in both.
	paths[req.SelectedPathIndex] = committed

	s.logger.Info("path committed",
		zap.Int("stops", len(committed)),
		zap.Int("path_index", req.SelectedPathIndex),
		zap.String("selection_type", req.SelectionType))

	return &domain.EvaluationResult{
		SelectedPath:   committed,
		PossiblePaths:  paths,
		EvaluationType: req.SelectionType,
		MatchOutcomes:  outcomes,
	}, nil
}

// validateRequest rejects malformed input before any catalog access
func validateRequest(req domain.EvaluateRequest, pathCount int) error {
	if len(req.Items) == 0 {
		return domain.ErrInvalidRequest
	}
	if req.SelectedPathIndex < 0 || req.SelectedPathIndex >= pathCount {
		return domain.ErrInvalidRequest
	}
	for _, v := range []float64{req.UserLocation.Lat, req.UserLocation.Lon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.ErrInvalidRequest
		}
	}
	return nil
}

// matchItems resolves every request item against the category and product
// vocabularies. The product gets a second, category-restricted attempt when
// the global match fails: a narrower vocabulary helps when the item name alone
// is ambiguous across categories. Later items resolving to an already-claimed
// canonical category are dropped, first occurrence wins.
func (s *RecommendationService) matchItems(items []domain.RequestItem) ([]domain.MatchedItem, []domain.MatchOutcome, error) {
	categories := s.catalog.Categories()
	products := s.catalog.Products()

	var matched []domain.MatchedItem
	outcomes := make([]domain.MatchOutcome, 0, len(items))
	claimed := make(map[string]bool)

	for _, item := range items {
		category, catOK, err := s.matcher.Resolve(item.Category, categories, domain.KindCategory)
		if err != nil {
			return nil, nil, err
		}

		product, prodOK, err := s.matcher.Resolve(item.ProductQuery, products, domain.KindProduct)
		if err != nil {
			return nil, nil, err
		}
		if !prodOK && catOK {
			if pool := s.catalog.ProductsInCategory(category); len(pool) > 0 {
				product, _, prodOK = s.matcher.BestMatch(item.ProductQuery, pool)
			}
		}

		switch {
		case !catOK || !prodOK:
			outcomes = append(outcomes, domain.MatchOutcome{
				Kind:     domain.OutcomeUnmatched,
				Query:    item,
				Category: category,
			})
		case claimed[category]:
			outcomes = append(outcomes, domain.MatchOutcome{
				Kind:     domain.OutcomeDropped,
				Query:    item,
				Category: category,
				Product:  product,
			})
		default:
			claimed[category] = true
			matched = append(matched, domain.MatchedItem{Category: category, Product: product})
			outcomes = append(outcomes, domain.MatchOutcome{
				Kind:     domain.OutcomeMatched,
				Query:    item,
				Category: category,
				Product:  product,
			})
		}
	}

	return matched, outcomes, nil
}

// collectCandidates retrieves and ranks candidate shops per matched product.
// Each product's candidates get a computed distance from the caller, are cut
// to the top-rated shops, then re-sorted by the requested filter. Products
// nobody stocks are omitted without error.
func (s *RecommendationService) collectCandidates(
	ctx context.Context,
	matched []domain.MatchedItem,
	location domain.Location,
	filter domain.FilterChoice,
) ([]productCandidates, error) {
	recommendations := make([]productCandidates, 0, len(matched))

	for _, item := range matched {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		candidates := s.catalog.Candidates(item.Product)
		if len(candidates) == 0 {
			s.logger.Debug("no shop stocks product", zap.String("product", item.Product))
			continue
		}

		for i := range candidates {
			candidates[i].Distance = Haversine(
				location.Lat, location.Lon,
				candidates[i].Latitude, candidates[i].Longitude,
			)
		}

		sortByRating(candidates)
		candidates = top(candidates, s.topShops)
		candidates = applyFilter(candidates, filter)
		candidates = top(candidates, s.topShops)

		recommendations = append(recommendations, productCandidates{
			product:    item.Product,
			candidates: candidates,
		})
	}

	return recommendations, nil
}

// applyFilter re-sorts a candidate set by the caller's preference
func applyFilter(candidates []domain.Candidate, filter domain.FilterChoice) []domain.Candidate {
	switch filter {
	case domain.FilterTime:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].QueueSize < candidates[j].QueueSize
		})
	case domain.FilterPrice:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Price < candidates[j].Price
		})
	default:
		sortByRating(candidates)
	}
	return candidates
}

// sortByRating orders candidates best-rated first, stable so equal ratings
// keep their join order
func sortByRating(candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Rating > candidates[j].Rating
	})
}

// top truncates without copying
func top(candidates []domain.Candidate, n int) []domain.Candidate {
	if len(candidates) > n {
		return candidates[:n]
	}
	return candidates
}

// generatePaths builds exactly pathCount greedy paths. Each path walks the
// matched products in order and takes the highest-rated candidate whose shop
// the path has not visited yet; a product with no remaining candidate is
// omitted from that path. Cross-path shop reuse is allowed, so when fewer
// distinct top combinations exist the generator yields duplicate paths;
// callers select paths by index, so the count never shrinks.
func (s *RecommendationService) generatePaths(recommendations []productCandidates) []domain.Path {
	paths := make([]domain.Path, 0, s.pathCount)

	for i := 0; i < s.pathCount; i++ {
		path := domain.Path{}
		usedShops := make(map[string]bool)

		for _, rec := range recommendations {
			ranked := make([]domain.Candidate, len(rec.candidates))
			copy(ranked, rec.candidates)
			sortByRating(ranked)

			for _, candidate := range ranked {
				if usedShops[candidate.ShopID] {
					continue
				}
				usedShops[candidate.ShopID] = true
				path = append(path, domain.PathEntry{
					ShopID:    candidate.ShopID,
					Product:   rec.product,
					Store:     candidate.Store,
					Rating:    candidate.Rating,
					Price:     candidate.Price,
					Distance:  candidate.Distance,
					QueueSize: candidate.QueueSize,
					Lat:       candidate.Latitude,
					Long:      candidate.Longitude,
				})
				break
			}
		}

		paths = append(paths, path)
	}

	return paths
}
