package usecase

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/shoproute/backend/internal/domain"
)

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// defaultMatchThreshold is the minimum token-sort similarity (0-100) a
// vocabulary entry must score to be accepted as a match.
const defaultMatchThreshold = 75.0

// MatcherConfig holds configuration for the matcher service
type MatcherConfig struct {
	Threshold float64
}

// MatcherService resolves noisy input strings to canonical catalog terms,
// backed by a persistent training cache of previously accepted matches.
type MatcherService struct {
	training  domain.TrainingRepository
	threshold float64
	logger    *zap.Logger
}

// NewMatcherService creates a matcher service with the given configuration
func NewMatcherService(training domain.TrainingRepository, config MatcherConfig, logger *zap.Logger) *MatcherService {
	threshold := config.Threshold
	if threshold <= 0 {
		threshold = defaultMatchThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MatcherService{
		training:  training,
		threshold: threshold,
		logger:    logger,
	}
}

// Resolve maps query to the closest vocabulary entry.
//
// A training-cache hit returns the pinned term immediately without scoring:
// once a mapping has been accepted it never changes, regardless of later
// vocabulary edits. Otherwise the best-scoring entry wins (ties resolve by
// vocabulary order), is recorded into the training cache when it meets the
// threshold, and a sub-threshold best is reported as no match with no cache
// write. The returned error is only non-nil when the cache write fails.
func (s *MatcherService) Resolve(query string, vocabulary []string, kind domain.VocabularyKind) (string, bool, error) {
	if cached, ok := s.training.Lookup(query, kind); ok {
		s.logger.Debug("fuzzy cache hit",
			zap.String("query", query),
			zap.String("kind", string(kind)),
			zap.String("term", cached))
		return cached, true, nil
	}

	match, score, ok := s.BestMatch(query, vocabulary)
	if !ok || score < s.threshold {
		s.logger.Debug("fuzzy miss",
			zap.String("query", query),
			zap.String("kind", string(kind)),
			zap.Float64("best_score", score))
		return "", false, nil
	}

	if err := s.training.Record(query, kind, match); err != nil {
		return "", false, err
	}

	s.logger.Debug("fuzzy match accepted",
		zap.String("query", query),
		zap.String("kind", string(kind)),
		zap.String("term", match),
		zap.Float64("score", score))
	return match, true, nil
}

// BestMatch returns the highest token-sort-ratio vocabulary entry regardless
// of threshold, with its score. It never touches the training cache; the
// engine uses it for the category-restricted product fallback where any best
// guess is better than none. ok is false only for an empty vocabulary.
func (s *MatcherService) BestMatch(query string, vocabulary []string) (string, float64, bool) {
	var (
		best      string
		bestScore = -1.0
	)
	for _, term := range vocabulary {
		// Strictly-greater keeps the first-seen entry on ties.
		if score := TokenSortRatio(query, term); score > bestScore {
			bestScore = score
			best = term
		}
	}
	if bestScore < 0 {
		return "", 0, false
	}
	return best, bestScore, true
}

// TokenSortRatio scores the similarity of two strings on a 0-100 scale,
// insensitive to token order: each string is lowercased, stripped of
// punctuation, its whitespace-delimited tokens sorted and rejoined, then the
// normalized Levenshtein similarity of the two sorted-token strings is taken.
func TokenSortRatio(a, b string) float64 {
	sa := sortTokens(a)
	sb := sortTokens(b)

	if sa == "" && sb == "" {
		return 100
	}

	longest := len(sa)
	if len(sb) > longest {
		longest = len(sb)
	}
	if longest == 0 {
		return 100
	}

	dist := levenshteinDistance(sa, sb)
	return (1 - float64(dist)/float64(longest)) * 100
}

// sortTokens normalizes a string for order-insensitive comparison
func sortTokens(s string) string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")
	tokens := strings.Fields(cleaned)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
