// Package trainingstore persists accepted fuzzy matches to a JSON file so
// that a mapping, once accepted, survives restarts and is never re-scored.
package trainingstore

import (
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/shoproute/backend/internal/domain"
)

// trainingData is the on-disk shape: one inner mapping per vocabulary kind,
// each from raw query string to canonical term.
type trainingData struct {
	Categories map[string]string `json:"categories"`
	Products   map[string]string `json:"products"`
}

// Store is a file-backed training cache. Entries are append-only: Record
// never overwrites an existing key, so accepted mappings are pinned forever.
type Store struct {
	mu     sync.Mutex
	path   string
	data   trainingData
	logger *zap.Logger
}

// Load reads the training file. A missing or malformed file is not an error;
// the cache simply starts empty and is rebuilt as matches are accepted.
func Load(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	data := trainingData{
		Categories: make(map[string]string),
		Products:   make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(raw, &data); err != nil {
			logger.Warn("training file malformed, starting empty",
				zap.String("path", path), zap.Error(err))
			data = trainingData{
				Categories: make(map[string]string),
				Products:   make(map[string]string),
			}
		}
	} else if !os.IsNotExist(err) {
		logger.Warn("training file unreadable, starting empty",
			zap.String("path", path), zap.Error(err))
	}

	// Guard against a file that carried only one of the two mappings
	if data.Categories == nil {
		data.Categories = make(map[string]string)
	}
	if data.Products == nil {
		data.Products = make(map[string]string)
	}

	logger.Info("training cache loaded",
		zap.String("path", path),
		zap.Int("categories", len(data.Categories)),
		zap.Int("products", len(data.Products)))

	return &Store{path: path, data: data, logger: logger}
}

// Lookup returns the pinned canonical term for (query, kind), if any.
func (s *Store) Lookup(query string, kind domain.VocabularyKind) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	term, ok := s.bucket(kind)[query]
	return term, ok
}

// Record pins (query, kind) to the canonical term and rewrites the file in
// full. An already-recorded key is left untouched; the file is still
// rewritten, matching the always-persist behavior on accepted matches.
func (s *Store) Record(query string, kind domain.VocabularyKind, canonical string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.bucket(kind)
	if _, exists := bucket[query]; !exists {
		bucket[query] = canonical
	}

	raw, err := json.MarshalIndent(s.data, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (s *Store) bucket(kind domain.VocabularyKind) map[string]string {
	if kind == domain.KindCategory {
		return s.data.Categories
	}
	return s.data.Products
}
