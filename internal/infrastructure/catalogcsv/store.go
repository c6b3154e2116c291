// Package catalogcsv keeps the inventory and shop datasets in memory, loaded
// once from CSV files at startup and written back in full on every commit.
package catalogcsv

import (
	"fmt"
	"os"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shoproute/backend/internal/domain"
)

// Store is a CSV-backed catalog store. A single mutex serializes every
// read-modify-write-persist sequence so concurrent requests cannot interleave
// commits or lose stock/queue updates.
type Store struct {
	mu            sync.Mutex
	inventoryPath string
	shopsPath     string
	inventory     []*domain.InventoryRecord
	shops         []*domain.ShopRecord
	shopsByID     map[string]*domain.ShopRecord
	logger        *zap.Logger
}

// Load reads both datasets fully into memory.
func Load(inventoryPath, shopsPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var inventory []*domain.InventoryRecord
	if err := readCSV(inventoryPath, &inventory); err != nil {
		return nil, fmt.Errorf("loading inventory: %w", err)
	}

	var shops []*domain.ShopRecord
	if err := readCSV(shopsPath, &shops); err != nil {
		return nil, fmt.Errorf("loading shop data: %w", err)
	}

	shopsByID := make(map[string]*domain.ShopRecord, len(shops))
	for _, shop := range shops {
		shopsByID[shop.ShopID] = shop
	}

	logger.Info("catalog loaded",
		zap.Int("inventory_rows", len(inventory)),
		zap.Int("shops", len(shops)),
		zap.String("inventory_path", inventoryPath),
		zap.String("shops_path", shopsPath))

	return &Store{
		inventoryPath: inventoryPath,
		shopsPath:     shopsPath,
		inventory:     inventory,
		shops:         shops,
		shopsByID:     shopsByID,
		logger:        logger,
	}, nil
}

func readCSV(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.UnmarshalFile(f, out)
}

// Candidates inner-joins inventory rows stocking the product with their shop
// rows. Inventory rows whose shop is missing from the shop dataset are
// skipped, same as an inner join would.
func (s *Store) Candidates(product string) []domain.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []domain.Candidate
	for _, row := range s.inventory {
		if row.ProductName != product {
			continue
		}
		shop, ok := s.shopsByID[row.ShopID]
		if !ok {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			ShopID:    shop.ShopID,
			Product:   row.ProductName,
			Store:     shop.Store,
			Rating:    shop.Rating,
			Price:     shop.Price,
			QueueSize: shop.QueueSize,
			Latitude:  shop.Latitude,
			Longitude: shop.Longitude,
		})
	}
	return candidates
}

// ProductsInCategory returns the distinct product names carried under the
// category, in first-seen row order.
func (s *Store) ProductsInCategory(category string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var products []string
	seen := make(map[string]bool)
	for _, row := range s.inventory {
		if row.Category != category || seen[row.ProductName] {
			continue
		}
		seen[row.ProductName] = true
		products = append(products, row.ProductName)
	}
	return products
}

// Products returns the distinct product vocabulary in row order.
func (s *Store) Products() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var products []string
	seen := make(map[string]bool)
	for _, row := range s.inventory {
		if seen[row.ProductName] {
			continue
		}
		seen[row.ProductName] = true
		products = append(products, row.ProductName)
	}
	return products
}

// Categories returns the distinct category vocabulary in row order. The shop
// dataset carries no category column; categories live on inventory rows.
func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var categories []string
	seen := make(map[string]bool)
	for _, row := range s.inventory {
		if seen[row.Category] {
			continue
		}
		seen[row.Category] = true
		categories = append(categories, row.Category)
	}
	return categories
}

// Commit applies every entry against the in-memory tables, back-fills each
// entry's NewTokenNumber with the shop's post-increment queue size, then
// persists both datasets in full.
//
// Business-rule violations never fail: an already-zero stock row stays zero
// (oversold commits are clamped, not rejected). Committing the same path
// twice applies twice. Only storage write failures return an error, and no
// rollback of the in-memory mutation is attempted.
func (s *Store) Commit(entries domain.Path) (domain.Path, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batchID := uuid.NewString()

	for i := range entries {
		entry := &entries[i]

		for _, row := range s.inventory {
			if row.ShopID == entry.ShopID && row.ProductName == entry.Product {
				if row.StockAvailability > 0 {
					row.StockAvailability--
				}
				break
			}
		}

		if shop, ok := s.shopsByID[entry.ShopID]; ok {
			shop.QueueSize++
			entry.NewTokenNumber = shop.QueueSize
		}
	}

	if err := s.persistLocked(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	s.logger.Info("catalog commit persisted",
		zap.String("batch_id", batchID),
		zap.Int("entries", len(entries)))

	return entries, nil
}

// persistLocked overwrites both CSV files with the current in-memory state.
// Callers must hold the mutex.
func (s *Store) persistLocked() error {
	if err := writeCSV(s.inventoryPath, s.inventory); err != nil {
		return err
	}
	return writeCSV(s.shopsPath, s.shops)
}

func writeCSV(path string, in interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(in, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
