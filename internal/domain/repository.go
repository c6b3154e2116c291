package domain

import "context"

// VocabularyKind distinguishes the two fuzzy-match vocabularies.
type VocabularyKind string

const (
	KindCategory VocabularyKind = "categories"
	KindProduct  VocabularyKind = "products"
)

// CatalogRepository exposes read/join/mutate operations over the inventory and
// shop datasets while keeping them mutually consistent.
type CatalogRepository interface {
	// Candidates inner-joins inventory rows for the product with their shop
	// rows. Empty slice when no shop stocks the product.
	Candidates(product string) []Candidate

	// ProductsInCategory returns the distinct product names whose inventory
	// rows carry the category, in first-seen row order.
	ProductsInCategory(category string) []string

	// Products returns the distinct product vocabulary in row order.
	Products() []string

	// Categories returns the distinct category vocabulary in row order.
	Categories() []string

	// Commit applies each entry (stock -1 floored at 0, shop queue +1),
	// back-fills NewTokenNumber with the post-increment queue size, then
	// persists both datasets in full. Over-decrement is clamped, never an
	// error; only storage I/O failures propagate.
	Commit(entries Path) (Path, error)
}

// TrainingRepository is the persistent memo of accepted fuzzy matches.
// Entries are append-only: once a (query, kind) pair is recorded it is pinned
// and never overwritten by later matches.
type TrainingRepository interface {
	Lookup(query string, kind VocabularyKind) (string, bool)
	Record(query string, kind VocabularyKind, canonical string) error
}

// TextParser turns free text into ordered category/item pairs. Implementations
// sit in front of an external collaborator (an LLM) and must fail loudly
// rather than return an empty mapping.
type TextParser interface {
	ParseItems(ctx context.Context, text string) ([]RequestItem, error)
}
