package domain

// FilterChoice selects how each product's candidate shops are re-ranked before
// path generation.
type FilterChoice string

const (
	FilterTime   FilterChoice = "time"  // ascending queue size
	FilterPrice  FilterChoice = "price" // ascending price
	FilterRating FilterChoice = "rating"
)

// RequestItem is one user-supplied shopping item: a free-text category and a
// free-text (possibly misspelled) product query. Items keep the order they
// arrived in so that category collisions resolve deterministically.
type RequestItem struct {
	Category     string `json:"category"`
	ProductQuery string `json:"name"`
}

// Location is a caller coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EvaluateRequest is the full input to the recommendation engine.
type EvaluateRequest struct {
	Items             []RequestItem
	FilterChoice      FilterChoice
	SelectionType     string
	UserLocation      Location
	SelectedPathIndex int
}

// MatchOutcomeKind tags what happened to a single request item during fuzzy
// resolution. Drops are intentional policy, not errors, so they are surfaced
// as data rather than raised.
type MatchOutcomeKind string

const (
	OutcomeMatched   MatchOutcomeKind = "matched"
	OutcomeUnmatched MatchOutcomeKind = "unmatched"
	OutcomeDropped   MatchOutcomeKind = "dropped" // canonical category already claimed
)

// MatchOutcome records the resolution result for one request item.
type MatchOutcome struct {
	Kind     MatchOutcomeKind `json:"kind"`
	Query    RequestItem      `json:"query"`
	Category string           `json:"category,omitempty"`
	Product  string           `json:"product,omitempty"`
}

// MatchedItem is a fully resolved (category, product) pair. The product is not
// guaranteed to belong to the category: the category-restricted retry only
// kicks in when the global product match fails.
type MatchedItem struct {
	Category string
	Product  string
}

// EvaluationResult is the engine's response. When no valid path exists Message
// is set, SelectedPath is empty and no state was committed; PossiblePaths is
// still populated for client-side fallback.
type EvaluationResult struct {
	Message        string         `json:"message,omitempty"`
	SelectedPath   Path           `json:"selected_path,omitempty"`
	PossiblePaths  []Path         `json:"possible_paths"`
	EvaluationType string         `json:"evaluationType,omitempty"`
	MatchOutcomes  []MatchOutcome `json:"matchOutcomes,omitempty"`
}

// NoValidPath reports whether the result is the structured no-result variant.
func (r *EvaluationResult) NoValidPath() bool {
	return len(r.SelectedPath) == 0
}
