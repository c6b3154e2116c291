package domain

// InventoryRecord is one row of the inventory dataset: a single product carried
// by a single shop.
type InventoryRecord struct {
	ShopID            string `csv:"shopId" json:"shopId"`
	ProductName       string `csv:"productName" json:"productName"`
	Category          string `csv:"category" json:"category"`
	StockAvailability int    `csv:"stockAvailability" json:"stockAvailability"`
}

// ShopRecord is one row of the shop dataset.
type ShopRecord struct {
	ShopID    string  `csv:"shopId" json:"shopId"`
	Store     string  `csv:"store" json:"store"`
	Latitude  float64 `csv:"latitude" json:"latitude"`
	Longitude float64 `csv:"longitude" json:"longitude"`
	Rating    float64 `csv:"rating" json:"rating"`
	Price     float64 `csv:"price" json:"price"`
	QueueSize int     `csv:"queue_size" json:"queue_size"`
}

// Candidate joins an inventory row with its shop row and the computed distance
// from the caller. Candidates are recomputed per request and never persisted.
type Candidate struct {
	ShopID    string
	Product   string
	Store     string
	Rating    float64
	Price     float64
	QueueSize int
	Latitude  float64
	Longitude float64
	Distance  float64 // meters from the caller's location
}

// PathEntry is one shop visit inside a shopping path. NewTokenNumber is zero
// until the entry has been committed, after which it holds the shop's
// post-increment queue position.
type PathEntry struct {
	ShopID         string  `json:"shopId"`
	Product        string  `json:"product"`
	Store          string  `json:"store"`
	Rating         float64 `json:"rating"`
	Price          float64 `json:"price"`
	Distance       float64 `json:"distance"`
	QueueSize      int     `json:"queue_size"`
	Lat            float64 `json:"lat"`
	Long           float64 `json:"long"`
	NewTokenNumber int     `json:"new_token_number,omitempty"`
}

// Path is an ordered shopping itinerary: at most one entry per shop and one
// entry per requested product.
type Path []PathEntry

// ContainsShop reports whether the path already visits the given shop.
func (p Path) ContainsShop(shopID string) bool {
	for _, e := range p {
		if e.ShopID == shopID {
			return true
		}
	}
	return false
}
