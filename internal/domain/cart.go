package domain

// CartLine is a cached reflection of one line in the authoritative
// cart. Nothing in it is trusted past the next successful mutation
// response; the whole snapshot is replaced wholesale.
type CartLine struct {
	Key       string `json:"key"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"price"`
	LinePrice int64  `json:"final_line_price"`
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	URL       string `json:"url"`
	Image     string `json:"image,omitempty"`
}

// CartSnapshot is the full authoritative cart state as last reported
// by the storefront API.
type CartSnapshot struct {
	Lines      []CartLine `json:"items"`
	TotalPrice int64      `json:"total_price"`
	ItemCount  int        `json:"item_count"`
}

// IsEmpty reports whether the authoritative cart has no items.
func (s *CartSnapshot) IsEmpty() bool {
	return s.ItemCount == 0
}

// Line returns the cached line with the given key, or nil.
func (s *CartSnapshot) Line(key string) *CartLine {
	for i := range s.Lines {
		if s.Lines[i].Key == key {
			return &s.Lines[i]
		}
	}
	return nil
}

// HasHandle reports whether any cart line references the product
// handle. Used to keep already-carted products out of upsells.
func (s *CartSnapshot) HasHandle(handle string) bool {
	for i := range s.Lines {
		if s.Lines[i].Handle == handle {
			return true
		}
	}
	return false
}

// ShippingProgress is the derived free-shipping state for a cart
// total, recomputed after every authoritative update.
type ShippingProgress struct {
	// Percent is clamped to [0, 100].
	Percent float64 `json:"percent"`
	// Remaining minor units until the threshold, floored at zero.
	Remaining int64 `json:"remaining"`
	// Achieved means the threshold is met and the success message applies.
	Achieved bool `json:"achieved"`
	// Message is the rendered shipping-bar text.
	Message string `json:"message"`
}

// Recommendation is one upsell candidate from the recommendations
// endpoint.
type Recommendation struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Handle string `json:"handle"`
	Image  string `json:"featured_image,omitempty"`
	Price  int64  `json:"price"`
}
