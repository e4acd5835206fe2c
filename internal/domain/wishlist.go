package domain

import "time"

// WishlistItem is one saved product. Items are unique by ID within a
// wishlist and immutable while present; insertion order is display
// order.
type WishlistItem struct {
	ID           string    `json:"id"`
	Handle       string    `json:"handle"`
	Title        string    `json:"title"`
	Price        int64     `json:"price"`
	ComparePrice int64     `json:"compare_price,omitempty"`
	Image        string    `json:"image,omitempty"`
	URL          string    `json:"url"`
	Available    bool      `json:"available"`
	AddedAt      time.Time `json:"added_at"`
}
