package wishlist

import (
	"context"

	"github.com/curetcore/velox-storefront/internal/domain"
)

// Storage persists one owner's saved-item collection. Implementations
// may fail on quota, connectivity, or corrupted payloads; the Store
// treats every failure as non-fatal.
type Storage interface {
	// Load returns the stored collection, or an empty slice when none
	// exists yet.
	Load(ctx context.Context) ([]domain.WishlistItem, error)
	// Save replaces the stored collection.
	Save(ctx context.Context, items []domain.WishlistItem) error
}
