package item

import (
	"context"

	"github.com/google/uuid"
)

// SearchFilter narrows a marketplace item listing.
type SearchFilter struct {
	Category Category
	City     string
	MinPrice float64
	MaxPrice float64
}

// ItemRepository defines the persistence contract for item aggregates.
type ItemRepository interface {
	// FindByID retrieves an item by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// FindByOwnerID retrieves all items listed by an owner with pagination.
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*Item, int64, error)

	// Search retrieves active items matching the filter with pagination.
	Search(ctx context.Context, filter SearchFilter, page, limit int) ([]*Item, int64, error)

	// Save persists a new item.
	Save(ctx context.Context, item *Item) error

	// Update persists changes to an existing item with optimistic locking.
	Update(ctx context.Context, item *Item) error
}
