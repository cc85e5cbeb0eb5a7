package ledger

import (
	"context"
	"errors"
	"time"
)

// Store sentinels. Backends translate their native failures into these; the
// Ledger wraps them into the public error taxonomy.
var (
	ErrDuplicateID = errors.New("product id already exists")
	ErrNoDocument  = errors.New("no matching product")
)

// ListFilter holds the optional exact-match filters for List. Empty fields
// match everything. Inactive records are always excluded.
type ListFilter struct {
	Manufacturer string
	Status       string
	Category     string
}

// EventGroup is one row of the supply-chain aggregation: how many times an
// (event, location) pair occurred across all active products, and when last.
type EventGroup struct {
	Event          string    `json:"event"`
	Location       string    `json:"location"`
	Count          int64     `json:"count"`
	LastOccurrence time.Time `json:"lastOccurrence"`
}

// Store is the document-store contract the Ledger runs against. Two
// implementations exist: MongoStore and MemStore. AppendEvent must be atomic
// per product so that concurrent appends never lose an entry.
type Store interface {
	// Insert persists a new product, failing with ErrDuplicateID if the
	// productId is already taken.
	Insert(ctx context.Context, p *Product) error

	// FindByID returns the active product with the given productId, or
	// ErrNoDocument if it is absent or soft-deleted.
	FindByID(ctx context.Context, productID string) (*Product, error)

	// AppendEvent atomically appends ev to the product's history, sets
	// currentLocation and lastUpdated from the event, and, when status is
	// non-empty, replaces the product status. Returns the updated record.
	AppendEvent(ctx context.Context, productID string, ev SupplyChainEvent, status Status) (*Product, error)

	// Find returns the matching active products sorted by registrationTime
	// descending, with the QR payload omitted, plus the total match count.
	Find(ctx context.Context, filter ListFilter, limit, skip int64) ([]Product, int64, error)

	// CountActive counts all active products.
	CountActive(ctx context.Context) (int64, error)

	// CountsBy groups active products by one of the fields "status",
	// "category" or "manufacturer" and counts each group.
	CountsBy(ctx context.Context, field string) (map[string]int64, error)

	// TopEventGroups aggregates every history entry of every active product
	// by (event, location) and returns the most frequent groups.
	TopEventGroups(ctx context.Context, limit int64) ([]EventGroup, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}
