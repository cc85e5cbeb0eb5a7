package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(id string, registered time.Time) *Product {
	return &Product{
		ProductID:       id,
		ProductName:     "Item " + id,
		Manufacturer:    "Acme",
		Category:        CategoryElectronics,
		Status:          StatusRegistered,
		CurrentLocation: "Factory",
		QRCode:          "data:image/png;base64,c3R1Yg==",
		SupplyChainHistory: []SupplyChainEvent{{
			Timestamp: registered,
			Event:     "Product Registered",
			Location:  "Factory",
			UpdatedBy: "System",
		}},
		RegistrationTime: registered,
		LastUpdated:      registered,
		IsActive:         true,
	}
}

func TestMemStoreInsertDuplicate(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Insert(ctx, seedProduct("p1", now)))

	err := store.Insert(ctx, seedProduct("p1", now))
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, store.Len())
}

func TestMemStoreFindByIDMissing(t *testing.T) {
	store := NewMemStore()

	_, err := store.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestMemStoreSnapshotsAreIsolated(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Insert(ctx, seedProduct("p1", now)))

	first, err := store.FindByID(ctx, "p1")
	require.NoError(t, err)

	// Mutating a returned snapshot must not leak into the store.
	first.SupplyChainHistory[0].Event = "tampered"
	first.ProductName = "tampered"

	second, err := store.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Product Registered", second.SupplyChainHistory[0].Event)
	assert.Equal(t, "Item p1", second.ProductName)
}

func TestMemStoreFindSortsAndProjects(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, store.Insert(ctx, seedProduct("old", base)))
	require.NoError(t, store.Insert(ctx, seedProduct("mid", base.Add(time.Minute))))
	require.NoError(t, store.Insert(ctx, seedProduct("new", base.Add(2*time.Minute))))

	items, total, err := store.Find(ctx, ListFilter{}, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 3)

	assert.Equal(t, "new", items[0].ProductID)
	assert.Equal(t, "mid", items[1].ProductID)
	assert.Equal(t, "old", items[2].ProductID)

	for _, p := range items {
		assert.Empty(t, p.QRCode)
	}
}

func TestMemStoreFindSkipBeyondEnd(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, seedProduct("p1", time.Now().UTC())))

	items, total, err := store.Find(ctx, ListFilter{}, 10, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Empty(t, items)
}

func TestMemStoreAppendEventInactive(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, seedProduct("p1", time.Now().UTC())))
	store.Deactivate("p1")

	_, err := store.AppendEvent(ctx, "p1", SupplyChainEvent{
		Timestamp: time.Now().UTC(),
		Event:     "Shipped",
		Location:  "Port",
	}, "")
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestMemStoreTopEventGroupsLimit(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	base := time.Now().UTC()

	p := seedProduct("p1", base)
	for i := 0; i < 3; i++ {
		p.SupplyChainHistory = append(p.SupplyChainHistory, SupplyChainEvent{
			Timestamp: base.Add(time.Duration(i+1) * time.Minute),
			Event:     "Shipped",
			Location:  "Port",
		})
	}
	require.NoError(t, store.Insert(ctx, p))

	groups, err := store.TopEventGroups(ctx, 1)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Shipped", groups[0].Event)
	assert.Equal(t, int64(3), groups[0].Count)
	assert.Equal(t, base.Add(3*time.Minute), groups[0].LastOccurrence)
}
