package ledger

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Store used for tests and for running without a
// database (STORE_DRIVER=memory). It holds the same contract as MongoStore:
// appends are atomic per product and inactive records are invisible.
type MemStore struct {
	mu       sync.RWMutex
	products map[string]*Product
	order    []string
}

func NewMemStore() *MemStore {
	return &MemStore{products: make(map[string]*Product)}
}

func (s *MemStore) Insert(_ context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ProductID]; ok {
		return ErrDuplicateID
	}
	s.products[p.ProductID] = cloneProduct(p)
	s.order = append(s.order, p.ProductID)
	return nil
}

func (s *MemStore) FindByID(_ context.Context, productID string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok || !p.IsActive {
		return nil, ErrNoDocument
	}
	return cloneProduct(p), nil
}

func (s *MemStore) AppendEvent(_ context.Context, productID string, ev SupplyChainEvent, status Status) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok || !p.IsActive {
		return nil, ErrNoDocument
	}

	p.SupplyChainHistory = append(p.SupplyChainHistory, ev)
	p.CurrentLocation = ev.Location
	p.LastUpdated = ev.Timestamp
	if status != "" {
		p.Status = status
	}
	return cloneProduct(p), nil
}

func (s *MemStore) Find(_ context.Context, filter ListFilter, limit, skip int64) ([]Product, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Product
	for _, id := range s.order {
		p := s.products[id]
		if !p.IsActive {
			continue
		}
		if filter.Manufacturer != "" && p.Manufacturer != filter.Manufacturer {
			continue
		}
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		if filter.Category != "" && string(p.Category) != filter.Category {
			continue
		}
		matched = append(matched, p)
	}

	// Most recent first; insertion order breaks ties.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].RegistrationTime.After(matched[j].RegistrationTime)
	})
	total := int64(len(matched))

	if skip >= total {
		return []Product{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}

	page := make([]Product, 0, end-skip)
	for _, p := range matched[skip:end] {
		c := cloneProduct(p)
		c.QRCode = ""
		page = append(page, *c)
	}
	return page, total, nil
}

func (s *MemStore) CountActive(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.products {
		if p.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) CountsBy(_ context.Context, field string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, p := range s.products {
		if !p.IsActive {
			continue
		}
		switch field {
		case "status":
			counts[string(p.Status)]++
		case "category":
			counts[string(p.Category)]++
		case "manufacturer":
			counts[p.Manufacturer]++
		}
	}
	return counts, nil
}

func (s *MemStore) TopEventGroups(_ context.Context, limit int64) ([]EventGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct{ event, location string }
	groups := make(map[key]*EventGroup)

	for _, p := range s.products {
		if !p.IsActive {
			continue
		}
		for _, ev := range p.SupplyChainHistory {
			k := key{ev.Event, ev.Location}
			g, ok := groups[k]
			if !ok {
				g = &EventGroup{Event: ev.Event, Location: ev.Location}
				groups[k] = g
			}
			g.Count++
			if ev.Timestamp.After(g.LastOccurrence) {
				g.LastOccurrence = ev.Timestamp
			}
		}
	}

	out := make([]EventGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Event != out[j].Event {
			return out[i].Event < out[j].Event
		}
		return out[i].Location < out[j].Location
	})

	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) Ping(_ context.Context) error { return nil }

// Len reports the number of stored records, active or not. Test helper.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Deactivate soft-deletes a record. No ledger operation exposes this; it
// exists so tests can exercise the isActive read filter.
func (s *MemStore) Deactivate(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		p.IsActive = false
	}
}

func cloneProduct(p *Product) *Product {
	c := *p
	if p.SupplyChainHistory != nil {
		c.SupplyChainHistory = append([]SupplyChainEvent{}, p.SupplyChainHistory...)
	}
	if p.Certifications != nil {
		c.Certifications = append([]string{}, p.Certifications...)
	}
	if p.Weight != nil {
		w := *p.Weight
		c.Weight = &w
	}
	if p.Dimensions != nil {
		d := *p.Dimensions
		c.Dimensions = &d
	}
	if p.Price != nil {
		pr := *p.Price
		c.Price = &pr
	}
	if p.RegulatoryInfo != nil {
		r := *p.RegulatoryInfo
		r.ISO = append([]string(nil), p.RegulatoryInfo.ISO...)
		c.RegulatoryInfo = &r
	}
	return &c
}
