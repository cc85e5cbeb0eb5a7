package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CodeGenerator produces a scannable code image for a payload. Pure function
// of its input; the Ledger calls it exactly once per registration.
type CodeGenerator interface {
	Encode(payload string) (string, error)
}

const (
	cacheKeyProductPrefix = "tracechain:product:"
	cacheKeyDashboard     = "tracechain:analytics:dashboard"
	cacheKeySupplyChain   = "tracechain:analytics:supply-chain"

	cacheTTLProduct   = 5 * time.Minute
	cacheTTLAnalytics = 5 * time.Minute

	defaultListLimit    = 50
	supplyChainTopCount = 20

	seedEventName = "Product Registered"
)

// Ledger owns product records and their mutation rules. It validates input,
// stamps identity and timestamps, and delegates persistence to a Store.
// The cache client is optional; a nil client just means every read hits the
// store.
type Ledger struct {
	store   Store
	codes   CodeGenerator
	cache   *redis.Client
	baseURL string
	timeout time.Duration

	now func() time.Time
}

type Options struct {
	// BaseURL is the externally visible server root used to build scan URLs.
	BaseURL string
	// Cache enables response caching when non-nil.
	Cache *redis.Client
	// StoreTimeout bounds every store call. Zero means a 5s default.
	StoreTimeout time.Duration
}

func New(store Store, codes CodeGenerator, opts Options) *Ledger {
	timeout := opts.StoreTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Ledger{
		store:   store,
		codes:   codes,
		cache:   opts.Cache,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: timeout,
		now:     time.Now,
	}
}

// RegisterInput carries the registration request body. Price values arrive
// as exact decimals and are converted at the storage boundary.
type RegisterInput struct {
	ProductName    string          `json:"productName"`
	Manufacturer   string          `json:"manufacturer"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	Origin         string          `json:"origin"`
	Certifications []string        `json:"certifications"`
	BatchNumber    string          `json:"batchNumber"`
	SerialNumber   string          `json:"serialNumber"`
	Weight         *Weight         `json:"weight"`
	Dimensions     *Dimensions     `json:"dimensions"`
	Price          *PriceInput     `json:"price"`
	RegulatoryInfo *RegulatoryInfo `json:"regulatoryInfo"`
}

type PriceInput struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// AppendEventInput carries one supply-chain update. Status is optional; when
// present it must be a member of the status enumeration but is otherwise
// unconstrained.
type AppendEventInput struct {
	Event       string       `json:"event"`
	Location    string       `json:"location"`
	Details     string       `json:"details"`
	UpdatedBy   string       `json:"updatedBy"`
	Coordinates *Coordinates `json:"coordinates"`
	Status      string       `json:"status"`
}

type DashboardAnalytics struct {
	TotalProducts  int64            `json:"totalProducts"`
	ByStatus       map[string]int64 `json:"byStatus"`
	ByCategory     map[string]int64 `json:"byCategory"`
	ByManufacturer map[string]int64 `json:"byManufacturer"`
	GeneratedAt    time.Time        `json:"generatedAt"`
}

type SupplyChainAnalytics struct {
	SupplyChainEvents []EventGroup `json:"supplyChainEvents"`
	GeneratedAt       time.Time    `json:"generatedAt"`
}

type qrPayload struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	Manufacturer string `json:"manufacturer"`
	ScanURL      string `json:"scanUrl"`
	GeneratedAt  string `json:"generatedAt"`
}

// ScanURL is the public lookup URL encoded into a product's QR code.
func (l *Ledger) ScanURL(productID string) string {
	return fmt.Sprintf("%s/api/products/%s", l.baseURL, productID)
}

// Register validates the input, assigns a fresh productId, seeds the supply
// chain history with a single "Product Registered" event, generates the QR
// code and persists the record. Exactly one store write happens, and only
// after validation and code generation have both succeeded.
func (l *Ledger) Register(ctx context.Context, input RegisterInput) (*Product, error) {
	name := strings.TrimSpace(input.ProductName)
	manufacturer := strings.TrimSpace(input.Manufacturer)
	category := Category(strings.TrimSpace(input.Category))

	switch {
	case name == "":
		return nil, validationError("productName is required")
	case len(name) > maxProductNameLen:
		return nil, validationError("productName exceeds %d characters", maxProductNameLen)
	case manufacturer == "":
		return nil, validationError("manufacturer is required")
	case len(manufacturer) > maxManufacturerLen:
		return nil, validationError("manufacturer exceeds %d characters", maxManufacturerLen)
	case category == "":
		return nil, validationError("category is required")
	case !category.Valid():
		return nil, validationError("category %q is not a valid category", category)
	case len(input.Description) > maxDescriptionLen:
		return nil, validationError("description exceeds %d characters", maxDescriptionLen)
	}

	productID := uuid.NewString()
	now := l.now().UTC()

	location := strings.TrimSpace(input.Origin)
	if location == "" {
		location = "Unknown"
	}

	payload, err := json.Marshal(qrPayload{
		ProductID:    productID,
		ProductName:  name,
		Manufacturer: manufacturer,
		ScanURL:      l.ScanURL(productID),
		GeneratedAt:  now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, storageError("failed to build QR payload", err)
	}

	qrCode, err := l.codes.Encode(string(payload))
	if err != nil {
		return nil, storageError("failed to generate QR code", err)
	}

	certifications := input.Certifications
	if certifications == nil {
		certifications = []string{}
	}

	product := &Product{
		ProductID:       productID,
		ProductName:     name,
		Manufacturer:    manufacturer,
		Category:        category,
		Description:     input.Description,
		Origin:          input.Origin,
		Certifications:  certifications,
		BatchNumber:     input.BatchNumber,
		SerialNumber:    input.SerialNumber,
		Status:          StatusRegistered,
		CurrentLocation: location,
		QRCode:          qrCode,
		SupplyChainHistory: []SupplyChainEvent{{
			Timestamp: now,
			Event:     seedEventName,
			Location:  location,
			Details:   fmt.Sprintf("Product %s registered by %s", name, manufacturer),
			UpdatedBy: "System",
		}},
		RegistrationTime: now,
		LastUpdated:      now,
		IsActive:         true,
		Weight:           input.Weight,
		Dimensions:       input.Dimensions,
		RegulatoryInfo:   input.RegulatoryInfo,
	}

	if input.Price != nil {
		currency := input.Price.Currency
		if currency == "" {
			currency = "USD"
		}
		product.Price = &Price{
			Value:    input.Price.Value.InexactFloat64(),
			Currency: currency,
		}
	}

	storeCtx, cancel := l.storeContext(ctx)
	defer cancel()

	if err := l.store.Insert(storeCtx, product); err != nil {
		if err == ErrDuplicateID {
			return nil, conflictError(fmt.Sprintf("product id %s already registered", productID), err)
		}
		return nil, storageError("failed to persist product", err)
	}

	l.invalidateAnalytics(ctx)

	return product, nil
}

// Get returns the active product with the given id.
func (l *Ledger) Get(ctx context.Context, productID string) (*Product, error) {
	if cached := l.cachedProduct(ctx, productID); cached != nil {
		return cached, nil
	}

	storeCtx, cancel := l.storeContext(ctx)
	defer cancel()

	product, err := l.store.FindByID(storeCtx, productID)
	if err != nil {
		if err == ErrNoDocument {
			return nil, notFoundError(productID)
		}
		return nil, storageError("failed to fetch product", err)
	}

	l.cacheProduct(ctx, product)

	return product, nil
}

// AppendEvent appends one supply-chain event to the product's history,
// moving currentLocation to the event location and refreshing lastUpdated.
// The append is atomic in the store, so concurrent calls never lose events.
func (l *Ledger) AppendEvent(ctx context.Context, productID string, input AppendEventInput) (*Product, error) {
	event := strings.TrimSpace(input.Event)
	location := strings.TrimSpace(input.Location)

	switch {
	case event == "":
		return nil, validationError("event is required")
	case location == "":
		return nil, validationError("location is required")
	}

	status := Status(input.Status)
	if input.Status != "" && !status.Valid() {
		return nil, validationError("status %q is not a valid status", input.Status)
	}

	updatedBy := strings.TrimSpace(input.UpdatedBy)
	if updatedBy == "" {
		updatedBy = "System"
	}

	ev := SupplyChainEvent{
		Timestamp:   l.now().UTC(),
		Event:       event,
		Location:    location,
		Details:     input.Details,
		UpdatedBy:   updatedBy,
		Coordinates: input.Coordinates,
	}

	storeCtx, cancel := l.storeContext(ctx)
	defer cancel()

	product, err := l.store.AppendEvent(storeCtx, productID, ev, status)
	if err != nil {
		if err == ErrNoDocument {
			return nil, notFoundError(productID)
		}
		return nil, storageError("failed to append supply chain event", err)
	}

	l.invalidateProduct(ctx, productID)
	l.invalidateAnalytics(ctx)

	return product, nil
}

// List returns one page of active products, most recently registered first,
// together with the total match count. The QR payload is omitted from list
// items.
func (l *Ledger) List(ctx context.Context, filter ListFilter, page, limit int) ([]Product, int64, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if page <= 0 {
		page = 1
	}
	skip := int64(page-1) * int64(limit)

	storeCtx, cancel := l.storeContext(ctx)
	defer cancel()

	products, total, err := l.store.Find(storeCtx, filter, int64(limit), skip)
	if err != nil {
		return nil, 0, storageError("failed to list products", err)
	}
	return products, total, nil
}

// AnalyticsDashboard aggregates the active population: total count plus
// counts grouped by status, category and manufacturer.
func (l *Ledger) AnalyticsDashboard(ctx context.Context) (*DashboardAnalytics, error) {
	var cached DashboardAnalytics
	if l.cachedJSON(ctx, cacheKeyDashboard, &cached) {
		return &cached, nil
	}

	storeCtx, cancel := l.storeContext(ctx)
	defer cancel()

	total, err := l.store.CountActive(storeCtx)
	if err != nil {
		return nil, storageError("failed to count products", err)
	}

	byStatus, err := l.store.CountsBy(storeCtx, "status")
	if err != nil {
		return nil, storageError("failed to aggregate by status", err)
	}
	byCategory, err := l.store.CountsBy(storeCtx, "category")
	if err != nil {
		return nil, storageError("failed to aggregate by category", err)
	}
	byManufacturer, err := l.store.CountsBy(storeCtx, "manufacturer")
	if err != nil {
		return nil, storageError("failed to aggregate by manufacturer", err)
	}

	analytics := &DashboardAnalytics{
		TotalProducts:  total,
		ByStatus:       byStatus,
		ByCategory:     byCategory,
		ByManufacturer: byManufacturer,
		GeneratedAt:    l.now().UTC(),
	}

	l.cacheJSON(ctx, cacheKeyDashboard, analytics, cacheTTLAnalytics)

	return analytics, nil
}

// AnalyticsSupplyChain flattens every active product's history and returns
// the 20 most frequent (event, location) pairs.
func (l *Ledger) AnalyticsSupplyChain(ctx context.Context) (*SupplyChainAnalytics, error) {
	var cached SupplyChainAnalytics
	if l.cachedJSON(ctx, cacheKeySupplyChain, &cached) {
		return &cached, nil
	}

	storeCtx, cancel := l.storeContext(ctx)
	defer cancel()

	groups, err := l.store.TopEventGroups(storeCtx, supplyChainTopCount)
	if err != nil {
		return nil, storageError("failed to aggregate supply chain events", err)
	}

	analytics := &SupplyChainAnalytics{
		SupplyChainEvents: groups,
		GeneratedAt:       l.now().UTC(),
	}

	l.cacheJSON(ctx, cacheKeySupplyChain, analytics, cacheTTLAnalytics)

	return analytics, nil
}

// Ping verifies the backing store is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	storeCtx, cancel := l.storeContext(ctx)
	defer cancel()

	if err := l.store.Ping(storeCtx); err != nil {
		return storageError("store unreachable", err)
	}
	return nil
}

func (l *Ledger) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, l.timeout)
}

// Cache helpers. Cache failures are never surfaced: a broken cache degrades
// to uncached reads, it does not fake or fail responses.

func (l *Ledger) cachedProduct(ctx context.Context, productID string) *Product {
	var p Product
	if l.cachedJSON(ctx, cacheKeyProductPrefix+productID, &p) {
		return &p
	}
	return nil
}

func (l *Ledger) cacheProduct(ctx context.Context, p *Product) {
	l.cacheJSON(ctx, cacheKeyProductPrefix+p.ProductID, p, cacheTTLProduct)
}

func (l *Ledger) invalidateProduct(ctx context.Context, productID string) {
	if l.cache == nil {
		return
	}
	l.cache.Del(ctx, cacheKeyProductPrefix+productID)
}

func (l *Ledger) invalidateAnalytics(ctx context.Context) {
	if l.cache == nil {
		return
	}
	l.cache.Del(ctx, cacheKeyDashboard, cacheKeySupplyChain)
}

func (l *Ledger) cachedJSON(ctx context.Context, key string, out interface{}) bool {
	if l.cache == nil {
		return false
	}
	raw, err := l.cache.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

func (l *Ledger) cacheJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if l.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	l.cache.Set(ctx, key, raw, ttl)
}
