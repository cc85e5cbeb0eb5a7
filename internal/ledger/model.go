package ledger

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the fixed product classification set.
type Category string

const (
	CategoryElectronics    Category = "Electronics"
	CategoryClothing       Category = "Clothing"
	CategoryFood           Category = "Food"
	CategoryPharmaceutical Category = "Pharmaceuticals"
	CategoryAutomotive     Category = "Automotive"
	CategoryOther          Category = "Other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryFood,
		CategoryPharmaceutical, CategoryAutomotive, CategoryOther:
		return true
	}
	return false
}

// Status is the product lifecycle state. Transitions are deliberately
// unconstrained: any value may follow any other.
type Status string

const (
	StatusRegistered   Status = "registered"
	StatusInProduction Status = "in-production"
	StatusInTransit    Status = "in-transit"
	StatusDelivered    Status = "delivered"
	StatusRecalled     Status = "recalled"
	StatusDisposed     Status = "disposed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusRegistered, StatusInProduction, StatusInTransit,
		StatusDelivered, StatusRecalled, StatusDisposed:
		return true
	}
	return false
}

type Coordinates struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// SupplyChainEvent is one entry in a product's append-only history. Events
// have no identity of their own; they live and die with their product.
type SupplyChainEvent struct {
	Timestamp   time.Time    `bson:"timestamp" json:"timestamp"`
	Event       string       `bson:"event" json:"event"`
	Location    string       `bson:"location" json:"location"`
	Details     string       `bson:"details" json:"details"`
	UpdatedBy   string       `bson:"updatedBy" json:"updatedBy"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

type Weight struct {
	Value float64 `bson:"value" json:"value"`
	Unit  string  `bson:"unit" json:"unit"`
}

type Dimensions struct {
	Length float64 `bson:"length" json:"length"`
	Width  float64 `bson:"width" json:"width"`
	Height float64 `bson:"height" json:"height"`
	Unit   string  `bson:"unit" json:"unit"`
}

type Price struct {
	Value    float64 `bson:"value" json:"value"`
	Currency string  `bson:"currency" json:"currency"`
}

type RegulatoryInfo struct {
	FDAApproved bool     `bson:"fdaApproved" json:"fdaApproved"`
	CEMarking   bool     `bson:"ceMarking" json:"ceMarking"`
	ISO         []string `bson:"iso" json:"iso"`
	CustomsCode string   `bson:"customsCode" json:"customsCode"`
}

// Product is the aggregate root. ProductID is the public lookup key; the
// Mongo ObjectID is internal and never exposed. All mutation goes through
// the Ledger.
type Product struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ProductID          string             `bson:"productId" json:"productId"`
	ProductName        string             `bson:"productName" json:"productName"`
	Manufacturer       string             `bson:"manufacturer" json:"manufacturer"`
	Category           Category           `bson:"category" json:"category"`
	Description        string             `bson:"description" json:"description"`
	Origin             string             `bson:"origin" json:"origin"`
	Certifications     []string           `bson:"certifications" json:"certifications"`
	BatchNumber        string             `bson:"batchNumber" json:"batchNumber"`
	SerialNumber       string             `bson:"serialNumber" json:"serialNumber"`
	Status             Status             `bson:"status" json:"status"`
	CurrentLocation    string             `bson:"currentLocation" json:"currentLocation"`
	QRCode             string             `bson:"qrCode" json:"qrCode,omitempty"`
	SupplyChainHistory []SupplyChainEvent `bson:"supplyChainHistory" json:"supplyChainHistory"`
	RegistrationTime   time.Time          `bson:"registrationTime" json:"registrationTime"`
	LastUpdated        time.Time          `bson:"lastUpdated" json:"lastUpdated"`
	IsActive           bool               `bson:"isActive" json:"isActive"`
	Weight             *Weight            `bson:"weight,omitempty" json:"weight,omitempty"`
	Dimensions         *Dimensions        `bson:"dimensions,omitempty" json:"dimensions,omitempty"`
	Price              *Price             `bson:"price,omitempty" json:"price,omitempty"`
	RegulatoryInfo     *RegulatoryInfo    `bson:"regulatoryInfo,omitempty" json:"regulatoryInfo,omitempty"`
}

// Field length bounds carried over from the document schema.
const (
	maxProductNameLen  = 200
	maxManufacturerLen = 100
	maxDescriptionLen  = 1000
)
