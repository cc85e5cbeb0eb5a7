package ledger

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const productCollection = "products"

// MongoStore persists products in a MongoDB collection. Event appends use a
// single $push+$set update so they are atomic per document without any
// read-modify-write cycle.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(productCollection)}
}

// EnsureIndexes creates the collection indexes: a unique index on productId
// plus the query-path indexes used by List and the analytics aggregations.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "productId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "manufacturer", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "registrationTime", Value: -1}}},
	}

	if _, err := s.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, p *Product) error {
	if _, err := s.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, productID string) (*Product, error) {
	filter := bson.M{"productId": productID, "isActive": true}

	var p Product
	if err := s.col.FindOne(ctx, filter).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoDocument
		}
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) AppendEvent(ctx context.Context, productID string, ev SupplyChainEvent, status Status) (*Product, error) {
	filter := bson.M{"productId": productID, "isActive": true}

	set := bson.M{
		"currentLocation": ev.Location,
		"lastUpdated":     ev.Timestamp,
	}
	if status != "" {
		set["status"] = status
	}

	update := bson.M{
		"$push": bson.M{"supplyChainHistory": ev},
		"$set":  set,
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p Product
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoDocument
		}
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) Find(ctx context.Context, filter ListFilter, limit, skip int64) ([]Product, int64, error) {
	query := bson.M{"isActive": true}
	if filter.Manufacturer != "" {
		query["manufacturer"] = filter.Manufacturer
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "registrationTime", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip).
		SetProjection(bson.M{"qrCode": 0})

	cursor, err := s.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}

	var products []Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}

	total, err := s.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (s *MongoStore) CountActive(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"isActive": true})
}

func (s *MongoStore) CountsBy(ctx context.Context, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isActive": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$" + field,
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Count
	}
	return counts, nil
}

func (s *MongoStore) TopEventGroups(ctx context.Context, limit int64) ([]EventGroup, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isActive": true}}},
		{{Key: "$unwind", Value: "$supplyChainHistory"}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"event":    "$supplyChainHistory.event",
				"location": "$supplyChainHistory.location",
			},
			"count":          bson.M{"$sum": 1},
			"lastOccurrence": bson.M{"$max": "$supplyChainHistory.timestamp"},
		}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID struct {
			Event    string `bson:"event"`
			Location string `bson:"location"`
		} `bson:"_id"`
		Count          int64     `bson:"count"`
		LastOccurrence time.Time `bson:"lastOccurrence"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	groups := make([]EventGroup, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, EventGroup{
			Event:          row.ID.Event,
			Location:       row.ID.Location,
			Count:          row.Count,
			LastOccurrence: row.LastOccurrence,
		})
	}
	return groups, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.col.Database().Client().Ping(ctx, readpref.Primary())
}
