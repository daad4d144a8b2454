package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/life-stream-dev/apm-demo/internal/database"
	"github.com/life-stream-dev/apm-demo/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type visitDocument struct {
	Name      string    `bson:"name"`
	Count     int64     `bson:"count"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoCounter stores one document per visitor and increments it with $inc.
type MongoCounter struct {
	db         *database.Mongo
	collection *mongo.Collection
}

func NewMongoCounter(ctx context.Context, db *database.Mongo) (*MongoCounter, error) {
	collection := db.Collection(database.VisitCollectionName)

	ctx, cancel := context.WithTimeout(ctx, db.OperationTimeout)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("visit_counters_name_unique"),
	})
	if err != nil {
		return nil, fmt.Errorf("error occured while creating visit counter indexes: %w", err)
	}

	return &MongoCounter{db: db, collection: collection}, nil
}

func (m *MongoCounter) Increment(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	ctx, cancel := context.WithTimeout(ctx, m.db.OperationTimeout)
	defer cancel()

	filter := bson.D{{Key: "name", Value: name}}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "count", Value: int64(1)}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc visitDocument
	startTime := time.Now()
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	logger.DebugF("visit increment cost: %v", time.Since(startTime))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// lost a concurrent upsert race; the document exists now
			err = m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		}
		if err != nil {
			return 0, fmt.Errorf("database operation failed: %w", err)
		}
	}
	return doc.Count, nil
}

func (m *MongoCounter) Snapshot(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.db.OperationTimeout)
	defer cancel()

	cursor, err := m.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("database operation failed: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	visits := make(map[string]int64)
	for cursor.Next(ctx) {
		var doc visitDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode visit document: %w", err)
		}
		visits[doc.Name] = doc.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("database operation failed: %w", err)
	}
	return visits, nil
}

func (m *MongoCounter) Close(_ context.Context) error {
	return nil
}
