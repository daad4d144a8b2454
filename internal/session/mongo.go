package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/life-stream-dev/apm-demo/internal/database"
	"github.com/life-stream-dev/apm-demo/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Attribute keys become document field paths, so '.', '$' and '%' are escaped.
var (
	keyEncoder = strings.NewReplacer("%", "%25", ".", "%2E", "$", "%24")
	keyDecoder = strings.NewReplacer("%2E", ".", "%24", "$", "%25", "%")
)

func encodeKey(key string) string {
	return keyEncoder.Replace(key)
}

func decodeKey(key string) string {
	return keyDecoder.Replace(key)
}

type sessionDocument struct {
	ID                  string            `bson:"_id"`
	CreatedAt           time.Time         `bson:"created_at"`
	LastAccessedAt      time.Time         `bson:"last_accessed_at"`
	ExpiresAt           time.Time         `bson:"expires_at"`
	MaxInactiveInterval int64             `bson:"max_inactive_interval_ms"`
	Attributes          map[string]string `bson:"attributes"`
}

func (d *sessionDocument) toSession() *Session {
	s := &Session{
		ID:                  d.ID,
		CreatedAt:           d.CreatedAt,
		LastAccessedAt:      d.LastAccessedAt,
		MaxInactiveInterval: time.Duration(d.MaxInactiveInterval) * time.Millisecond,
		Attributes:          make(map[string]string, len(d.Attributes)),
	}
	for k, v := range d.Attributes {
		s.Attributes[decodeKey(k)] = v
	}
	return s
}

// MongoStore keeps one document per session. A TTL index on expires_at lets
// the server purge abandoned sessions; queries also filter on it because the
// TTL monitor only runs periodically.
type MongoStore struct {
	db         *database.Mongo
	collection *mongo.Collection
	ttl        time.Duration
}

func NewMongoStore(ctx context.Context, db *database.Mongo, ttl time.Duration) (*MongoStore, error) {
	if ttl <= 0 {
		ttl = DefaultMaxInactiveInterval
	}
	collection := db.Collection(database.SessionCollectionName)

	ctx, cancel := context.WithTimeout(ctx, db.OperationTimeout)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("sessions_expires_at_ttl"),
	})
	if err != nil {
		return nil, fmt.Errorf("error occured while creating session indexes: %w", err)
	}

	return &MongoStore{db: db, collection: collection, ttl: ttl}, nil
}

func (m *MongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.db.OperationTimeout)
}

func (m *MongoStore) liveFilter(id string, now time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	}
}

func (m *MongoStore) touchFields(now time.Time) bson.D {
	return bson.D{
		{Key: "last_accessed_at", Value: now},
		{Key: "expires_at", Value: now.Add(m.ttl)},
	}
}

func handleErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrSessionNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("unique key conflicts: %w", err)
	}
	return fmt.Errorf("database operation failed: %w", err)
}

func (m *MongoStore) Create(ctx context.Context) (*Session, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	s := newSession(m.ttl)
	doc := sessionDocument{
		ID:                  s.ID,
		CreatedAt:           s.CreatedAt,
		LastAccessedAt:      s.LastAccessedAt,
		ExpiresAt:           s.LastAccessedAt.Add(m.ttl),
		MaxInactiveInterval: m.ttl.Milliseconds(),
		Attributes:          map[string]string{},
	}
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return nil, handleErr(err)
	}
	logger.DebugF("Session created: id=%s", s.ID)
	return s, nil
}

func (m *MongoStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionIDEmpty
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.D{{Key: "$set", Value: m.touchFields(now)}}

	var doc sessionDocument
	startTime := time.Now()
	err := m.collection.FindOneAndUpdate(ctx, m.liveFilter(id, now), update, opts).Decode(&doc)
	logger.DebugF("session query cost: %v", time.Since(startTime))
	if err != nil {
		return nil, handleErr(err)
	}
	return doc.toSession(), nil
}

func (m *MongoStore) SetAttribute(ctx context.Context, id, key, value string) error {
	if err := validateIDAndKey(id, key); err != nil {
		return err
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	fields := append(m.touchFields(now), bson.E{Key: "attributes." + encodeKey(key), Value: value})
	result, err := m.collection.UpdateOne(ctx, m.liveFilter(id, now), bson.D{{Key: "$set", Value: fields}})
	if err != nil {
		return handleErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (m *MongoStore) GetAttribute(ctx context.Context, id, key string) (string, bool, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return "", false, err
	}
	if key == "" {
		return "", false, ErrAttributeKeyEmpty
	}
	value, found := s.Attributes[key]
	return value, found, nil
}

func (m *MongoStore) RemoveAttribute(ctx context.Context, id, key string) (string, bool, error) {
	if err := validateIDAndKey(id, key); err != nil {
		return "", false, err
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	field := "attributes." + encodeKey(key)
	update := bson.D{
		{Key: "$set", Value: m.touchFields(now)},
		{Key: "$unset", Value: bson.D{{Key: field, Value: ""}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.D{{Key: field, Value: 1}})

	var doc sessionDocument
	if err := m.collection.FindOneAndUpdate(ctx, m.liveFilter(id, now), update, opts).Decode(&doc); err != nil {
		return "", false, handleErr(err)
	}
	previous, found := doc.Attributes[encodeKey(key)]
	return previous, found, nil
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrSessionIDEmpty
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	result, err := m.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return handleErr(err)
	}
	logger.DebugF("Session deleted: id=%s, deleted=%d", id, result.DeletedCount)
	return nil
}

func (m *MongoStore) Close(_ context.Context) error {
	return nil
}
