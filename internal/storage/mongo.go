package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hokejlab/hokejnews/internal/config"
	"github.com/hokejlab/hokejnews/internal/types"
)

// MongoStore persists articles in a MongoDB collection with a unique index
// on origin_url.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoStore connects, pings, and ensures the unique origin_url index.
func NewMongoStore(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)

	// Uniqueness of origin_url is the identity invariant of the whole
	// store; enforced here rather than trusted to callers.
	_, err = coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "origin_url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("mongodb ensure index: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: coll,
		logger:     logger.With("component", "mongo_store"),
	}, nil
}

func (s *MongoStore) FindByURL(ctx context.Context, originURL string) (*types.ArticleRecord, error) {
	var record types.ArticleRecord
	err := s.collection.FindOne(ctx, bson.M{"origin_url": originURL}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StorageError{Op: "find", URL: originURL, Err: err}
	}
	return &record, nil
}

func (s *MongoStore) Insert(ctx context.Context, record *types.ArticleRecord) error {
	_, err := s.collection.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return types.ErrDuplicate
	}
	if err != nil {
		return &types.StorageError{Op: "insert", URL: record.OriginURL, Err: err}
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, originURL string, fields map[string]any, now time.Time) error {
	set := bson.M{"scraped_at": now}
	for k, v := range fields {
		set[k] = v
	}

	res, err := s.collection.UpdateOne(ctx, bson.M{"origin_url": originURL}, bson.M{"$set": set})
	if err != nil {
		return &types.StorageError{Op: "update", URL: originURL, Err: err}
	}
	if res.MatchedCount == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, category string, limit, offset int) ([]types.ArticleRecord, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "scraped_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, &types.StorageError{Op: "list", Err: err}
	}
	defer cur.Close(ctx)

	records := make([]types.ArticleRecord, 0, limit)
	if err := cur.All(ctx, &records); err != nil {
		return nil, &types.StorageError{Op: "list", Err: err}
	}
	return records, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*types.ArticleRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, types.ErrNotFound
	}

	var record types.ArticleRecord
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StorageError{Op: "get", URL: id, Err: err}
	}
	return &record, nil
}

func (s *MongoStore) Stats(ctx context.Context) (StoreStats, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return StoreStats{}, &types.StorageError{Op: "stats", Err: err}
	}

	stats := StoreStats{Articles: count}
	if count == 0 {
		return stats, nil
	}

	var latest types.ArticleRecord
	opts := options.FindOne().SetSort(bson.D{{Key: "scraped_at", Value: -1}, {Key: "_id", Value: -1}})
	if err := s.collection.FindOne(ctx, bson.M{}, opts).Decode(&latest); err == nil {
		stats.LastScrapedAt = &latest.ScrapedAt
		stats.LastOriginURL = latest.OriginURL
	}
	return stats, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(closeCtx)
}
