package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
)

const reviewCollection = "address_review"

// MongoReviewStore keeps the review queue in MongoDB
type MongoReviewStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

// ConnectMongoReviewStore connects to url and opens the review collection of database
func ConnectMongoReviewStore(ctx context.Context, url, database string, logger *zap.Logger) (*MongoReviewStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	store := NewMongoReviewStore(client.Database(database), logger)
	store.client = client
	return store, nil
}

// NewMongoReviewStore creates a store over db and ensures its indexes
func NewMongoReviewStore(db *mongo.Database, logger *zap.Logger) *MongoReviewStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	collection := db.Collection(reviewCollection)

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "status", Value: 1}, bson.E{Key: "created_at", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "run_id", Value: 1}, bson.E{Key: "row_number", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "auto_result.postal_code", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Could not create address_review indexes", zap.Error(err))
	}

	return &MongoReviewStore{
		collection: collection,
		logger:     logger,
	}
}

// Insert adds reviews to the queue
func (s *MongoReviewStore) Insert(ctx context.Context, reviews ...*models.AddressReview) error {
	if len(reviews) == 0 {
		return nil
	}

	docs := make([]interface{}, len(reviews))
	for i, r := range reviews {
		docs[i] = r
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert reviews: %w", err)
	}

	s.logger.Debug("Queued reviews", zap.Int("count", len(reviews)))
	return nil
}

// Get loads one review
func (s *MongoReviewStore) Get(ctx context.Context, id string) (*models.AddressReview, error) {
	var review models.AddressReview
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	return &review, nil
}

// Update replaces a stored review
func (s *MongoReviewStore) Update(ctx context.Context, review *models.AddressReview) error {
	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": review.ID}, review)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// List returns one page of reviews matching q, oldest first, and the total match count
func (s *MongoReviewStore) List(ctx context.Context, q ReviewQuery) ([]*models.AddressReview, int64, error) {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.RunID != "" {
		filter["run_id"] = q.RunID
	}

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "created_at", Value: 1}, bson.E{Key: "row_number", Value: 1}}).
		SetSkip(int64(q.Offset))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]*models.AddressReview, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, fmt.Errorf("decode reviews: %w", err)
	}

	return reviews, total, nil
}

// Close disconnects the client when the store owns it
func (s *MongoReviewStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
