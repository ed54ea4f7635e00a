package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loyalty-wallet/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoDBRemoteStore implements RemoteStore on a MongoDB collection keyed by card id.
type MongoDBRemoteStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

// cardDocument is a card as stored in MongoDB.
type cardDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Retailer  string    `bson:"retailer"`
	Country   string    `bson:"country"`
	Nickname  string    `bson:"nickname"`
	Value     string    `bson:"value"`
	Format    string    `bson:"format"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoDBRemoteStore connects to MongoDB and ensures the user index exists.
func NewMongoDBRemoteStore(uri, database, collection string, logger *zap.Logger) (*MongoDBRemoteStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(collection)

	indexModel := mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn("failed to create user index", zap.Error(err))
	}

	logger.Info("mongodb remote store initialized",
		zap.String("database", database), zap.String("collection", collection))
	return &MongoDBRemoteStore{client: client, collection: coll, logger: logger}, nil
}

// Pull returns every card of the user.
func (s *MongoDBRemoteStore) Pull(ctx context.Context, identity model.Identity) (model.Cards, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"user_id": identity.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []cardDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read cards: %w", err)
	}

	cards := make(model.Cards, 0, len(docs))
	for _, d := range docs {
		cards = append(cards, cardRow(d).toCard())
	}
	return cards, nil
}

// duplicateKeyCode is the server error code for a unique index violation.
const duplicateKeyCode = 11000

// Upsert replaces each card document by id. A card id already owned by another
// user fails the filter and collides on _id; such rows are skipped like the
// guarded SQL upserts skip them.
func (s *MongoDBRemoteStore) Upsert(ctx context.Context, identity model.Identity, cards model.Cards) error {
	if len(cards) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(cards))
	for _, c := range cards {
		doc := cardDocument(toRow(identity.UserID, c))
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID, "user_id": doc.UserID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	res, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	skipped, err := foreignRows(err)
	if err != nil {
		return fmt.Errorf("failed to upsert cards: %w", err)
	}
	if skipped > 0 {
		s.logger.Warn("skipped cards owned by another user", zap.Int("skipped", skipped))
	}
	if res != nil {
		s.logger.Debug("bulk upsert",
			zap.Int64("matched", res.MatchedCount), zap.Int64("upserted", res.UpsertedCount))
	}
	return nil
}

// foreignRows counts the write errors of an unordered bulk write that are
// duplicate _id collisions. Any other failure is returned unchanged.
func foreignRows(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return 0, err
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return 0, err
		}
	}
	return len(bwe.WriteErrors), nil
}

// Name returns the backend name.
func (s *MongoDBRemoteStore) Name() string { return "mongodb" }

// Close closes the MongoDB connection.
func (s *MongoDBRemoteStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ensure MongoDBRemoteStore implements RemoteStore
var _ RemoteStore = (*MongoDBRemoteStore)(nil)
