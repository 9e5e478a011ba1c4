package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type FavoriteRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewFavoriteRepository(db *mongo.Database, log *logger.Logger) *FavoriteRepository {
	collection := db.Collection("favorites")
	log = log.Named("FavoriteRepository")

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "listing_id", Value: 1}}},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to ensure favorite indexes", zap.Error(err))
	}
	return &FavoriteRepository{collection: collection, logger: log}
}

func (r *FavoriteRepository) Add(ctx context.Context, favorite *domain.Favorite) error {
	if favorite.UserID == "" || favorite.ListingID == "" {
		return fmt.Errorf("%w: user and listing are required", domain.ErrInvalidInput)
	}
	favorite.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	doc := favoriteDocument{
		ID:        primitive.NewObjectID(),
		UserID:    favorite.UserID,
		ListingID: favorite.ListingID,
		CreatedAt: favorite.CreatedAt,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Debug("Favorite already exists", zap.String("user_id", favorite.UserID), zap.String("listing_id", favorite.ListingID))
			return fmt.Errorf("%w: favorite", domain.ErrAlreadyExists)
		}
		r.logger.Error("InsertOne failed", zap.Error(err), zap.String("user_id", favorite.UserID))
		return fmt.Errorf("insert favorite: %w", err)
	}
	favorite.ID = doc.ID.Hex()
	return nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "listing_id": listingID})
	if err != nil {
		r.logger.Error("DeleteOne failed", zap.Error(err), zap.String("user_id", userID), zap.String("listing_id", listingID))
		return fmt.Errorf("delete favorite: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByUserID returns the user's favorites, newest first.
func (r *FavoriteRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		r.logger.Error("Find failed", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("find favorites: %w", err)
	}
	defer cur.Close(ctx)

	var docs []*favoriteDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	return toDomainFavorites(docs), nil
}

func (r *FavoriteRepository) FindUserIDsByListingID(ctx context.Context, listingID string) ([]string, error) {
	raw, err := r.collection.Distinct(ctx, "user_id", bson.M{"listing_id": listingID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("distinct favorite users: %w", err)
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}
