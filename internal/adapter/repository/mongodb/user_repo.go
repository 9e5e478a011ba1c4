package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// UserRepository reads the users collection owned by the account service.
type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserRepository(db *mongo.Database, log *logger.Logger) *UserRepository {
	return &UserRepository{collection: db.Collection("users"), logger: log.Named("UserRepository")}
}

func (r *UserRepository) GetEmailByID(ctx context.Context, userID string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return "", domain.ErrNotFound
	}

	var doc struct {
		Email string `bson:"email"`
	}
	opts := options.FindOne().SetProjection(bson.M{"email": 1})
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.ErrNotFound
		}
		r.logger.Error("FindOne failed", zap.Error(err), zap.String("user_id", userID))
		return "", fmt.Errorf("find user: %w", err)
	}
	return doc.Email, nil
}
