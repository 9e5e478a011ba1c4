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

type CategoryRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewCategoryRepository(db *mongo.Database, log *logger.Logger) *CategoryRepository {
	collection := db.Collection("categories")
	log = log.Named("CategoryRepository")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Error("Failed to ensure category slug index", zap.Error(err))
	}
	return &CategoryRepository{collection: collection, logger: log}
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	doc := categoryDocument{
		ID:       primitive.NewObjectID(),
		Name:     c.Name,
		Slug:     c.Slug,
		Icon:     c.Icon,
		ParentID: c.ParentID,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: category slug %q", domain.ErrAlreadyExists, c.Slug)
		}
		r.logger.Error("InsertOne failed", zap.Error(err), zap.String("slug", c.Slug))
		return fmt.Errorf("insert category: %w", err)
	}
	c.ID = doc.ID.Hex()
	return nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	cur, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		r.logger.Error("Find failed", zap.Error(err))
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer cur.Close(ctx)

	var docs []*categoryDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	out := make([]*domain.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDomainCategory(d))
	}
	return out, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *CategoryRepository) findOne(ctx context.Context, filter bson.M) (*domain.Category, error) {
	var doc categoryDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return toDomainCategory(&doc), nil
}
