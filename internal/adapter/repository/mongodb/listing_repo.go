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

const listingCollectionName = "listings"

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
	now        func() time.Time
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	collection := db.Collection(listingCollectionName)
	log = log.Named("ListingRepository")

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: "text"}}},
		{Keys: newestFirst},
		{Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to ensure listing indexes", zap.Error(err))
	}

	return &ListingRepository{collection: collection, logger: log, now: time.Now}
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	now := r.now().UTC().Truncate(time.Millisecond)
	listing.CreatedAt = now
	listing.UpdatedAt = now

	doc, err := toListingDocument(listing)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("InsertOne failed", zap.Error(err), zap.String("owner_id", listing.OwnerID))
		return fmt.Errorf("insert listing: %w", err)
	}
	listing.ID = doc.ID.Hex()
	r.logger.Debug("Listing created", zap.String("listing_id", listing.ID))
	return nil
}

// Update writes the owner-editable fields and flags. Views and CreatedAt are
// never overwritten so concurrent view increments are not lost.
func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	oid, err := primitive.ObjectIDFromHex(listing.ID)
	if err != nil {
		return domain.ErrNotFound
	}
	listing.UpdatedAt = r.now().UTC().Truncate(time.Millisecond)

	images := listing.Images
	if images == nil {
		images = []string{}
	}
	set := bson.M{
		"category_id": listing.CategoryID,
		"title":       listing.Title,
		"description": listing.Description,
		"kind":        string(listing.Kind),
		"location":    listing.Location,
		"images":      images,
		"active":      listing.Active,
		"deleted":     listing.Deleted,
		"updated_at":  listing.UpdatedAt,
	}
	unset := bson.M{}
	if listing.Price != nil {
		set["price"] = *listing.Price
	} else {
		unset["price"] = ""
	}
	if listing.PreviousPrice != nil {
		set["previous_price"] = *listing.PreviousPrice
	} else {
		unset["previous_price"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.collection.UpdateByID(ctx, oid, update)
	if err != nil {
		r.logger.Error("UpdateByID failed", zap.Error(err), zap.String("listing_id", listing.ID))
		return fmt.Errorf("update listing: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	var doc listingDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("FindOne failed", zap.Error(err), zap.String("listing_id", id))
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return toDomainListing(&doc), nil
}

// FindByIDs returns the listings that exist, in no particular order. Invalid ids are skipped.
func (r *ListingRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Listing, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*domain.Listing{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find())
}

func (r *ListingRepository) Browse(ctx context.Context, q domain.BrowseQuery) ([]*domain.Listing, string, bool, error) {
	filter := bson.M{
		"active":     true,
		"deleted":    bson.M{"$ne": true},
		"created_at": bson.M{"$lte": q.MaxCreationTime},
	}
	if q.CategoryID != "" {
		filter["category_id"] = q.CategoryID
	}
	if q.Cursor != "" {
		after, afterID, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, "", false, err
		}
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": after}},
			bson.M{"created_at": after, "_id": bson.M{"$lt": afterID}},
		}
	}

	opts := options.Find().SetSort(newestFirst).SetLimit(int64(q.Limit + 1))
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Browse find failed", zap.Error(err), zap.String("category_id", q.CategoryID))
		return nil, "", false, fmt.Errorf("browse listings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []*listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, "", false, fmt.Errorf("decode listings: %w", err)
	}

	if len(docs) <= q.Limit {
		return toDomainListings(docs), "", true, nil
	}
	docs = docs[:q.Limit]
	return toDomainListings(docs), encodeCursor(docs[len(docs)-1]), false, nil
}

func (r *ListingRepository) Search(ctx context.Context, q domain.FeedQuery, since *time.Time, limit int) ([]*domain.Listing, error) {
	filter := bson.M{
		"$text":  bson.M{"$search": q.SearchText},
		"active": true,
	}
	if q.CategoryID != "" {
		filter["category_id"] = q.CategoryID
	}
	if q.Location != "" {
		filter["location"] = q.Location
	}
	if since != nil {
		filter["created_at"] = bson.M{"$gt": *since}
	}

	score := bson.M{"score": bson.M{"$meta": "textScore"}}
	opts := options.Find().SetProjection(score).SetSort(score).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *ListingRepository) Since(ctx context.Context, categoryID string, since time.Time, limit int) ([]*domain.Listing, error) {
	filter := bson.M{
		"active":     true,
		"deleted":    bson.M{"$ne": true},
		"created_at": bson.M{"$gt": since},
	}
	if categoryID != "" {
		filter["category_id"] = categoryID
	}
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *ListingRepository) IncrementViews(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "deleted": bson.M{"$ne": true}},
		bson.M{"$inc": bson.M{"views": 1}},
	)
	if err != nil {
		r.logger.Error("IncrementViews failed", zap.Error(err), zap.String("listing_id", id))
		return fmt.Errorf("increment views: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Listing, error) {
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Find failed", zap.Error(err))
		return nil, fmt.Errorf("find listings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []*listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	return toDomainListings(docs), nil
}
