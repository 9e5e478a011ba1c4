package mongodb

import (
	"fmt"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listingDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID       string             `bson:"owner_id"`
	CategoryID    string             `bson:"category_id"`
	Title         string             `bson:"title"`
	Description   string             `bson:"description"`
	Kind          string             `bson:"kind"`
	Price         *float64           `bson:"price,omitempty"`
	PreviousPrice *float64           `bson:"previous_price,omitempty"`
	Location      string             `bson:"location"`
	Images        []string           `bson:"images"`
	Active        bool               `bson:"active"`
	Deleted       bool               `bson:"deleted"`
	Views         int64              `bson:"views"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

type categoryDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name"`
	Slug     string             `bson:"slug"`
	Icon     string             `bson:"icon,omitempty"`
	ParentID string             `bson:"parent_id,omitempty"`
}

type favoriteDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	ListingID string             `bson:"listing_id"`
	CreatedAt time.Time          `bson:"created_at"`
}

// objectID parses a hex id; an empty id maps to NilObjectID so the store assigns one.
func objectID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NilObjectID, nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, err)
	}
	return oid, nil
}

func toListingDocument(l *domain.Listing) (*listingDocument, error) {
	oid, err := objectID(l.ID)
	if err != nil {
		return nil, err
	}
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return &listingDocument{
		ID:            oid,
		OwnerID:       l.OwnerID,
		CategoryID:    l.CategoryID,
		Title:         l.Title,
		Description:   l.Description,
		Kind:          string(l.Kind),
		Price:         l.Price,
		PreviousPrice: l.PreviousPrice,
		Location:      l.Location,
		Images:        images,
		Active:        l.Active,
		Deleted:       l.Deleted,
		Views:         l.Views,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}, nil
}

func toDomainListing(d *listingDocument) *domain.Listing {
	return &domain.Listing{
		ID:            d.ID.Hex(),
		OwnerID:       d.OwnerID,
		CategoryID:    d.CategoryID,
		Title:         d.Title,
		Description:   d.Description,
		Kind:          domain.ListingKind(d.Kind),
		Price:         d.Price,
		PreviousPrice: d.PreviousPrice,
		Location:      d.Location,
		Images:        d.Images,
		Active:        d.Active,
		Deleted:       d.Deleted,
		Views:         d.Views,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

func toDomainListings(docs []*listingDocument) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDomainListing(d))
	}
	return out
}

func toDomainCategory(d *categoryDocument) *domain.Category {
	return &domain.Category{
		ID:       d.ID.Hex(),
		Name:     d.Name,
		Slug:     d.Slug,
		Icon:     d.Icon,
		ParentID: d.ParentID,
	}
}

func toDomainFavorite(d *favoriteDocument) *domain.Favorite {
	return &domain.Favorite{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ListingID: d.ListingID,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

func toDomainFavorites(docs []*favoriteDocument) []*domain.Favorite {
	out := make([]*domain.Favorite, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDomainFavorite(d))
	}
	return out
}
