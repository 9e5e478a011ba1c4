package domain

import (
	"context"
	"time"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindByIDs(ctx context.Context, ids []string) ([]*Listing, error)
	// Browse returns live listings newest first, keyset paginated.
	Browse(ctx context.Context, q BrowseQuery) (items []*Listing, nextCursor string, done bool, err error)
	// Search runs a text search; soft-deleted rows may still be returned.
	Search(ctx context.Context, q FeedQuery, since *time.Time, limit int) ([]*Listing, error)
	// Since returns live listings created strictly after since, newest first.
	Since(ctx context.Context, categoryID string, since time.Time, limit int) ([]*Listing, error)
	IncrementViews(ctx context.Context, id string) error
}

type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	List(ctx context.Context) ([]*Category, error)
	FindByID(ctx context.Context, id string) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
}

type FavoriteRepository interface {
	Add(ctx context.Context, favorite *Favorite) error
	Remove(ctx context.Context, userID, listingID string) error
	FindByUserID(ctx context.Context, userID string) ([]*Favorite, error)
	FindUserIDsByListingID(ctx context.Context, listingID string) ([]string, error)
}

type UserRepository interface {
	GetEmailByID(ctx context.Context, userID string) (string, error)
}

// ListingCache is a read-through cache for listing detail. A miss returns (nil, nil).
type ListingCache interface {
	GetListing(ctx context.Context, id string) (*Listing, error)
	SetListing(ctx context.Context, listing *Listing) error
	DeleteListing(ctx context.Context, id string) error
}

// PreferenceStore persists one location string per subject.
type PreferenceStore interface {
	GetLocation(ctx context.Context, subject string) (string, error)
	SetLocation(ctx context.Context, subject, location string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type ImageStorage interface {
	Upload(ctx context.Context, fileName string, data []byte) (key string, err error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type Notifier interface {
	SendPriceDrop(toEmail string, l *Listing) error
}
