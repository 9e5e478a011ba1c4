package grpc

import (
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
)

type ListPageRequest struct {
	Query    domain.FeedQuery `json:"query"`
	Cursor   string           `json:"cursor,omitempty"`
	PageSize int              `json:"page_size,omitempty"`
}

type ListPageResponse struct {
	Page *domain.Page `json:"page"`
}

type ListSinceRequest struct {
	Query domain.FeedQuery `json:"query"`
	Since time.Time        `json:"since"`
	Limit int              `json:"limit,omitempty"`
}

type ListingsResponse struct {
	Items []*domain.Listing `json:"items"`
}

type ListingIDRequest struct {
	ID string `json:"id"`
}

type ListingResponse struct {
	Listing   *domain.Listing `json:"listing"`
	ImageURLs []string        `json:"image_urls,omitempty"`
}

type CreateListingRequest struct {
	Input domain.ListingInput `json:"input"`
}

type UpdateListingRequest struct {
	ID    string              `json:"id"`
	Patch domain.ListingPatch `json:"patch"`
}

type SetListingActiveRequest struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

type ListCategoriesResponse struct {
	Categories []*domain.Category `json:"categories"`
}

type FavoriteRequest struct {
	ListingID string `json:"listing_id"`
}

type ResolveImagesRequest struct {
	Refs []string `json:"refs"`
}

type ResolveImagesResponse struct {
	URLs []string `json:"urls"`
}

type Empty struct{}
