package grpc

import (
	"context"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/auth"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var tracer = otel.Tracer("flyerboard/grpc-handler")

type FeedReader interface {
	ListPage(ctx context.Context, q domain.FeedQuery, cursor string, pageSize int) (*domain.Page, error)
	ListSince(ctx context.Context, q domain.FeedQuery, since time.Time, limit int) ([]*domain.Listing, error)
	IncrementViews(ctx context.Context, id string) error
}

type ListingManager interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	CreateListing(ctx context.Context, ownerID string, in domain.ListingInput) (*domain.Listing, error)
	UpdateListing(ctx context.Context, id, actorID string, patch domain.ListingPatch) (*domain.Listing, error)
	SetListingActive(ctx context.Context, id, actorID string, active bool) (*domain.Listing, error)
	DeleteListing(ctx context.Context, id, actorID string) error
}

type CategoryLister interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

type FavoriteManager interface {
	AddFavorite(ctx context.Context, userID, listingID string) error
	RemoveFavorite(ctx context.Context, userID, listingID string) error
	ListFavorites(ctx context.Context, userID string) ([]*domain.Listing, error)
}

type ImageResolver interface {
	ResolveImages(ctx context.Context, refs []string) []string
}

type Deps struct {
	Feed       FeedReader
	Listings   ListingManager
	Categories CategoryLister
	Favorites  FavoriteManager
	Images     ImageResolver
}

// Handler implements FeedServiceServer on top of the usecases.
type Handler struct {
	feed       FeedReader
	listings   ListingManager
	categories CategoryLister
	favorites  FavoriteManager
	images     ImageResolver
	logger     *logger.Logger
}

var _ FeedServiceServer = (*Handler)(nil)

func NewHandler(deps Deps, log *logger.Logger) *Handler {
	return &Handler{
		feed:       deps.Feed,
		listings:   deps.Listings,
		categories: deps.Categories,
		favorites:  deps.Favorites,
		images:     deps.Images,
		logger:     log.Named("GRPCHandler"),
	}
}

func userID(ctx context.Context) (string, error) {
	id, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return "", status.Error(grpccodes.Unauthenticated, "user authentication required")
	}
	return id, nil
}

// fail records err on the span and converts it for the wire.
func fail(span oteltrace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return toStatus(err)
}

func (h *Handler) ListPage(ctx context.Context, req *ListPageRequest) (*ListPageResponse, error) {
	ctx, span := tracer.Start(ctx, "Handler.ListPage", oteltrace.WithAttributes(
		attribute.String("category_id", req.Query.CategoryID),
		attribute.Bool("search", req.Query.IsSearch()),
		attribute.Int("page_size", req.PageSize),
	))
	defer span.End()

	page, err := h.feed.ListPage(ctx, req.Query, req.Cursor, req.PageSize)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("items", len(page.Items)), attribute.Bool("done", page.Done))
	return &ListPageResponse{Page: page}, nil
}

func (h *Handler) ListSince(ctx context.Context, req *ListSinceRequest) (*ListingsResponse, error) {
	ctx, span := tracer.Start(ctx, "Handler.ListSince", oteltrace.WithAttributes(
		attribute.String("category_id", req.Query.CategoryID),
		attribute.String("since", req.Since.UTC().Format(time.RFC3339Nano)),
	))
	defer span.End()

	items, err := h.feed.ListSince(ctx, req.Query, req.Since, req.Limit)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("items", len(items)))
	return &ListingsResponse{Items: items}, nil
}

func (h *Handler) IncrementViews(ctx context.Context, req *ListingIDRequest) (*Empty, error) {
	ctx, span := tracer.Start(ctx, "Handler.IncrementViews", oteltrace.WithAttributes(attribute.String("listing_id", req.ID)))
	defer span.End()

	if err := h.feed.IncrementViews(ctx, req.ID); err != nil {
		return nil, fail(span, err)
	}
	return &Empty{}, nil
}

func (h *Handler) GetListing(ctx context.Context, req *ListingIDRequest) (*ListingResponse, error) {
	ctx, span := tracer.Start(ctx, "Handler.GetListing", oteltrace.WithAttributes(attribute.String("listing_id", req.ID)))
	defer span.End()

	listing, err := h.listings.GetListing(ctx, req.ID)
	if err != nil {
		return nil, fail(span, err)
	}
	return h.listingResponse(ctx, listing), nil
}

func (h *Handler) CreateListing(ctx context.Context, req *CreateListingRequest) (*ListingResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "Handler.CreateListing", oteltrace.WithAttributes(
		attribute.String("user_id", uid),
		attribute.String("category_id", req.Input.CategoryID),
		attribute.String("kind", string(req.Input.Kind)),
	))
	defer span.End()

	listing, err := h.listings.CreateListing(ctx, uid, req.Input)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("listing_id", listing.ID))
	h.logger.Info("Listing created over gRPC", zap.String("listing_id", listing.ID), zap.String("user_id", uid))
	return h.listingResponse(ctx, listing), nil
}

func (h *Handler) UpdateListing(ctx context.Context, req *UpdateListingRequest) (*ListingResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "Handler.UpdateListing", oteltrace.WithAttributes(
		attribute.String("user_id", uid),
		attribute.String("listing_id", req.ID),
	))
	defer span.End()

	listing, err := h.listings.UpdateListing(ctx, req.ID, uid, req.Patch)
	if err != nil {
		return nil, fail(span, err)
	}
	return h.listingResponse(ctx, listing), nil
}

func (h *Handler) SetListingActive(ctx context.Context, req *SetListingActiveRequest) (*ListingResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "Handler.SetListingActive", oteltrace.WithAttributes(
		attribute.String("listing_id", req.ID),
		attribute.Bool("active", req.Active),
	))
	defer span.End()

	listing, err := h.listings.SetListingActive(ctx, req.ID, uid, req.Active)
	if err != nil {
		return nil, fail(span, err)
	}
	return h.listingResponse(ctx, listing), nil
}

func (h *Handler) DeleteListing(ctx context.Context, req *ListingIDRequest) (*Empty, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "Handler.DeleteListing", oteltrace.WithAttributes(attribute.String("listing_id", req.ID)))
	defer span.End()

	if err := h.listings.DeleteListing(ctx, req.ID, uid); err != nil {
		return nil, fail(span, err)
	}
	return &Empty{}, nil
}

func (h *Handler) ListCategories(ctx context.Context, _ *Empty) (*ListCategoriesResponse, error) {
	ctx, span := tracer.Start(ctx, "Handler.ListCategories")
	defer span.End()

	categories, err := h.categories.ListCategories(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	return &ListCategoriesResponse{Categories: categories}, nil
}

func (h *Handler) AddFavorite(ctx context.Context, req *FavoriteRequest) (*Empty, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "Handler.AddFavorite", oteltrace.WithAttributes(attribute.String("listing_id", req.ListingID)))
	defer span.End()

	if err := h.favorites.AddFavorite(ctx, uid, req.ListingID); err != nil {
		return nil, fail(span, err)
	}
	return &Empty{}, nil
}

func (h *Handler) RemoveFavorite(ctx context.Context, req *FavoriteRequest) (*Empty, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "Handler.RemoveFavorite", oteltrace.WithAttributes(attribute.String("listing_id", req.ListingID)))
	defer span.End()

	if err := h.favorites.RemoveFavorite(ctx, uid, req.ListingID); err != nil {
		return nil, fail(span, err)
	}
	return &Empty{}, nil
}

func (h *Handler) ListFavorites(ctx context.Context, _ *Empty) (*ListingsResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "Handler.ListFavorites")
	defer span.End()

	items, err := h.favorites.ListFavorites(ctx, uid)
	if err != nil {
		return nil, fail(span, err)
	}
	return &ListingsResponse{Items: items}, nil
}

func (h *Handler) ResolveImages(ctx context.Context, req *ResolveImagesRequest) (*ResolveImagesResponse, error) {
	ctx, span := tracer.Start(ctx, "Handler.ResolveImages", oteltrace.WithAttributes(attribute.Int("refs", len(req.Refs))))
	defer span.End()

	return &ResolveImagesResponse{URLs: h.resolve(ctx, req.Refs)}, nil
}

func (h *Handler) listingResponse(ctx context.Context, l *domain.Listing) *ListingResponse {
	return &ListingResponse{Listing: l, ImageURLs: h.resolve(ctx, l.Images)}
}

func (h *Handler) resolve(ctx context.Context, refs []string) []string {
	if h.images == nil {
		return append([]string{}, refs...)
	}
	return h.images.ResolveImages(ctx, refs)
}
