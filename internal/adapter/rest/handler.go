package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/auth"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxUploadBytes leaves headroom over the image limit for multipart framing.
const maxUploadBytes = 6 << 20

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

type ImageService interface {
	AttachImage(ctx context.Context, listingID, actorID, fileName string, data []byte) (*domain.Listing, error)
	ResolveImages(ctx context.Context, refs []string) []string
}

type CategoryService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
}

type FavoriteManager interface {
	AddFavorite(ctx context.Context, userID, listingID string) error
	RemoveFavorite(ctx context.Context, userID, listingID string) error
	ListFavorites(ctx context.Context, userID string) ([]*domain.Listing, error)
}

type PreferenceService interface {
	GetLocation(ctx context.Context, subject string) (string, error)
	SetLocation(ctx context.Context, subject, location string) error
}

type Deps struct {
	Feed        FeedReader
	Listings    ListingManager
	Images      ImageService
	Categories  CategoryService
	Favorites   FavoriteManager
	Preferences PreferenceService
}

type Handler struct {
	deps   Deps
	logger *logger.Logger
}

func NewHandler(deps Deps, log *logger.Logger) *Handler {
	return &Handler{deps: deps, logger: log.Named("HTTPHandler")}
}

type listingView struct {
	*domain.Listing
	ImageURLs []string `json:"image_urls"`
}

type locationBody struct {
	Location string `json:"location"`
}

type activeBody struct {
	Active bool `json:"active"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, status, errorMessage(err, status))
}

func (h *Handler) view(ctx context.Context, l *domain.Listing) listingView {
	urls := append([]string{}, l.Images...)
	if h.deps.Images != nil {
		urls = h.deps.Images.ResolveImages(ctx, l.Images)
	}
	return listingView{Listing: l, ImageURLs: urls}
}

func currentUser(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

func feedQuery(r *http.Request) domain.FeedQuery {
	v := r.URL.Query()
	return domain.FeedQuery{
		CategoryID: v.Get("category"),
		SearchText: v.Get("q"),
		Location:   v.Get("location"),
	}
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
	}
	return n, nil
}

func timeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", domain.ErrInvalidInput, name)
	}
	return t, nil
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) HandleListPage(w http.ResponseWriter, r *http.Request) {
	q := feedQuery(r)
	limit, err := intParam(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if q.MaxCreationTime, err = timeParam(r, "max_created"); err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.deps.Feed.ListPage(r.Context(), q, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) HandleListSince(w http.ResponseWriter, r *http.Request) {
	since, err := timeParam(r, "since")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if since.IsZero() {
		writeError(w, http.StatusBadRequest, "since is required")
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items, err := h.deps.Feed.ListSince(r.Context(), feedQuery(r), since, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) HandleIncrementViews(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Feed.IncrementViews(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.deps.Listings.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(r.Context(), listing))
}

func (h *Handler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	var in domain.ListingInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	listing, err := h.deps.Listings.CreateListing(r.Context(), currentUser(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(r.Context(), listing))
}

func (h *Handler) HandleUpdateListing(w http.ResponseWriter, r *http.Request) {
	var patch domain.ListingPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	listing, err := h.deps.Listings.UpdateListing(r.Context(), chi.URLParam(r, "id"), currentUser(r), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(r.Context(), listing))
}

func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	var body activeBody
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	listing, err := h.deps.Listings.SetListingActive(r.Context(), chi.URLParam(r, "id"), currentUser(r), body.Active)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(r.Context(), listing))
}

func (h *Handler) HandleDeleteListing(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Listings.DeleteListing(r.Context(), chi.URLParam(r, "id"), currentUser(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image is too large")
			return
		}
		h.fail(w, r, err)
		return
	}
	listing, err := h.deps.Images.AttachImage(r.Context(), chi.URLParam(r, "id"), currentUser(r), header.Filename, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(r.Context(), listing))
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.deps.Categories.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.deps.Categories.GetCategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c domain.Category
	if err := decode(r, &c); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.deps.Categories.CreateCategory(r.Context(), &c); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Favorites.AddFavorite(r.Context(), currentUser(r), chi.URLParam(r, "listingID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Favorites.RemoveFavorite(r.Context(), currentUser(r), chi.URLParam(r, "listingID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	items, err := h.deps.Favorites.ListFavorites(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) HandleGetLocation(w http.ResponseWriter, r *http.Request) {
	location, err := h.deps.Preferences.GetLocation(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locationBody{Location: location})
}

func (h *Handler) HandleSetLocation(w http.ResponseWriter, r *http.Request) {
	var body locationBody
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.deps.Preferences.SetLocation(r.Context(), currentUser(r), body.Location); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locationBody{Location: strings.TrimSpace(body.Location)})
}
