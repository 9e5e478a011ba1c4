package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/auth"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "http-secret"

type stubFeed struct {
	query  domain.FeedQuery
	cursor string
	limit  int
	since  time.Time
}

func (s *stubFeed) ListPage(_ context.Context, q domain.FeedQuery, cursor string, pageSize int) (*domain.Page, error) {
	s.query, s.cursor, s.limit = q, cursor, pageSize
	if cursor == "broken" {
		return nil, domain.ErrInvalidCursor
	}
	return &domain.Page{Items: []*domain.Listing{{ID: "a"}}, Cursor: "n", MaxCreationTime: q.MaxCreationTime}, nil
}

func (s *stubFeed) ListSince(_ context.Context, q domain.FeedQuery, since time.Time, _ int) ([]*domain.Listing, error) {
	s.query, s.since = q, since
	return []*domain.Listing{{ID: "fresh"}}, nil
}

func (s *stubFeed) IncrementViews(_ context.Context, id string) error {
	if id == "gone" {
		return domain.ErrNotFound
	}
	return nil
}

type stubListings struct {
	owner string
}

func (s *stubListings) GetListing(_ context.Context, id string) (*domain.Listing, error) {
	return &domain.Listing{ID: id, Images: []string{"listings/1.jpg"}}, nil
}

func (s *stubListings) CreateListing(_ context.Context, ownerID string, in domain.ListingInput) (*domain.Listing, error) {
	s.owner = ownerID
	l, err := domain.NewListing(ownerID, in)
	if err != nil {
		return nil, err
	}
	l.ID = "created"
	return l, nil
}

func (s *stubListings) UpdateListing(context.Context, string, string, domain.ListingPatch) (*domain.Listing, error) {
	return nil, domain.ErrForbidden
}

func (s *stubListings) SetListingActive(_ context.Context, id, _ string, active bool) (*domain.Listing, error) {
	return &domain.Listing{ID: id, Active: active}, nil
}

func (s *stubListings) DeleteListing(context.Context, string, string) error { return nil }

type stubImages struct {
	fileName string
	data     []byte
}

func (s *stubImages) AttachImage(_ context.Context, listingID, _ string, fileName string, data []byte) (*domain.Listing, error) {
	s.fileName, s.data = fileName, data
	return &domain.Listing{ID: listingID, Images: []string{"listings/k.png"}}, nil
}

func (s *stubImages) ResolveImages(_ context.Context, refs []string) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = "https://cdn/" + r
	}
	return out
}

type stubCategories struct{ created *domain.Category }

func (s *stubCategories) ListCategories(context.Context) ([]*domain.Category, error) {
	return []*domain.Category{{ID: "1", Slug: "bikes"}}, nil
}

func (s *stubCategories) GetCategoryBySlug(_ context.Context, slug string) (*domain.Category, error) {
	if slug != "bikes" {
		return nil, domain.ErrNotFound
	}
	return &domain.Category{ID: "1", Slug: slug}, nil
}

func (s *stubCategories) CreateCategory(_ context.Context, c *domain.Category) error {
	s.created = c
	return nil
}

type stubPrefs struct{ saved map[string]string }

func (s *stubPrefs) GetLocation(_ context.Context, subject string) (string, error) {
	return s.saved[subject], nil
}

func (s *stubPrefs) SetLocation(_ context.Context, subject, location string) error {
	s.saved[subject] = strings.TrimSpace(location)
	return nil
}

type fixture struct {
	feed       *stubFeed
	listings   *stubListings
	images     *stubImages
	categories *stubCategories
	prefs      *stubPrefs
	router     http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		feed:       &stubFeed{},
		listings:   &stubListings{},
		images:     &stubImages{},
		categories: &stubCategories{},
		prefs:      &stubPrefs{saved: map[string]string{}},
	}
	log := logger.NewNop()
	h := NewHandler(Deps{
		Feed:        f.feed,
		Listings:    f.listings,
		Images:      f.images,
		Categories:  f.categories,
		Preferences: f.prefs,
	}, log)
	f.router = NewRouter(h, secret, log)
	return f
}

func (f *fixture) do(t *testing.T, method, target, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{UserID: userID, Role: role}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestFeedRoute_PassesFilterAndCursor(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/api/feed?category=bikes&location=Sydney&cursor=abc&limit=5&max_created=2026-01-02T03:04:05Z", "", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bikes", f.feed.query.CategoryID)
	assert.Equal(t, "Sydney", f.feed.query.Location)
	assert.Equal(t, "abc", f.feed.cursor)
	assert.Equal(t, 5, f.feed.limit)
	assert.True(t, f.feed.query.MaxCreationTime.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	var page domain.Page
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, "n", page.Cursor)
}

func TestFeedRoute_BadInput(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/feed?limit=ten", "", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/feed?max_created=yesterday", "", nil, "").Code)

	rec := f.do(t, http.MethodGet, "/api/feed?cursor=broken", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestFeedSinceRoute(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/feed/since", "", nil, "").Code)

	rec := f.do(t, http.MethodGet, "/api/feed/since?q=lamp&since=2026-02-01T00:00:00Z", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lamp", f.feed.query.SearchText)
	assert.Contains(t, rec.Body.String(), "fresh")
}

func TestIncrementViewsRoute(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/api/listings/l1/views", "", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/listings/gone/views", "", nil, "").Code)
}

func TestGetListingRoute_ResolvesImages(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/api/listings/l1", "", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		ID        string   `json:"id"`
		ImageURLs []string `json:"image_urls"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "l1", body.ID)
	assert.Equal(t, []string{"https://cdn/listings/1.jpg"}, body.ImageURLs)
}

func TestCreateListingRoute_RequiresToken(t *testing.T) {
	f := newFixture()
	body := []byte(`{"category_id":"c","title":"Kayak","kind":"sale","price":250}`)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/api/listings", "", body, "application/json").Code)

	rec := f.do(t, http.MethodPost, "/api/listings", token(t, "seller", ""), body, "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "seller", f.listings.owner)
}

func TestCreateListingRoute_ValidationIsBadRequest(t *testing.T) {
	f := newFixture()
	body := []byte(`{"category_id":"c","title":"Kayak","kind":"sale"}`)
	rec := f.do(t, http.MethodPost, "/api/listings", token(t, "seller", ""), body, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateListingRoute_Forbidden(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPatch, "/api/listings/l1", token(t, "other", ""), []byte(`{"title":"x"}`), "application/json")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUploadImageRoute(t *testing.T) {
	f := newFixture()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := f.do(t, http.MethodPost, "/api/listings/l1/images", token(t, "seller", ""), buf.Bytes(), mw.FormDataContentType())

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "photo.png", f.images.fileName)
	assert.Equal(t, []byte("png-bytes"), f.images.data)
}

func TestLocationPreferenceRoutes(t *testing.T) {
	f := newFixture()
	tok := token(t, "u1", "")

	rec := f.do(t, http.MethodPut, "/api/preferences/location", tok, []byte(`{"location":" Sydney "}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/preferences/location", tok, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"location":"Sydney"}`, rec.Body.String())
}

func TestCreateCategoryRoute_AdminOnly(t *testing.T) {
	f := newFixture()
	body := []byte(`{"name":"Bikes","slug":"bikes"}`)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/api/categories", token(t, "u1", ""), body, "application/json").Code)

	rec := f.do(t, http.MethodPost, "/api/categories", token(t, "root", auth.RoleAdmin), body, "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "bikes", f.categories.created.Slug)
}

func TestCategoryRoutes(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/categories", "", nil, "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/categories/bikes", "", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/categories/boats", "", nil, "").Code)
}
