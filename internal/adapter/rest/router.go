package rest

import (
	"net/http"
	"time"

	"github.com/amirrudd/flyerboard/internal/platform/auth"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the public feed routes and the authenticated listing,
// favorite and preference routes.
func NewRouter(h *Handler, jwtSecret string, log *logger.Logger) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(RequestLogger(log.Named("HTTP")))
	mux.Use(chimw.Recoverer)
	mux.Use(chimw.Timeout(30 * time.Second))

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Get("/api/feed", h.HandleListPage)
	mux.Get("/api/feed/since", h.HandleListSince)
	mux.Post("/api/listings/{id}/views", h.HandleIncrementViews)
	mux.Get("/api/listings/{id}", h.HandleGetListing)
	mux.Get("/api/categories", h.HandleListCategories)
	mux.Get("/api/categories/{slug}", h.HandleGetCategory)

	mux.Group(func(r chi.Router) {
		r.Use(JWTAuth(jwtSecret))

		r.Post("/api/listings", h.HandleCreateListing)
		r.Patch("/api/listings/{id}", h.HandleUpdateListing)
		r.Put("/api/listings/{id}/active", h.HandleSetActive)
		r.Delete("/api/listings/{id}", h.HandleDeleteListing)
		r.Post("/api/listings/{id}/images", h.HandleUploadImage)

		r.Post("/api/favorites/{listingID}", h.HandleAddFavorite)
		r.Delete("/api/favorites/{listingID}", h.HandleRemoveFavorite)
		r.Get("/api/favorites", h.HandleListFavorites)

		r.Get("/api/preferences/location", h.HandleGetLocation)
		r.Put("/api/preferences/location", h.HandleSetLocation)

		r.With(RequireRole(auth.RoleAdmin)).Post("/api/categories", h.HandleCreateCategory)
	})
	return mux
}

// NewHTTPServer wraps the router with the timeouts used in production.
func NewHTTPServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
