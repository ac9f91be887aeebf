package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/mbochenko/shortly/internal/identity"
	"github.com/mbochenko/shortly/internal/models"
)

// LinkService defines the link-shortening business logic consumed by the
// handlers.
type LinkService interface {
	// Shorten creates a link for originalURL, with an optional custom alias,
	// lifetime in minutes and owner.
	Shorten(ctx context.Context, originalURL, customAlias string, expiresInMinutes *int, ownerID *int64) (*models.Link, error)

	// Redirect resolves a short code to its original URL, counting the
	// access on store-path resolutions.
	Redirect(ctx context.Context, shortCode string) (string, error)

	// Update replaces the original URL of an owned link.
	Update(ctx context.Context, shortCode string, ownerID *int64, newURL string) (*models.Link, error)

	// Delete removes an owned link.
	Delete(ctx context.Context, shortCode string, ownerID *int64) error

	// Stats returns the statistics view of an owned link.
	Stats(ctx context.Context, shortCode string, ownerID *int64) (*models.StatsView, error)

	// Search finds the first link matching the exact original URL.
	Search(ctx context.Context, originalURL string) (*models.SearchResult, error)
}

// getValidate initializes a validator instance for incoming request
// payloads, reporting field names from their JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes a new HTTP router with all routes and middleware
// configured.
func NewRouter(logger *httplog.Logger, svc LinkService, provider identity.Provider) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", identity.DefaultOwnerHeader},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	validate := getValidate()

	r.Get("/ping", handlePing)

	r.Route("/links", func(r chi.Router) {
		r.Post("/shorten", handleShorten(svc, validate, provider))
		r.Get("/search", handleSearch(svc))

		r.Route("/{shortCode}", func(r chi.Router) {
			r.Get("/", handleRedirect(svc))
			r.Put("/", handleUpdate(svc, validate, provider))
			r.Delete("/", handleDelete(svc, provider))
			r.Get("/stats", handleStats(svc, provider))
		})
	})

	return r
}
