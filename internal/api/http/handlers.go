package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/mbochenko/shortly/internal/database"
	"github.com/mbochenko/shortly/internal/identity"
	"github.com/mbochenko/shortly/internal/models"
	"github.com/mbochenko/shortly/internal/service"
	"github.com/mbochenko/shortly/pkg/response"
	"github.com/mbochenko/shortly/pkg/shortcode"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// shortenRequest represents the request payload for creating a link.
// The alias shape and expiry positivity are enforced by the service before
// any store interaction; the handler only checks URL well-formedness.
type shortenRequest struct {
	OriginalURL      string `json:"original_url" validate:"required,url"`
	CustomAlias      string `json:"custom_alias,omitempty"`
	ExpiresInMinutes *int   `json:"expires_in_minutes,omitempty"`
}

// updateRequest represents the request payload for replacing a link's URL.
type updateRequest struct {
	NewURL string `json:"new_url" validate:"required,url"`
}

// linkResponse represents the response payload for a link operation.
type linkResponse struct {
	ID          int64      `json:"id"`
	OriginalURL string     `json:"original_url"`
	ShortCode   string     `json:"short_code"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	OwnerID     *int64     `json:"owner_id,omitempty"`
}

func toLinkResponse(link *models.Link) linkResponse {
	return linkResponse{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortCode:   link.ShortCode,
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
		OwnerID:     link.OwnerID,
	}
}

// resolveOwner resolves the optional owner id, rendering a 400 response on a
// malformed identity. The bool result reports whether handling may continue.
func resolveOwner(w http.ResponseWriter, r *http.Request, provider identity.Provider) (*int64, bool) {
	ownerID, err := provider.Resolve(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.BadRequestResponse)
		return nil, false
	}

	return ownerID, true
}

// handleShorten handles POST requests to create a short link.
//
// The request must contain a valid absolute URL and may carry a custom alias
// and a lifetime in minutes. A taken alias or a generated-code collision is
// reported as a conflict without an automatic retry.
func handleShorten(svc LinkService, validate *validator.Validate, provider identity.Provider) http.HandlerFunc {
	const op = "api.http.handleShorten"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		ownerID, ok := resolveOwner(w, r, provider)
		if !ok {
			return
		}

		link, err := svc.Shorten(r.Context(), req.OriginalURL, req.CustomAlias, req.ExpiresInMinutes, ownerID)
		if err != nil {
			switch {
			case errors.Is(err, shortcode.ErrInvalidAlias), errors.Is(err, service.ErrInvalidExpiry):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ValidationErrorResponse(err))
			case errors.Is(err, database.ErrShortCodeExists):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.ConflictResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

// handleRedirect handles GET requests to resolve a short code.
//
// A live link answers with a 302 redirect to the original URL. Missing and
// expired links both answer 404.
func handleRedirect(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.Redirect(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}

// handleUpdate handles PUT requests to replace the original URL of a link.
//
// Only the link's owner reaches the row; everyone else gets the same 404 a
// missing link would produce.
func handleUpdate(svc LinkService, validate *validator.Validate, provider identity.Provider) http.HandlerFunc {
	const op = "api.http.handleUpdate"
	const successMsg = "The link was successfully updated."

	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		ownerID, ok := resolveOwner(w, r, provider)
		if !ok {
			return
		}

		shortCode := chi.URLParam(r, "shortCode")

		link, err := svc.Update(r.Context(), shortCode, ownerID, req.NewURL)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

// handleDelete handles DELETE requests to remove a link.
func handleDelete(svc LinkService, provider identity.Provider) http.HandlerFunc {
	const op = "api.http.handleDelete"

	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := resolveOwner(w, r, provider)
		if !ok {
			return
		}

		shortCode := chi.URLParam(r, "shortCode")

		err := svc.Delete(r.Context(), shortCode, ownerID)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.NoContent(w, r)
	}
}

// handleStats handles GET requests for a link's access statistics.
func handleStats(svc LinkService, provider identity.Provider) http.HandlerFunc {
	const op = "api.http.handleStats"
	const successMsg = "The link statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := resolveOwner(w, r, provider)
		if !ok {
			return
		}

		shortCode := chi.URLParam(r, "shortCode")

		view, err := svc.Stats(r.Context(), shortCode, ownerID)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, view))
	}
}

// handleSearch handles GET requests to find a link by its exact original URL.
func handleSearch(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleSearch"
	const successMsg = "The link was found successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		originalURL := r.URL.Query().Get("original_url")
		if originalURL == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		res, err := svc.Search(r.Context(), originalURL)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, res))
	}
}
