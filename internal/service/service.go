package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mbochenko/shortly/internal/cache"
	"github.com/mbochenko/shortly/internal/database"
	"github.com/mbochenko/shortly/internal/models"
	"github.com/mbochenko/shortly/pkg/shortcode"
)

// ErrInvalidExpiry is returned when a requested link lifetime is not positive.
var ErrInvalidExpiry = errors.New("expiry must be a positive number of minutes")

// LinkRepository defines the store operations the service needs. The store
// is the source of truth; every mutation goes here first and only then to
// the cache.
type LinkRepository interface {
	// Create inserts a new link. A taken short code yields
	// database.ErrShortCodeExists.
	Create(ctx context.Context, originalURL, shortCode string, expiresAt *time.Time, ownerID *int64) (*models.Link, error)

	// GetByShortCode retrieves a link by its short code without side effects.
	GetByShortCode(ctx context.Context, shortCode string) (*models.Link, error)

	// GetByShortCodeAndOwner retrieves a link restricted to the given owner.
	// Missing and not-owned links are indistinguishable.
	GetByShortCodeAndOwner(ctx context.Context, shortCode string, ownerID *int64) (*models.Link, error)

	// GetByOriginalURL retrieves the first link matching the original URL.
	GetByOriginalURL(ctx context.Context, originalURL string) (*models.Link, error)

	// UpdateURL replaces the original URL of an owned link.
	UpdateURL(ctx context.Context, shortCode string, ownerID *int64, newURL string) (*models.Link, error)

	// Delete physically removes an owned link.
	Delete(ctx context.Context, shortCode string, ownerID *int64) error

	// BumpStats increments the access count and stamps the last access time.
	BumpStats(ctx context.Context, id int64, accessedAt time.Time) (*models.Link, error)
}

// Cache defines the cache-aside operations the service needs. Get reports
// absence with cache.ErrCacheMiss; any other failure is treated as a miss
// as well, so a cache outage degrades to store reads instead of failing the
// request.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// LinkService orchestrates the store and the cache for link creation,
// redirects, mutation, statistics and search.
type LinkService struct {
	repo       LinkRepository
	cache      Cache
	codeLength int
	now        func() time.Time
}

// NewLinkService creates a LinkService over the given store and cache.
// codeLength controls generated short codes; custom aliases are validated
// against the fixed 4-16 character rules instead.
func NewLinkService(repo LinkRepository, cache Cache, codeLength int) *LinkService {
	if codeLength <= 0 {
		codeLength = shortcode.DefaultLength
	}

	return &LinkService{
		repo:       repo,
		cache:      cache,
		codeLength: codeLength,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Shorten creates a link for originalURL. A non-empty customAlias is
// validated and used verbatim; otherwise a random code is generated. A
// uniqueness conflict surfaces as database.ErrShortCodeExists without an
// automatic retry.
func (s *LinkService) Shorten(ctx context.Context, originalURL, customAlias string, expiresInMinutes *int, ownerID *int64) (*models.Link, error) {
	const op = "service.LinkService.Shorten"

	code := customAlias
	if code != "" {
		if err := shortcode.ValidateAlias(code); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		var err error
		code, err = shortcode.Generate(s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	var expiresAt *time.Time
	if expiresInMinutes != nil {
		if *expiresInMinutes <= 0 {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidExpiry)
		}
		t := s.now().Add(time.Duration(*expiresInMinutes) * time.Minute)
		expiresAt = &t
	}

	link, err := s.repo.Create(ctx, originalURL, code, expiresAt, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create link: %w", op, err)
	}

	return link, nil
}

// Redirect resolves a short code to its original URL. A cache hit returns
// immediately without bumping statistics; only store-path resolutions
// increment the access count. An expired link is reported as not found even
// while it still sits in the store awaiting the sweeper.
func (s *LinkService) Redirect(ctx context.Context, shortCode string) (string, error) {
	const op = "service.LinkService.Redirect"

	if url, err := s.cache.Get(ctx, cache.RedirectKey(shortCode)); err == nil {
		return url, nil
	}

	link, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	now := s.now()
	if link.ExpiredAt(now) {
		return "", fmt.Errorf("%s: link expired: %w", op, database.ErrLinkNotFound)
	}

	if _, err := s.repo.BumpStats(ctx, link.ID, now); err != nil {
		return "", fmt.Errorf("%s: failed to bump link stats: %w", op, err)
	}

	// Best effort: a failed populate just means the next redirect reads the
	// store again.
	_ = s.cache.Set(ctx, cache.RedirectKey(shortCode), link.OriginalURL, cache.RedirectTTL)

	return link.OriginalURL, nil
}

// Update replaces the original URL of an owned link, then invalidates every
// cache key derived from the link's identity. The store mutation always
// happens before invalidation.
func (s *LinkService) Update(ctx context.Context, shortCode string, ownerID *int64, newURL string) (*models.Link, error) {
	const op = "service.LinkService.Update"

	link, err := s.repo.UpdateURL(ctx, shortCode, ownerID, newURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update link: %w", op, err)
	}

	keys := append(cache.LinkKeys(shortCode, ownerID), cache.SearchKey(link.OriginalURL))
	_ = s.cache.Invalidate(ctx, keys...)

	return link, nil
}

// Delete removes an owned link from the store and invalidates its cache
// keys, so a pre-delete redirect entry cannot serve the dead link.
func (s *LinkService) Delete(ctx context.Context, shortCode string, ownerID *int64) error {
	const op = "service.LinkService.Delete"

	if err := s.repo.Delete(ctx, shortCode, ownerID); err != nil {
		return fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	_ = s.cache.Invalidate(ctx, cache.LinkKeys(shortCode, ownerID)...)

	return nil
}

// Stats returns the statistics view of an owned link. The view is cached as
// a JSON blob; a concurrent stats bump may therefore not be visible until
// the entry expires.
func (s *LinkService) Stats(ctx context.Context, shortCode string, ownerID *int64) (*models.StatsView, error) {
	const op = "service.LinkService.Stats"

	key := cache.StatsKey(shortCode, ownerID)

	if blob, err := s.cache.Get(ctx, key); err == nil {
		var view models.StatsView
		if err := json.Unmarshal([]byte(blob), &view); err == nil {
			return &view, nil
		}
		// Undecodable entry: fall through to the store and overwrite it.
	}

	link, err := s.repo.GetByShortCodeAndOwner(ctx, shortCode, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link stats: %w", op, err)
	}

	if link.ExpiredAt(s.now()) {
		return nil, fmt.Errorf("%s: link expired: %w", op, database.ErrLinkNotFound)
	}

	view := models.StatsViewFromLink(link)

	if blob, err := json.Marshal(view); err == nil {
		_ = s.cache.Set(ctx, key, string(blob), cache.StatsTTL)
	}

	return &view, nil
}

// Search finds the first link matching the exact original URL.
func (s *LinkService) Search(ctx context.Context, originalURL string) (*models.SearchResult, error) {
	const op = "service.LinkService.Search"

	key := cache.SearchKey(originalURL)

	if blob, err := s.cache.Get(ctx, key); err == nil {
		var res models.SearchResult
		if err := json.Unmarshal([]byte(blob), &res); err == nil {
			return &res, nil
		}
	}

	link, err := s.repo.GetByOriginalURL(ctx, originalURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to search link: %w", op, err)
	}

	res := models.SearchResult{
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
	}

	if blob, err := json.Marshal(res); err == nil {
		_ = s.cache.Set(ctx, key, string(blob), cache.SearchTTL)
	}

	return &res, nil
}
