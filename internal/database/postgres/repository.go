package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mbochenko/shortly/internal/database"
	"github.com/mbochenko/shortly/internal/models"
)

type linkRecord struct {
	ID           int64      `db:"id"`
	OriginalURL  string     `db:"original_url"`
	ShortCode    string     `db:"short_code"`
	CreatedAt    time.Time  `db:"created_at"`
	ExpiresAt    *time.Time `db:"expires_at"`
	LastAccessed *time.Time `db:"last_accessed"`
	AccessCount  int64      `db:"access_count"`
	OwnerID      *int64     `db:"owner_id"`
}

func (r *linkRecord) ToLink() *models.Link {
	return &models.Link{
		ID:           r.ID,
		OriginalURL:  r.OriginalURL,
		ShortCode:    r.ShortCode,
		CreatedAt:    r.CreatedAt,
		ExpiresAt:    r.ExpiresAt,
		LastAccessed: r.LastAccessed,
		AccessCount:  r.AccessCount,
		OwnerID:      r.OwnerID,
	}
}

// LinkRepository is the durable store of links. Short code uniqueness is
// enforced by the links.short_code unique constraint, not by application
// locking. Owner-scoped operations match the owner column with
// IS NOT DISTINCT FROM, so an anonymous caller only reaches ownerless rows.
type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db: db,
	}
}

// Create inserts a new link. It returns database.ErrShortCodeExists when the
// short code is already taken.
func (r *LinkRepository) Create(ctx context.Context, originalURL, shortCode string, expiresAt *time.Time, ownerID *int64) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.Create"

	rec := new(linkRecord)
	query := `INSERT INTO links(original_url, short_code, expires_at, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, originalURL, shortCode, expiresAt, ownerID)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// GetByShortCode retrieves a link by its short code. Reading does not touch
// the access statistics; the service bumps them separately on store-path
// redirects.
func (r *LinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.GetByShortCode"

	rec := new(linkRecord)
	query := `SELECT * FROM links
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// GetByShortCodeAndOwner retrieves a link by short code, restricted to the
// given owner. Missing and not-owned links are indistinguishable.
func (r *LinkRepository) GetByShortCodeAndOwner(ctx context.Context, shortCode string, ownerID *int64) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.GetByShortCodeAndOwner"

	rec := new(linkRecord)
	query := `SELECT * FROM links
		WHERE short_code = $1 AND owner_id IS NOT DISTINCT FROM $2`

	err := r.db.GetContext(ctx, rec, query, shortCode, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// GetByOriginalURL retrieves the first link matching the original URL.
// Ordering among duplicates is unspecified.
func (r *LinkRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.GetByOriginalURL"

	rec := new(linkRecord)
	query := `SELECT * FROM links
		WHERE original_url = $1
		LIMIT 1`

	err := r.db.GetContext(ctx, rec, query, originalURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// UpdateURL replaces the original URL of an owned link. A link that does not
// exist or belongs to another owner yields database.ErrLinkNotFound.
func (r *LinkRepository) UpdateURL(ctx context.Context, shortCode string, ownerID *int64, newURL string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.UpdateURL"

	rec := new(linkRecord)
	query := `UPDATE links
		SET original_url = $1
		WHERE short_code = $2 AND owner_id IS NOT DISTINCT FROM $3
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, newURL, shortCode, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// Delete physically removes an owned link. A link that does not exist or
// belongs to another owner yields database.ErrLinkNotFound.
func (r *LinkRepository) Delete(ctx context.Context, shortCode string, ownerID *int64) error {
	const op = "database.postgres.LinkRepository.Delete"

	query := `DELETE FROM links
		WHERE short_code = $1 AND owner_id IS NOT DISTINCT FROM $2`

	res, err := r.db.ExecContext(ctx, query, shortCode, ownerID)
	if err != nil {
		return fmt.Errorf("%s: failed to delete link record: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
	}

	return nil
}

// BumpStats increments the access count and stamps the last access time.
// It fails with database.ErrLinkNotFound if the link was deleted in the
// meantime.
func (r *LinkRepository) BumpStats(ctx context.Context, id int64, accessedAt time.Time) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.BumpStats"

	rec := new(linkRecord)
	query := `UPDATE links
		SET access_count = access_count + 1, last_accessed = $2
		WHERE id = $1
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, id, accessedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to bump link stats: %w", op, err)
	}

	return rec.ToLink(), nil
}

// SweepExpired deletes every link whose expiry is strictly before now and
// returns the deleted links. Concurrent sweeps are safe: rows already gone
// are simply not matched.
func (r *LinkRepository) SweepExpired(ctx context.Context, now time.Time) ([]models.Link, error) {
	const op = "database.postgres.LinkRepository.SweepExpired"

	var recs []linkRecord
	query := `DELETE FROM links
		WHERE expires_at IS NOT NULL AND expires_at < $1
		RETURNING *`

	err := r.db.SelectContext(ctx, &recs, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to sweep expired links: %w", op, err)
	}

	links := make([]models.Link, 0, len(recs))
	for _, rec := range recs {
		links = append(links, *rec.ToLink())
	}

	return links, nil
}
