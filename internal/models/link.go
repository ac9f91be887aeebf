package models

import "time"

// Link represents a shortened link and its associated metadata.
type Link struct {
	// ID is the unique identifier for the link record.
	ID int64
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// ShortCode is the short code associated with the original URL.
	ShortCode string
	// CreatedAt is the timestamp indicating when the link was created.
	CreatedAt time.Time
	// ExpiresAt is the timestamp after which the link must not be served.
	// A nil value means the link never expires.
	ExpiresAt *time.Time
	// LastAccessed is the timestamp of the most recent store-path redirect.
	LastAccessed *time.Time
	// AccessCount tracks the number of times the link has been resolved
	// through the store. Cache-path redirects do not increment it.
	AccessCount int64
	// OwnerID references the account that created the link.
	// A nil value means the link was created anonymously.
	OwnerID *int64
}

// ExpiredAt reports whether the link is past its expiry at the given instant.
// A link whose expiry equals the instant is already expired.
func (l *Link) ExpiredAt(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

// StatsView is the serializable statistics projection of a link.
// Timestamps marshal as RFC 3339 strings, or null when absent.
type StatsView struct {
	ID           int64      `json:"id"`
	ShortCode    string     `json:"short_code"`
	OriginalURL  string     `json:"original_url"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at"`
	OwnerID      *int64     `json:"owner_id"`
	AccessCount  int64      `json:"access_count"`
	LastAccessed *time.Time `json:"last_accessed"`
}

// StatsViewFromLink builds the statistics projection for a link.
func StatsViewFromLink(link *Link) StatsView {
	return StatsView{
		ID:           link.ID,
		ShortCode:    link.ShortCode,
		OriginalURL:  link.OriginalURL,
		CreatedAt:    link.CreatedAt,
		ExpiresAt:    link.ExpiresAt,
		OwnerID:      link.OwnerID,
		AccessCount:  link.AccessCount,
		LastAccessed: link.LastAccessed,
	}
}

// SearchResult is the serializable result of a search by original URL.
type SearchResult struct {
	ShortCode   string `json:"short_code"`
	OriginalURL string `json:"original_url"`
}
