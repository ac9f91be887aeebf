package cache

import (
	"fmt"
	"time"
)

// TTLs per key family. Redirect entries may outlive an authoritative
// deletion by at most their TTL when invalidation is missed; that staleness
// window is accepted and bounded here.
const (
	RedirectTTL = time.Hour
	StatsTTL    = 5 * time.Minute
	SearchTTL   = 5 * time.Minute
)

// RedirectKey maps a short code to its original URL.
func RedirectKey(shortCode string) string {
	return "redirect:" + shortCode
}

// StatsKey maps a short code and its owner to a serialized stats blob.
// Anonymous links use a fixed owner segment.
func StatsKey(shortCode string, ownerID *int64) string {
	return fmt.Sprintf("stats:%s:%s", shortCode, ownerPart(ownerID))
}

// SearchKey maps an original URL to a serialized search result.
func SearchKey(originalURL string) string {
	return "search:" + originalURL
}

// LinkKeys enumerates every cache key derived from a link's identity.
// Mutations must invalidate all of them; keeping the enumeration in one
// place prevents new key families from being missed.
func LinkKeys(shortCode string, ownerID *int64) []string {
	return []string{
		RedirectKey(shortCode),
		StatsKey(shortCode, ownerID),
	}
}

func ownerPart(ownerID *int64) string {
	if ownerID == nil {
		return "anon"
	}
	return fmt.Sprintf("%d", *ownerID)
}
