package database

import "errors"

var (
	// ErrShortCodeExists is returned when an attempt is made to create
	// a new link with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrLinkNotFound is returned when no link matches the query. The store
	// reports a missing link, an expired link and a link owned by someone
	// else with this same error so that callers cannot probe for the
	// existence of links they do not own.
	ErrLinkNotFound = errors.New("link not found")
)
