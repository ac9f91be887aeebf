// Package identity resolves the optional owner of a request. Authentication
// itself lives outside this service; the resolved owner id is all the link
// core consumes.
package identity

import (
	"fmt"
	"net/http"
	"strconv"
)

// Provider yields the owner account id for a request. Anonymous requests
// resolve to nil, which is a valid state: links may be created without an
// owner.
type Provider interface {
	Resolve(r *http.Request) (*int64, error)
}

// DefaultOwnerHeader is the header the bundled provider reads.
const DefaultOwnerHeader = "X-Owner-ID"

// HeaderProvider trusts an owner id header stamped by an upstream
// authentication gateway. An absent header means an anonymous caller.
type HeaderProvider struct {
	// Header overrides DefaultOwnerHeader when non-empty.
	Header string
}

func (p HeaderProvider) Resolve(r *http.Request) (*int64, error) {
	const op = "identity.HeaderProvider.Resolve"

	header := p.Header
	if header == "" {
		header = DefaultOwnerHeader
	}

	val := r.Header.Get(header)
	if val == "" {
		return nil, nil
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed owner id %q: %w", op, val, err)
	}

	return &id, nil
}
