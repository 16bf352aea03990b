package handler

import (
	"net/http"

	"github.com/nglaszik/docwatch/internal/domain"
	"github.com/nglaszik/docwatch/internal/httputil"
)

// requireOwner returns the authenticated owner, or ErrUnauthorized when the
// auth middleware did not set one.
func requireOwner(r *http.Request) (string, error) {
	owner := httputil.GetOwner(r)
	if owner == "" {
		return "", domain.ErrUnauthorized
	}
	return owner, nil
}
