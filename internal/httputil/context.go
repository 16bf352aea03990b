package httputil

import (
	"context"
	"net/http"
)

type contextKey string

const ownerKey contextKey = "owner"

// WithOwner adds the authenticated owner to the request context
func WithOwner(r *http.Request, owner string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ownerKey, owner))
}

// GetOwner retrieves the owner from context, returns empty string if not found
func GetOwner(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey).(string)
	return owner
}
