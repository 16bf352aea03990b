package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nglaszik/docwatch/internal/domain"
)

// RespondJSON writes a JSON response with the given status code.
// The payload is marshaled first so an encoding failure never leaves a partial body.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// ProblemDetail represents an RFC 7807 Problem Details response
type ProblemDetail struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Extra    map[string]any `json:"-"`
}

// MarshalJSON flattens Extra into the top-level object
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":   p.Type,
		"title":  p.Title,
		"status": p.Status,
	}
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	for k, v := range p.Extra {
		m[k] = v
	}
	return json.Marshal(m)
}

// RespondError writes an RFC 7807 Problem Details error response
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondErrorWithExtras(w, status, detail, nil)
}

// RespondErrorWithExtras writes an RFC 7807 error with additional fields
func RespondErrorWithExtras(w http.ResponseWriter, status int, detail string, extras map[string]any) {
	problem := ProblemDetail{
		Type:   errorTypeFromStatus(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Extra:  extras,
	}

	payload, err := json.Marshal(problem)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	w.Write(payload)
}

// RespondDomainError maps err onto a problem response carrying its kind.
// Internal failures are logged and answered without detail.
func RespondDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := domain.KindOf(err)

	status := http.StatusInternalServerError
	var httpErr domain.HTTPError
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.StatusCode()
	case kind == domain.KindUnauthorized:
		status = http.StatusUnauthorized
	case kind == domain.KindForbidden:
		status = http.StatusForbidden
	}

	extras := map[string]any{"kind": kind}
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) && conflict.ResourceID != "" {
		extras["resource_type"] = conflict.ResourceType
		extras["resource_id"] = conflict.ResourceID
	}

	detail := err.Error()
	if kind == domain.KindInternal || kind == domain.KindInvariant {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", kind,
			"error", err,
		)
		detail = "internal server error"
	}

	RespondErrorWithExtras(w, status, detail, extras)
}

func errorTypeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.1"
	case http.StatusUnauthorized:
		return "https://datatracker.ietf.org/doc/html/rfc7235#section-3.1"
	case http.StatusForbidden:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.3"
	case http.StatusNotFound:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.4"
	case http.StatusConflict:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.8"
	case http.StatusRequestEntityTooLarge:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.11"
	case http.StatusInternalServerError:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.1"
	case http.StatusServiceUnavailable:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.4"
	default:
		return "about:blank"
	}
}
