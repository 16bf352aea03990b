package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nglaszik/docwatch/internal/config"
	"github.com/nglaszik/docwatch/internal/domain"
)

// maxBodyBytes leaves room for JSON escaping around the largest accepted snapshot.
const maxBodyBytes = 2*config.MaxContentBytes + 1<<20

// ParseJSON decodes the request body into dest. Oversized bodies and malformed
// JSON both come back as domain errors so handlers can respond uniformly.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &domain.ResourceLimitError{
				Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				Limit:   int(tooLarge.Limit),
			}
		}
		return domain.NewValidation(fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

// QueryInt reads an integer query parameter, returning def when it is absent.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidation(fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}

// ParseTime accepts RFC 3339 timestamps, with or without fractional seconds.
func ParseTime(name, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, domain.NewValidation(name + " is required")
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, domain.NewValidation(fmt.Sprintf("%s must be an RFC 3339 timestamp", name))
	}
	return t, nil
}
