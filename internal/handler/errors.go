package handler

import (
	"log/slog"
	"net/http"

	"github.com/nglaszik/docwatch/internal/httputil"
)

// handleError converts domain errors to problem responses
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	httputil.RespondDomainError(w, r, logger, err)
}
