package handler

import (
	"log/slog"
	"net/http"

	docwatchSvc "github.com/nglaszik/docwatch/internal/domain/services/docwatch"
	"github.com/nglaszik/docwatch/internal/httputil"
)

// WatchlistHandler handles watchlist HTTP requests
type WatchlistHandler struct {
	watchlist docwatchSvc.WatchlistService
	logger    *slog.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(watchlist docwatchSvc.WatchlistService, logger *slog.Logger) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist, logger: logger}
}

// ListWatched returns the caller's watched documents
// GET /api/watchlist
func (h *WatchlistHandler) ListWatched(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	docIDs, err := h.watchlist.ListWatched(r.Context(), owner)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"doc_ids": docIDs})
}

type watchStatus struct {
	DocID    string `json:"doc_id"`
	Watching bool   `json:"watching"`
}

// IsWatching reports whether the caller watches a document
// GET /api/watchlist/{doc_id}
func (h *WatchlistHandler) IsWatching(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	docID := r.PathValue("doc_id")

	watching, err := h.watchlist.IsWatching(r.Context(), owner, docID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, watchStatus{DocID: docID, Watching: watching})
}

// Watch adds a document to the caller's watchlist
// PUT /api/watchlist/{doc_id}
func (h *WatchlistHandler) Watch(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	docID := r.PathValue("doc_id")

	if err := h.watchlist.Add(r.Context(), owner, docID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, watchStatus{DocID: docID, Watching: true})
}

// Unwatch removes a document from the caller's watchlist
// DELETE /api/watchlist/{doc_id}
func (h *WatchlistHandler) Unwatch(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	if err := h.watchlist.Remove(r.Context(), owner, r.PathValue("doc_id")); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
