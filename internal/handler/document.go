package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nglaszik/docwatch/internal/diff"
	"github.com/nglaszik/docwatch/internal/domain"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	docwatchSvc "github.com/nglaszik/docwatch/internal/domain/services/docwatch"
	"github.com/nglaszik/docwatch/internal/httputil"
)

// DocumentHandler handles catalog and revision HTTP requests
type DocumentHandler struct {
	catalog   docwatchSvc.DocumentCatalog
	revisions docwatchSvc.RevisionService
	query     docwatchSvc.QueryService
	logger    *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	catalog docwatchSvc.DocumentCatalog,
	revisions docwatchSvc.RevisionService,
	query docwatchSvc.QueryService,
	logger *slog.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		catalog:   catalog,
		revisions: revisions,
		query:     query,
		logger:    logger,
	}
}

// SearchDocuments looks documents up in the catalog
// GET /api/documents?q=&limit=
func (h *DocumentHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", models.DefaultCatalogLimit)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	docs, err := h.query.SearchDocuments(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// RegisterDocument registers or renames a document owned by the caller
// POST /api/documents
func (h *DocumentHandler) RegisterDocument(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	var req docwatchSvc.RegisterDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	req.Owner = owner

	doc, err := h.catalog.Register(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// GetDocument retrieves a document
// GET /api/documents/{doc_id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.catalog.Get(r.Context(), r.PathValue("doc_id"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// AppendRevisionRequest is a producer push. Timestamp defaults to the time the
// request was received.
type AppendRevisionRequest struct {
	Content   *string `json:"content"`
	Timestamp string  `json:"timestamp"`
}

// AppendRevision records a content snapshot for a document owned by the caller
// POST /api/documents/{doc_id}/revisions
func (h *DocumentHandler) AppendRevision(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	docID := r.PathValue("doc_id")

	var body AppendRevisionRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if body.Content == nil {
		handleError(w, r, h.logger, domain.NewValidation("content: cannot be blank."))
		return
	}

	ts := time.Now()
	if strings.TrimSpace(body.Timestamp) != "" {
		if ts, err = httputil.ParseTime("timestamp", body.Timestamp); err != nil {
			handleError(w, r, h.logger, err)
			return
		}
	}

	doc, err := h.catalog.Get(r.Context(), docID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if doc.Owner != owner {
		handleError(w, r, h.logger, fmt.Errorf("document %s belongs to another owner: %w", docID, domain.ErrForbidden))
		return
	}

	rev, err := h.revisions.Append(r.Context(), &docwatchSvc.AppendRequest{
		DocID:     docID,
		Content:   *body.Content,
		Timestamp: ts,
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, rev)
}

// ListRevisions returns a document's history, newest first
// GET /api/documents/{doc_id}/revisions
func (h *DocumentHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")

	revs, err := h.revisions.List(r.Context(), docID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"doc_id":    docID,
		"revisions": revs,
	})
}

// DiffResponse carries the blocks between a revision and its predecessor.
type DiffResponse struct {
	DocID        string      `json:"doc_id"`
	RevisionTime time.Time   `json:"revision_time"`
	Blocks       diff.Blocks `json:"blocks"`
}

// GetDiff returns the diff blocks of one revision
// GET /api/documents/{doc_id}/diff?revision_time=
func (h *DocumentHandler) GetDiff(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")

	ts, err := httputil.ParseTime("revision_time", r.URL.Query().Get("revision_time"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	blocks, err := h.revisions.DiffBetween(r.Context(), docID, ts)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, DiffResponse{
		DocID:        docID,
		RevisionTime: models.NormalizeRevisionTime(ts),
		Blocks:       blocks,
	})
}
