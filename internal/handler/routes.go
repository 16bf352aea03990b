package handler

import (
	"log/slog"
	"net/http"

	service "github.com/nglaszik/docwatch/internal/service/docwatch"
)

// NewRouter registers every docwatch route on a fresh mux.
func NewRouter(svcs *service.Services, logger *slog.Logger) *http.ServeMux {
	nodes := NewNodeHandler(svcs.Hierarchy, svcs.Query, logger)
	docs := NewDocumentHandler(svcs.Catalog, svcs.Revisions, svcs.Query, logger)
	watch := NewWatchlistHandler(svcs.Watchlist, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", HealthCheck)

	// Hierarchy
	mux.HandleFunc("GET /api/nodes", nodes.ListChildren)
	mux.HandleFunc("POST /api/folders", nodes.CreateFolder)
	mux.HandleFunc("POST /api/placements", nodes.PlaceDocument)
	mux.HandleFunc("PATCH /api/nodes/{id}", nodes.UpdateNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", nodes.DeleteNode)
	mux.HandleFunc("GET /api/search", nodes.Search)

	// Catalog and revision log
	mux.HandleFunc("GET /api/documents", docs.SearchDocuments)
	mux.HandleFunc("POST /api/documents", docs.RegisterDocument)
	mux.HandleFunc("GET /api/documents/{doc_id}", docs.GetDocument)
	mux.HandleFunc("POST /api/documents/{doc_id}/revisions", docs.AppendRevision)
	mux.HandleFunc("GET /api/documents/{doc_id}/revisions", docs.ListRevisions)
	mux.HandleFunc("GET /api/documents/{doc_id}/diff", docs.GetDiff)

	// Watchlist
	mux.HandleFunc("GET /api/watchlist", watch.ListWatched)
	mux.HandleFunc("GET /api/watchlist/{doc_id}", watch.IsWatching)
	mux.HandleFunc("PUT /api/watchlist/{doc_id}", watch.Watch)
	mux.HandleFunc("DELETE /api/watchlist/{doc_id}", watch.Unwatch)

	return mux
}
