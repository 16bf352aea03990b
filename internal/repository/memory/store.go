// Package memory provides an in-process implementation of the docwatch repositories.
// It backs the server when no DATABASE_URL is configured and is the fixture for
// service tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	"github.com/nglaszik/docwatch/internal/domain/repositories"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
)

// Store holds all tables. Transactions are serialized by txMu and undone from a
// snapshot on failure; individual reads and writes take mu. Repository calls made
// outside a transaction wait for the running one to finish, so they never see
// uncommitted state and a rollback never discards them.
//
// One transaction runs at a time across all owners and documents, including the
// diff computed inside an append. That is acceptable for a development store;
// Postgres only serializes per owner or per document.
type Store struct {
	txMu sync.RWMutex

	mu        sync.RWMutex
	nodes     map[string]models.NodeRecord
	documents map[string]models.Document
	revisions map[string][]models.Revision // per doc, ascending revision_time
	watchlist map[string]map[string]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		nodes:     map[string]models.NodeRecord{},
		documents: map[string]models.Document{},
		revisions: map[string][]models.Revision{},
		watchlist: map[string]map[string]struct{}{},
	}
}

type snapshot struct {
	nodes     map[string]models.NodeRecord
	documents map[string]models.Document
	revisions map[string][]models.Revision
	watchlist map[string]map[string]struct{}
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		nodes:     maps.Clone(s.nodes),
		documents: maps.Clone(s.documents),
		revisions: make(map[string][]models.Revision, len(s.revisions)),
		watchlist: make(map[string]map[string]struct{}, len(s.watchlist)),
	}
	for docID, revs := range s.revisions {
		snap.revisions[docID] = slices.Clone(revs)
	}
	for owner, set := range s.watchlist {
		snap.watchlist[owner] = maps.Clone(set)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = snap.nodes
	s.documents = snap.documents
	s.revisions = snap.revisions
	s.watchlist = snap.watchlist
}

type txMarker struct{}

// guard holds txMu for a repository call made outside ExecTx: shared for reads,
// exclusive for writes. Inside a transaction it is a no-op.
func (s *Store) guard(ctx context.Context, write bool) func() {
	if inTx(ctx) {
		return func() {}
	}
	if write {
		s.txMu.Lock()
		return s.txMu.Unlock
	}
	s.txMu.RLock()
	return s.txMu.RUnlock
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txMarker{}).(bool)
	return ok
}

// TransactionManager runs units of work against a Store one at a time.
type TransactionManager struct {
	store *Store
}

// NewTransactionManager creates a transaction manager for store.
func NewTransactionManager(store *Store) repositories.TransactionManager {
	return &TransactionManager{store: store}
}

// ExecTx runs fn exclusively and rolls back every write it made if it fails.
// Nested calls join the outer transaction.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := tm.store.snapshot()
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		tm.store.restore(snap)
		return err
	}
	return nil
}

// NewRepositories wires every repository to one fresh Store.
func NewRepositories() docwatchRepo.Repositories {
	store := NewStore()
	return docwatchRepo.Repositories{
		Nodes:     NewNodeRepository(store),
		Documents: NewDocumentRepository(store),
		Revisions: NewRevisionRepository(store),
		Watchlist: NewWatchlistRepository(store),
		Tx:        NewTransactionManager(store),
	}
}
