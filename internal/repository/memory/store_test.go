package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nglaszik/docwatch/internal/domain"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
)

func folder(id string, parent *string) *models.Folder {
	now := time.Now().UTC()
	return &models.Folder{NodeBase: models.NodeBase{
		ID: id, Owner: "alice", ParentID: parent, Name: id, CreatedAt: now, UpdatedAt: now,
	}}
}

func TestExecTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	require.NoError(t, repos.Documents.Create(ctx, &models.Document{DocID: "d1", Owner: "alice", Name: "doc"}))

	boom := errors.New("boom")
	err := repos.Tx.ExecTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repos.Nodes.Create(ctx, folder("f1", nil)))
		require.NoError(t, repos.Documents.UpdateName(ctx, "d1", "renamed"))
		require.NoError(t, repos.Watchlist.Add(ctx, "alice", "d1"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repos.Nodes.GetByID(ctx, "alice", "f1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	doc, err := repos.Documents.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "doc", doc.Name)
	watching, err := repos.Watchlist.Exists(ctx, "alice", "d1")
	require.NoError(t, err)
	assert.False(t, watching)
}

func TestExecTx_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()

	err := repos.Tx.ExecTx(ctx, func(ctx context.Context) error {
		if err := repos.Tx.ExecTx(ctx, func(ctx context.Context) error {
			return repos.Nodes.Create(ctx, folder("inner", nil))
		}); err != nil {
			return err
		}
		return errors.New("outer fails")
	})
	require.Error(t, err)

	_, err = repos.Nodes.GetByID(ctx, "alice", "inner")
	assert.ErrorIs(t, err, domain.ErrNotFound, "inner work is undone with the outer transaction")
}

// openTx starts a transaction that creates d1 and then waits for release. The
// returned channel yields the transaction's result.
func openTx(t *testing.T, repos docwatchRepo.Repositories, outcome error) (release func(), done <-chan error) {
	t.Helper()
	written := make(chan struct{})
	releaseCh := make(chan struct{})
	result := make(chan error, 1)

	go func() {
		result <- repos.Tx.ExecTx(context.Background(), func(ctx context.Context) error {
			if err := repos.Documents.Create(ctx, &models.Document{DocID: "d1", Owner: "alice", Name: "doc"}); err != nil {
				return err
			}
			close(written)
			<-releaseCh
			return outcome
		})
	}()

	<-written
	return func() { close(releaseCh) }, result
}

func TestStore_ReadsOutsideTxSeeOnlyCommittedState(t *testing.T) {
	repos := NewRepositories()
	release, done := openTx(t, repos, errors.New("abort"))

	read := make(chan error, 1)
	go func() {
		_, err := repos.Documents.GetByID(context.Background(), "d1")
		read <- err
	}()

	select {
	case err := <-read:
		t.Fatalf("read finished while the transaction was open: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	release()
	require.Error(t, <-done)
	assert.ErrorIs(t, <-read, domain.ErrNotFound)
}

func TestStore_WritesOutsideTxSurviveRollback(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	require.NoError(t, repos.Documents.Create(ctx, &models.Document{DocID: "d0", Owner: "alice", Name: "doc"}))

	release, done := openTx(t, repos, errors.New("abort"))

	added := make(chan error, 1)
	go func() { added <- repos.Watchlist.Add(context.Background(), "bob", "d0") }()

	time.Sleep(10 * time.Millisecond)
	release()
	require.Error(t, <-done)
	require.NoError(t, <-added)

	watching, err := repos.Watchlist.Exists(ctx, "bob", "d0")
	require.NoError(t, err)
	assert.True(t, watching, "a write that returned nil must not be rolled back")

	_, err = repos.Documents.GetByID(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNodes_ReferentialChecks(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()

	err := repos.Nodes.Create(ctx, folder("orphan", ptr("missing")))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repos.Nodes.Create(ctx, folder("f1", nil)))
	assert.ErrorIs(t, repos.Nodes.Create(ctx, folder("f1", nil)), domain.ErrConflict)

	placement := &models.Placement{
		NodeBase: models.NodeBase{ID: "p1", Owner: "alice", Name: "p"},
		DocID:    "unregistered",
	}
	assert.ErrorIs(t, repos.Nodes.Create(ctx, placement), domain.ErrNotFound)

	// Another owner's folder is not a valid parent.
	bobs := folder("b1", ptr("f1"))
	bobs.Owner = "bob"
	assert.ErrorIs(t, repos.Nodes.Create(ctx, bobs), domain.ErrNotFound)
}

func TestNodes_AncestorsAndSubtree(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	require.NoError(t, repos.Nodes.Create(ctx, folder("a", nil)))
	require.NoError(t, repos.Nodes.Create(ctx, folder("b", ptr("a"))))
	require.NoError(t, repos.Nodes.Create(ctx, folder("c", ptr("b"))))
	require.NoError(t, repos.Nodes.Create(ctx, folder("d", ptr("a"))))

	chain, err := repos.Nodes.ListAncestors(ctx, "alice", "c", 10)
	require.NoError(t, err)
	var ids []string
	for _, n := range chain {
		ids = append(ids, n.Base().ID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids)

	_, err = repos.Nodes.ListAncestors(ctx, "alice", "c", 2)
	assert.ErrorIs(t, err, domain.ErrInvariant)

	height, err := repos.Nodes.SubtreeHeight(ctx, "alice", "a", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, height)
	height, err = repos.Nodes.SubtreeHeight(ctx, "alice", "c", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, height)
	height, err = repos.Nodes.SubtreeHeight(ctx, "alice", "a", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, height, "counting stops one past the bound")
	_, err = repos.Nodes.SubtreeHeight(ctx, "bob", "a", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	removed, err := repos.Nodes.DeleteSubtree(ctx, "alice", "b")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	children, err := repos.Nodes.ListChildren(ctx, "alice", ptr("a"))
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "d", children[0].Base().ID)
}

func TestRevisions_PreviousAndSummaries(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	require.NoError(t, repos.Documents.Create(ctx, &models.Document{DocID: "d1", Owner: "alice", Name: "doc"}))

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, offset := range []int{3, 1, 2} {
		require.NoError(t, repos.Revisions.Create(ctx, &models.Revision{
			DocID:        "d1",
			RevisionTime: base.Add(time.Duration(offset) * time.Hour),
			AddedCount:   offset,
		}))
	}
	assert.ErrorIs(t, repos.Revisions.Create(ctx, &models.Revision{DocID: "d1", RevisionTime: base.Add(time.Hour)}), domain.ErrConflict)

	prev, err := repos.Revisions.GetPrevious(ctx, "d1", base.Add(2*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, 1, prev.AddedCount)

	prev, err = repos.Revisions.GetPrevious(ctx, "d1", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, prev)

	summaries, err := repos.Revisions.ListSummaries(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, []int{3, 2, 1}, []int{summaries[0].AddedCount, summaries[1].AddedCount, summaries[2].AddedCount})
}

func ptr(s string) *string { return &s }
