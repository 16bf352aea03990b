package docwatch

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nglaszik/docwatch/internal/config"
	"github.com/nglaszik/docwatch/internal/domain"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	docwatchSvc "github.com/nglaszik/docwatch/internal/domain/services/docwatch"
)

func TestCreateFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "d1", "Doc One")
	placement := f.place(t, "d1", nil)

	t.Run("default name", func(t *testing.T) {
		folder, err := f.Hierarchy.CreateFolder(ctx, &docwatchSvc.CreateFolderRequest{Owner: owner})
		require.NoError(t, err)
		assert.Equal(t, models.DefaultFolderName, folder.Name)
		assert.Nil(t, folder.ParentID)
		assert.NotEmpty(t, folder.ID)
	})

	tests := []struct {
		name    string
		req     *docwatchSvc.CreateFolderRequest
		wantErr error
	}{
		{"blank name", &docwatchSvc.CreateFolderRequest{Owner: owner, Name: ptr("   ")}, domain.ErrValidation},
		{"missing owner", &docwatchSvc.CreateFolderRequest{Name: ptr("x")}, domain.ErrValidation},
		{"unknown parent", &docwatchSvc.CreateFolderRequest{Owner: owner, Name: ptr("x"), ParentID: ptr("nope")}, domain.ErrNotFound},
		{"parent is a placement", &docwatchSvc.CreateFolderRequest{Owner: owner, Name: ptr("x"), ParentID: &placement.ID}, domain.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Hierarchy.CreateFolder(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("empty parent means root", func(t *testing.T) {
		folder, err := f.Hierarchy.CreateFolder(ctx, &docwatchSvc.CreateFolderRequest{Owner: owner, Name: ptr("rooted"), ParentID: ptr("")})
		require.NoError(t, err)
		assert.Nil(t, folder.ParentID)
	})
}

func TestListChildren(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	projects := f.folder(t, "Projects", nil)
	work := f.folder(t, "work", &projects.ID)
	f.folder(t, "archive", &projects.ID)
	f.folder(t, "Beta", &projects.ID)
	f.register(t, "d1", "aaa notes")
	f.place(t, "d1", &projects.ID)
	f.append(t, "d1", "first", 1)

	listing, err := f.Hierarchy.ListChildren(ctx, owner, &projects.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"archive", "Beta", "work", "aaa notes"}, names(listing.Nodes), "folders first, then case-folded name")
	assert.Equal(t, []models.Breadcrumb{{ID: projects.ID, Name: "Projects"}}, listing.Breadcrumbs)

	placement, ok := listing.Nodes[3].(*models.Placement)
	require.True(t, ok)
	assert.Equal(t, "d1", placement.DocID)
	assert.Equal(t, owner, placement.DocumentOwner)
	require.NotNil(t, placement.LastUpdated)
	assert.True(t, placement.LastUpdated.Equal(at(1)))

	listing, err = f.Hierarchy.ListChildren(ctx, owner, &work.ID)
	require.NoError(t, err)
	assert.Empty(t, listing.Nodes)
	assert.Equal(t, []models.Breadcrumb{
		{ID: projects.ID, Name: "Projects"},
		{ID: work.ID, Name: "work"},
	}, listing.Breadcrumbs)

	root, err := f.Hierarchy.ListChildren(ctx, owner, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Projects"}, names(root.Nodes))
	assert.Empty(t, root.Breadcrumbs)

	_, err = f.Hierarchy.ListChildren(ctx, owner, ptr("missing"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.Hierarchy.ListChildren(ctx, "bob", &projects.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "another owner's folder is invisible")
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f1 := f.folder(t, "f1", nil)
	f2 := f.folder(t, "f2", &f1.ID)
	f3 := f.folder(t, "f3", &f2.ID)
	other := f.folder(t, "other", nil)

	t.Run("into itself", func(t *testing.T) {
		_, err := f.Hierarchy.Move(ctx, owner, f1.ID, &f1.ID)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("into a descendant", func(t *testing.T) {
		_, err := f.Hierarchy.Move(ctx, owner, f1.ID, &f3.ID)
		assert.ErrorIs(t, err, domain.ErrConflict)

		listing, err := f.Hierarchy.ListChildren(ctx, owner, &f2.ID)
		require.NoError(t, err)
		assert.Len(t, listing.Breadcrumbs, 2, "rejected move leaves the tree unchanged")
	})

	t.Run("unknown node or parent", func(t *testing.T) {
		_, err := f.Hierarchy.Move(ctx, owner, "missing", &f1.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = f.Hierarchy.Move(ctx, owner, f2.ID, ptr("missing"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("sideways", func(t *testing.T) {
		node, err := f.Hierarchy.Move(ctx, owner, f2.ID, &other.ID)
		require.NoError(t, err)
		assert.Equal(t, other.ID, *node.Base().ParentID)

		listing, err := f.Hierarchy.ListChildren(ctx, owner, &f3.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"other", "f2", "f3"}, crumbNames(listing.Breadcrumbs))
	})

	t.Run("to root", func(t *testing.T) {
		node, err := f.Hierarchy.Move(ctx, owner, f3.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, node.Base().ParentID)
	})
}

func crumbNames(crumbs []models.Breadcrumb) []string {
	out := make([]string, len(crumbs))
	for i, c := range crumbs {
		out[i] = c.Name
	}
	return out
}

func TestMove_NeverCreatesCycles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := rand.New(rand.NewSource(3))

	var ids []string
	for i := 0; i < 12; i++ {
		var parent *string
		if len(ids) > 0 && r.Intn(3) > 0 {
			parent = &ids[r.Intn(len(ids))]
		}
		ids = append(ids, f.folder(t, "n", parent).ID)
	}

	for i := 0; i < 300; i++ {
		node := ids[r.Intn(len(ids))]
		var parent *string
		if r.Intn(5) > 0 {
			parent = &ids[r.Intn(len(ids))]
		}
		_, err := f.Hierarchy.Move(ctx, owner, node, parent)
		if err != nil {
			require.ErrorIs(t, err, domain.ErrConflict)
		}

		for _, id := range ids {
			chain, err := f.repos.Nodes.ListAncestors(ctx, owner, id, config.MaxHierarchyDepth)
			require.NoError(t, err, "every node must still reach the root")
			seen := map[string]bool{}
			for _, n := range chain {
				require.False(t, seen[n.Base().ID], "node %s is its own ancestor", n.Base().ID)
				seen[n.Base().ID] = true
			}
		}
	}
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	folder := f.folder(t, "old", nil)

	node, err := f.Hierarchy.Rename(ctx, owner, folder.ID, "  new  ")
	require.NoError(t, err)
	assert.Equal(t, "new", node.Base().Name)

	_, err = f.Hierarchy.Rename(ctx, owner, folder.ID, " ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.Hierarchy.Rename(ctx, owner, "missing", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_CascadesAndKeepsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	top := f.folder(t, "top", nil)
	mid := f.folder(t, "mid", &top.ID)
	f.folder(t, "leaf", &mid.ID)
	keep := f.folder(t, "keep", nil)
	f.register(t, "d1", "tracked")
	f.place(t, "d1", &mid.ID)
	f.append(t, "d1", "v1", 1)
	require.NoError(t, f.Watchlist.Add(ctx, owner, "d1"))

	removed, err := f.Hierarchy.Delete(ctx, owner, top.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	root, err := f.Hierarchy.ListChildren(ctx, owner, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.Name}, names(root.Nodes))

	_, err = f.Hierarchy.ListChildren(ctx, owner, &mid.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	watching, err := f.Watchlist.IsWatching(ctx, owner, "d1")
	require.NoError(t, err)
	assert.True(t, watching)

	revs, err := f.Revisions.List(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, revs, 1)

	// The document can be placed again after its placement was removed.
	f.place(t, "d1", nil)

	_, err = f.Hierarchy.Delete(ctx, owner, top.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "d1", "Quarterly report")
	folder := f.folder(t, "reports", nil)

	p := f.place(t, "d1", &folder.ID)
	assert.Equal(t, "Quarterly report", p.Name, "name defaults to the document name")
	assert.Equal(t, folder.ID, *p.ParentID)

	_, err := f.Hierarchy.PlaceDocument(ctx, &docwatchSvc.PlaceDocumentRequest{Owner: owner, DocID: "d1"})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, p.ID, conflict.ResourceID)

	_, err = f.Hierarchy.PlaceDocument(ctx, &docwatchSvc.PlaceDocumentRequest{Owner: owner, DocID: "unknown"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Another owner may place the same document in their own hierarchy.
	other, err := f.Hierarchy.PlaceDocument(ctx, &docwatchSvc.PlaceDocumentRequest{Owner: "bob", DocID: "d1", Name: ptr("shared")})
	require.NoError(t, err)
	assert.Equal(t, "shared", other.Name)
	assert.Equal(t, owner, other.DocumentOwner)
}

func TestHierarchy_DepthLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "d1", "Doc")

	// chain[i] sits at depth i+1.
	var chain []*models.Folder
	var parent *string
	for i := 0; i < config.MaxHierarchyDepth; i++ {
		folder := f.folder(t, fmt.Sprintf("level-%d", i+1), parent)
		chain = append(chain, folder)
		parent = &folder.ID
	}
	deepest := chain[len(chain)-1]

	_, err := f.Hierarchy.CreateFolder(ctx, &docwatchSvc.CreateFolderRequest{Owner: owner, Name: ptr("too deep"), ParentID: &deepest.ID})
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.Hierarchy.PlaceDocument(ctx, &docwatchSvc.PlaceDocumentRequest{Owner: owner, DocID: "d1", ParentID: &deepest.ID})
	require.ErrorIs(t, err, domain.ErrConflict)

	listing, err := f.Hierarchy.ListChildren(ctx, owner, &deepest.ID)
	require.NoError(t, err)
	assert.Len(t, listing.Breadcrumbs, config.MaxHierarchyDepth)
	assert.Empty(t, listing.Nodes)

	top := f.folder(t, "top", nil)
	f.folder(t, "child", &top.ID)

	// Two levels under depth 255 would reach 257.
	_, err = f.Hierarchy.Move(ctx, owner, top.ID, &chain[config.MaxHierarchyDepth-2].ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.NotErrorIs(t, err, domain.ErrInvariant)

	_, err = f.Hierarchy.Move(ctx, owner, top.ID, &chain[config.MaxHierarchyDepth-3].ID)
	require.NoError(t, err)

	// Moving the root of the chain anywhere deeper is refused, not reported as corruption.
	_, err = f.Hierarchy.Move(ctx, owner, chain[0].ID, &top.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.NotErrorIs(t, err, domain.ErrInvariant)
}
