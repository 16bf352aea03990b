package docwatch

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nglaszik/docwatch/internal/diff"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	docwatchSvc "github.com/nglaszik/docwatch/internal/domain/services/docwatch"
	"github.com/nglaszik/docwatch/internal/repository/memory"
)

const owner = "alice"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

type fixture struct {
	*Services
	repos docwatchRepo.Repositories
}

func newFixture(t *testing.T, opts ...diff.Options) *fixture {
	t.Helper()

	engineOpts := diff.DefaultOptions()
	if len(opts) > 0 {
		engineOpts = opts[0]
	}
	repos := memory.NewRepositories()
	return &fixture{
		Services: New(repos, diff.New(engineOpts), testRetry(), testLogger()),
		repos:    repos,
	}
}

func (f *fixture) register(t *testing.T, docID, name string) *models.Document {
	t.Helper()
	doc, err := f.Catalog.Register(context.Background(), &docwatchSvc.RegisterDocumentRequest{
		DocID: docID,
		Owner: owner,
		Name:  name,
	})
	require.NoError(t, err)
	return doc
}

func (f *fixture) folder(t *testing.T, name string, parentID *string) *models.Folder {
	t.Helper()
	folder, err := f.Hierarchy.CreateFolder(context.Background(), &docwatchSvc.CreateFolderRequest{
		Owner:    owner,
		Name:     &name,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return folder
}

func (f *fixture) place(t *testing.T, docID string, parentID *string) *models.Placement {
	t.Helper()
	p, err := f.Hierarchy.PlaceDocument(context.Background(), &docwatchSvc.PlaceDocumentRequest{
		Owner:    owner,
		DocID:    docID,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) append(t *testing.T, docID, content string, ts int64) *models.Revision {
	t.Helper()
	rev, err := f.Revisions.Append(context.Background(), &docwatchSvc.AppendRequest{
		DocID:     docID,
		Content:   content,
		Timestamp: at(ts),
	})
	require.NoError(t, err)
	return rev
}

// at maps a small integer onto a fixed UTC timeline.
func at(ts int64) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(ts) * time.Second)
}

func ptr(s string) *string { return &s }

func names(nodes []models.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Base().Name
	}
	return out
}
