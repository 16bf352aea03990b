package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nglaszik/docwatch/internal/app"
	"github.com/nglaszik/docwatch/internal/domain"
	docwatchSvc "github.com/nglaszik/docwatch/internal/domain/services/docwatch"
	"github.com/nglaszik/docwatch/internal/httputil"
)

// IngestCommand pushes one content snapshot, the way the producer does.
type IngestCommand struct {
	*baseCommand

	flagDoc   string
	flagOwner string
	flagName  string
	flagFile  string
	flagTime  string
}

func (c *IngestCommand) Synopsis() string {
	return "Record a content snapshot for a document"
}

func (c *IngestCommand) Help() string {
	return strings.TrimSpace(`
Usage: docwatchctl ingest -doc <id> [options]

  Reads the document content from -file (or stdin) and appends it to the
  document's revision log. Unknown documents are registered first, which
  needs -owner.`) + "\n" + flagHelp(c.flags())
}

func (c *IngestCommand) flags() *flag.FlagSet {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.StringVar(&c.flagDoc, "doc", "", "(Required) Document id.")
	fs.StringVar(&c.flagOwner, "owner", "", "Owner to register the document under.")
	fs.StringVar(&c.flagName, "name", "", "Document name; registers or renames the document.")
	fs.StringVar(&c.flagFile, "file", "-", "Content file, - for stdin.")
	fs.StringVar(&c.flagTime, "time", "", "Revision time (RFC 3339). Defaults to now.")
	return fs
}

func (c *IngestCommand) Run(args []string) int {
	if !c.parse(c.flags(), args) {
		return 1
	}
	if c.flagDoc == "" {
		c.UI.Error("-doc is required")
		return 1
	}

	ts := time.Now()
	if c.flagTime != "" {
		var err error
		if ts, err = httputil.ParseTime("time", c.flagTime); err != nil {
			c.UI.Error(err.Error())
			return 1
		}
	}

	content, err := c.readContent()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	return c.withApp(app.Options{}, func(ctx context.Context, a *app.App) error {
		if err := c.ensureRegistered(ctx, a); err != nil {
			return err
		}

		rev, err := a.Services.Revisions.Append(ctx, &docwatchSvc.AppendRequest{
			DocID:     c.flagDoc,
			Content:   content,
			Timestamp: ts,
		})
		if err != nil {
			return err
		}

		c.UI.Output(fmt.Sprintf("%s %s +%d -%d", rev.DocID, rev.RevisionTime.Format(time.RFC3339Nano), rev.AddedCount, rev.DeletedCount))
		return nil
	})
}

func (c *IngestCommand) ensureRegistered(ctx context.Context, a *app.App) error {
	doc, err := a.Services.Catalog.Get(ctx, c.flagDoc)
	switch {
	case err == nil && (c.flagName == "" || doc.Name == c.flagName):
		return nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return err
	}

	owner := c.flagOwner
	if owner == "" && doc != nil {
		owner = doc.Owner
	}
	if owner == "" {
		return fmt.Errorf("document %s is not registered; pass -owner", c.flagDoc)
	}
	name := c.flagName
	if name == "" {
		name = c.flagDoc
	}

	_, err = a.Services.Catalog.Register(ctx, &docwatchSvc.RegisterDocumentRequest{
		DocID: c.flagDoc,
		Owner: owner,
		Name:  name,
	})
	return err
}

func (c *IngestCommand) readContent() (string, error) {
	var r io.Reader = c.Stdin
	if c.flagFile != "-" {
		f, err := os.Open(c.flagFile)
		if err != nil {
			return "", fmt.Errorf("open content: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}
