package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/nglaszik/docwatch/internal/app"
	"github.com/nglaszik/docwatch/internal/diff"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	"github.com/nglaszik/docwatch/internal/httputil"
)

// RevisionsCommand lists a document's history.
type RevisionsCommand struct {
	*baseCommand

	flagDoc string
}

func (c *RevisionsCommand) Synopsis() string {
	return "List a document's revisions, newest first"
}

func (c *RevisionsCommand) Help() string {
	return "Usage: docwatchctl revisions -doc <id>\n" + flagHelp(c.flags())
}

func (c *RevisionsCommand) flags() *flag.FlagSet {
	fs := flag.NewFlagSet("revisions", flag.ContinueOnError)
	fs.StringVar(&c.flagDoc, "doc", "", "(Required) Document id.")
	return fs
}

func (c *RevisionsCommand) Run(args []string) int {
	if !c.parse(c.flags(), args) {
		return 1
	}
	if c.flagDoc == "" {
		c.UI.Error("-doc is required")
		return 1
	}

	return c.withApp(app.Options{}, func(ctx context.Context, a *app.App) error {
		revs, err := a.Services.Revisions.List(ctx, c.flagDoc)
		if err != nil {
			return err
		}
		for _, rev := range revs {
			c.UI.Output(fmt.Sprintf("%s\t+%d\t-%d", rev.RevisionTime.Format(time.RFC3339Nano), rev.AddedCount, rev.DeletedCount))
		}
		return nil
	})
}

// DiffCommand prints the blocks of one revision inline.
type DiffCommand struct {
	*baseCommand

	flagDoc  string
	flagTime string
}

func (c *DiffCommand) Synopsis() string {
	return "Show what changed in one revision"
}

func (c *DiffCommand) Help() string {
	return strings.TrimSpace(`
Usage: docwatchctl diff -doc <id> -time <revision time>

  Prints the revision's content with insertions as {+text+} and deletions
  as [-text-].`) + "\n" + flagHelp(c.flags())
}

func (c *DiffCommand) flags() *flag.FlagSet {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.StringVar(&c.flagDoc, "doc", "", "(Required) Document id.")
	fs.StringVar(&c.flagTime, "time", "", "(Required) Revision time (RFC 3339).")
	return fs
}

func (c *DiffCommand) Run(args []string) int {
	if !c.parse(c.flags(), args) {
		return 1
	}
	if c.flagDoc == "" {
		c.UI.Error("-doc is required")
		return 1
	}
	ts, err := httputil.ParseTime("time", c.flagTime)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	return c.withApp(app.Options{}, func(ctx context.Context, a *app.App) error {
		blocks, err := a.Services.Revisions.DiffBetween(ctx, c.flagDoc, ts)
		if err != nil {
			return err
		}
		c.UI.Output(renderInline(blocks))
		return nil
	})
}

func renderInline(blocks diff.Blocks) string {
	var sb strings.Builder
	for _, b := range blocks {
		switch b.Kind {
		case diff.KindAdd:
			sb.WriteString("{+" + b.Text + "+}")
		case diff.KindDelete:
			sb.WriteString("[-" + b.Text + "-]")
		default:
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// SearchCommand searches an owner's hierarchy or the document catalog.
type SearchCommand struct {
	*baseCommand

	flagOwner     string
	flagQuery     string
	flagLimit     int
	flagDocuments bool
}

func (c *SearchCommand) Synopsis() string {
	return "Search an owner's hierarchy or the document catalog"
}

func (c *SearchCommand) Help() string {
	return "Usage: docwatchctl search [-owner <owner> | -documents] -q <text>\n" + flagHelp(c.flags())
}

func (c *SearchCommand) flags() *flag.FlagSet {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.StringVar(&c.flagOwner, "owner", "", "Owner whose hierarchy is searched.")
	fs.StringVar(&c.flagQuery, "q", "", "Case-insensitive substring.")
	fs.IntVar(&c.flagLimit, "limit", 0, "Maximum number of results.")
	fs.BoolVar(&c.flagDocuments, "documents", false, "Search the document catalog instead.")
	return fs
}

func (c *SearchCommand) Run(args []string) int {
	if !c.parse(c.flags(), args) {
		return 1
	}
	if !c.flagDocuments && c.flagOwner == "" {
		c.UI.Error("-owner is required unless -documents is set")
		return 1
	}

	return c.withApp(app.Options{}, func(ctx context.Context, a *app.App) error {
		if c.flagDocuments {
			docs, err := a.Services.Query.SearchDocuments(ctx, c.flagQuery, c.flagLimit)
			if err != nil {
				return err
			}
			for _, d := range docs {
				c.UI.Output(fmt.Sprintf("%s\t%s\t%s", d.DocID, d.Owner, d.Name))
			}
			return nil
		}

		res, err := a.Services.Query.Search(ctx, c.flagQuery, &models.SearchScope{Owner: c.flagOwner, Limit: c.flagLimit})
		if err != nil {
			return err
		}
		for _, n := range res.Nodes {
			kind := "doc"
			if n.IsFolder() {
				kind = "folder"
			}
			c.UI.Output(fmt.Sprintf("%s\t%s\t%s", n.Base().ID, kind, n.Base().Name))
		}
		if res.HasMore {
			c.UI.Output(fmt.Sprintf("... %d more", res.TotalCount-len(res.Nodes)))
		}
		return nil
	})
}
