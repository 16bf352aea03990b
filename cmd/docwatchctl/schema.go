package main

import (
	"context"
	"errors"
	"flag"
	"strings"

	"github.com/nglaszik/docwatch/internal/app"
	"github.com/nglaszik/docwatch/internal/repository/postgres"
)

// SchemaCommand creates or drops the docwatch tables.
type SchemaCommand struct {
	*baseCommand

	flagDrop bool
	flagYes  bool
}

func (c *SchemaCommand) Synopsis() string {
	return "Create (or drop) the docwatch tables"
}

func (c *SchemaCommand) Help() string {
	return strings.TrimSpace(`
Usage: docwatchctl schema [options]

  Creates any missing docwatch tables for the configured TABLE_PREFIX.
  With -drop -yes the tables are dropped instead.`) + "\n" + flagHelp(c.flags())
}

func (c *SchemaCommand) flags() *flag.FlagSet {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.BoolVar(&c.flagDrop, "drop", false, "Drop all docwatch tables (destroys history).")
	fs.BoolVar(&c.flagYes, "yes", false, "Confirm -drop.")
	return fs
}

func (c *SchemaCommand) Run(args []string) int {
	if !c.parse(c.flags(), args) {
		return 1
	}
	if c.flagDrop && !c.flagYes {
		c.UI.Error("-drop requires -yes")
		return 1
	}

	return c.withApp(app.Options{}, func(ctx context.Context, a *app.App) error {
		if a.Pool == nil {
			return errors.New("DATABASE_URL is not set; the in-memory store has no schema")
		}
		if c.flagDrop {
			if err := postgres.DropSchema(ctx, a.Pool, a.Tables); err != nil {
				return err
			}
			c.UI.Output("tables dropped")
			return nil
		}
		if err := postgres.EnsureSchema(ctx, a.Pool, a.Tables); err != nil {
			return err
		}
		c.UI.Output("schema ready")
		return nil
	})
}
