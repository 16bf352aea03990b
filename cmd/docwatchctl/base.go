package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/cli"

	"github.com/nglaszik/docwatch/internal/app"
	"github.com/nglaszik/docwatch/internal/config"
)

// baseCommand carries what every subcommand shares.
type baseCommand struct {
	UI    cli.Ui
	Stdin io.Reader

	// open builds the core; tests swap it for an in-memory instance.
	open func(ctx context.Context, opts app.Options) (*app.App, func(), error)
}

func openFromEnv(ctx context.Context, opts app.Options) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	// Logs go to stderr so command output stays pipeable.
	logger, closeLog, err := config.NewLogger(cfg, "docwatchctl", os.Stderr)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.Open(ctx, cfg, opts, logger)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, func() { a.Close(); closeLog() }, nil
}

// withApp opens the core, runs fn and maps failures to exit code 1.
func (b *baseCommand) withApp(opts app.Options, fn func(ctx context.Context, a *app.App) error) int {
	ctx := context.Background()

	a, closeFn, err := b.open(ctx, opts)
	if err != nil {
		b.UI.Error(err.Error())
		return 1
	}
	defer closeFn()

	if err := fn(ctx, a); err != nil {
		b.UI.Error(err.Error())
		return 1
	}
	return 0
}

func (b *baseCommand) parse(fs *flag.FlagSet, args []string) bool {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		b.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return false
	}
	return true
}

func flagHelp(fs *flag.FlagSet) string {
	var out string
	fs.VisitAll(func(f *flag.Flag) {
		out += fmt.Sprintf("\n  -%s\n      %s\n", f.Name, f.Usage)
	})
	return out
}
