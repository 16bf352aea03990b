// Command docwatchctl is the operator CLI: schema management, producer pushes
// from files, and read-only inspection of revision history and search.
package main

import (
	"bufio"
	"os"

	"github.com/joho/godotenv"
	"github.com/mitchellh/cli"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	_ = godotenv.Load()

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
	base := &baseCommand{UI: ui, Stdin: os.Stdin, open: openFromEnv}

	c := &cli.CLI{
		Name:     "docwatchctl",
		Args:     args[1:],
		Version:  version,
		Commands: commands(base),
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return exitCode
}

func commands(base *baseCommand) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"schema":    func() (cli.Command, error) { return &SchemaCommand{baseCommand: base}, nil },
		"ingest":    func() (cli.Command, error) { return &IngestCommand{baseCommand: base}, nil },
		"revisions": func() (cli.Command, error) { return &RevisionsCommand{baseCommand: base}, nil },
		"diff":      func() (cli.Command, error) { return &DiffCommand{baseCommand: base}, nil },
		"search":    func() (cli.Command, error) { return &SearchCommand{baseCommand: base}, nil },
	}
}
