package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"ledger/internal/cli"
	"ledger/internal/core"
)

var commands = []subcommands.Command{
	&serveCmd{},
	&initCmd{},
	&passwdCmd{},
	&addCmd{},
	&editCmd{},
	&rmCmd{},
	&lsCmd{},
	&importCmd{},
	&exportCmd{},
	&reportCmd{},
	&whoCmd{},
}

// criteriaFlags are the filter flags shared by ls, export and report.
type criteriaFlags struct {
	start, end, kind, mode, search string
}

func (c *criteriaFlags) register(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "Only transactions on or after this date (YYYY-MM-DD).")
	f.StringVar(&c.end, "e", "", "Only transactions on or before this date (YYYY-MM-DD).")
	f.StringVar(&c.kind, "kind", "all", "Filter by kind: all, credit or debit.")
	f.StringVar(&c.mode, "mode", "all", "Filter by payment mode: all, cash or online.")
	f.StringVar(&c.search, "q", "", "Case-insensitive search in remarks, id, reference id and counterparty.")
}

func (c *criteriaFlags) criteria() (core.Criteria, error) {
	return core.ParseCriteria(c.start, c.end, c.kind, c.mode, c.search)
}

// unlocked bootstraps the app and passes the access gate. The returned
// cleanup closes the record store.
func unlocked(ctx context.Context, secretFlag string) (*cli.App, func(), error) {
	secret, err := cli.Secret(secretFlag)
	if err != nil {
		return nil, nil, err
	}
	app, err := cli.Bootstrap(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := app.Unlock(ctx, secret); err != nil {
		_ = app.Close()
		return nil, nil, err
	}
	return app, func() { _ = app.Close() }, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}
