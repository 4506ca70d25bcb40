package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"ledger/internal/cli"
)

type initCmd struct {
	secret string
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "set the access secret of a new ledger" }
func (*initCmd) Usage() string {
	return `ledger init [-secret <secret>]

  Sets the secret that guards the ledger. Fails once a secret exists; use
  passwd to change it.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.secret, "secret", "", "The new secret (defaults to $LEDGER_SECRET).")
}

func (c *initCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	secret, err := cli.Secret(c.secret)
	if err != nil {
		return fail(err)
	}
	app, err := cli.Bootstrap(ctx)
	if err != nil {
		return fail(err)
	}
	defer app.Close()

	if err := app.Gate.SetSecret(ctx, secret); err != nil {
		return fail(err)
	}
	fmt.Println("Secret set.")
	return subcommands.ExitSuccess
}

type passwdCmd struct {
	secret    string
	newSecret string
}

func (*passwdCmd) Name() string     { return "passwd" }
func (*passwdCmd) Synopsis() string { return "change the access secret" }
func (*passwdCmd) Usage() string {
	return `ledger passwd [-secret <current>] -new <secret>
`
}

func (c *passwdCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.secret, "secret", "", "The current secret (defaults to $LEDGER_SECRET).")
	f.StringVar(&c.newSecret, "new", "", "The new secret.")
}

func (c *passwdCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	old, err := cli.Secret(c.secret)
	if err != nil {
		return fail(err)
	}
	if c.newSecret == "" {
		return fail(errors.New("-new is required"))
	}
	app, err := cli.Bootstrap(ctx)
	if err != nil {
		return fail(err)
	}
	defer app.Close()

	if err := app.Gate.ChangeSecret(ctx, old, c.newSecret); err != nil {
		return fail(err)
	}
	fmt.Println("Secret changed.")
	return subcommands.ExitSuccess
}
