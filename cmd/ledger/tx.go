package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"ledger/internal/core"
	"ledger/internal/services"
)

// draftFlags are the transaction fields shared by add and edit.
type draftFlags struct {
	services.Draft
}

func (d *draftFlags) register(f *flag.FlagSet) {
	f.StringVar(&d.Date, "d", "", "Transaction date (YYYY-MM-DD). Defaults to today.")
	f.StringVar(&d.Time, "t", "", "Transaction time (HH:MM). Defaults to now.")
	f.StringVar(&d.Amount, "a", "", "Amount, a positive decimal.")
	f.StringVar(&d.Kind, "kind", "", "credit or debit.")
	f.StringVar(&d.PaymentMode, "mode", "cash", "cash or online.")
	f.StringVar(&d.Counterparty, "u", "", "Counterparty name.")
	f.StringVar(&d.Remarks, "m", "", "Free-text remarks.")
	f.StringVar(&d.ReferenceID, "ref", "", "Reference id, required for online payments.")
}

func (d *draftFlags) draft(now time.Time) services.Draft {
	out := d.Draft
	if out.Date == "" {
		out.Date = now.Format("2006-01-02")
	}
	if out.Time == "" {
		out.Time = now.Format("15:04")
	}
	return out
}

func printTransaction(t core.Transaction, currency string) {
	fmt.Printf("%s %s %s %-6s %-6s %-20s %s", t.ID, t.Date, t.Time, t.Kind, t.PaymentMode, t.Counterparty, t.Amount.Format(currency))
	if t.ReferenceID != "" {
		fmt.Printf(" ref=%s", t.ReferenceID)
	}
	if t.Remarks != "" {
		fmt.Printf(" %q", t.Remarks)
	}
	fmt.Println()
}

type addCmd struct {
	secret string
	draftFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a new transaction" }
func (*addCmd) Usage() string {
	return `ledger add -a <amount> -kind <credit|debit> [-mode cash|online] [-ref <id>] [-u <counterparty>] [-m <remarks>] [-d <date>] [-t <time>]
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.secret, "secret", "", "The access secret (defaults to $LEDGER_SECRET).")
	c.draftFlags.register(f)
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, closeApp, err := unlocked(ctx, c.secret)
	if err != nil {
		return fail(err)
	}
	defer closeApp()

	tx, err := app.Ledger.Add(ctx, c.draft(time.Now()))
	if err != nil {
		return fail(err)
	}
	printTransaction(tx, app.Ledger.Currency())
	return subcommands.ExitSuccess
}

type editCmd struct {
	secret string
	draftFlags
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "replace a transaction, keeping its id" }
func (*editCmd) Usage() string {
	return `ledger edit [flags] <id>

  Fields not given on the command line keep their current value.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.secret, "secret", "", "The access secret (defaults to $LEDGER_SECRET).")
	c.draftFlags.register(f)
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	id := f.Arg(0)
	app, closeApp, err := unlocked(ctx, c.secret)
	if err != nil {
		return fail(err)
	}
	defer closeApp()

	var current *core.Transaction
	for _, t := range app.Ledger.Snapshot().Transactions {
		if t.ID == id {
			current = &t
			break
		}
	}
	if current == nil {
		return fail(fmt.Errorf("transaction %q not found", id))
	}

	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	d := services.Draft{
		Date:         current.Date.String(),
		Time:         current.Time,
		Amount:       current.Amount.String(),
		Kind:         string(current.Kind),
		PaymentMode:  string(current.PaymentMode),
		Counterparty: current.Counterparty,
		Remarks:      current.Remarks,
		ReferenceID:  current.ReferenceID,
	}
	for name, field := range map[string]*string{
		"d": &d.Date, "t": &d.Time, "a": &d.Amount, "kind": &d.Kind, "mode": &d.PaymentMode,
		"u": &d.Counterparty, "m": &d.Remarks, "ref": &d.ReferenceID,
	} {
		if set[name] {
			*field = f.Lookup(name).Value.String()
		}
	}

	tx, err := app.Ledger.Update(ctx, id, d)
	if err != nil {
		return fail(err)
	}
	printTransaction(tx, app.Ledger.Currency())
	return subcommands.ExitSuccess
}

type rmCmd struct {
	secret string
}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete transactions by id" }
func (*rmCmd) Usage() string {
	return `ledger rm <id>...
`
}

func (c *rmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.secret, "secret", "", "The access secret (defaults to $LEDGER_SECRET).")
}

func (c *rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	app, closeApp, err := unlocked(ctx, c.secret)
	if err != nil {
		return fail(err)
	}
	defer closeApp()

	for _, id := range f.Args() {
		if err := app.Ledger.Delete(ctx, id); err != nil {
			return fail(err)
		}
		fmt.Printf("Deleted %s\n", id)
	}
	return subcommands.ExitSuccess
}

type lsCmd struct {
	secret string
	criteriaFlags
}

func (*lsCmd) Name() string     { return "ls" }
func (*lsCmd) Synopsis() string { return "list transactions matching filters, with totals" }
func (*lsCmd) Usage() string {
	return `ledger ls [-s <date>] [-e <date>] [-kind all|credit|debit] [-mode all|cash|online] [-q <text>]
`
}

func (c *lsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.secret, "secret", "", "The access secret (defaults to $LEDGER_SECRET).")
	c.criteriaFlags.register(f)
}

func (c *lsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	criteria, err := c.criteria()
	if err != nil {
		return fail(err)
	}
	app, closeApp, err := unlocked(ctx, c.secret)
	if err != nil {
		return fail(err)
	}
	defer closeApp()

	cur := app.Ledger.Currency()
	view := app.Ledger.View(criteria)
	for _, t := range view.Transactions {
		printTransaction(t, cur)
	}
	s := view.Summary
	fmt.Printf("\n%d transaction(s)  credit %s  debit %s  balance %s\n",
		s.Count, s.Credit.Format(cur), s.Debit.Format(cur), s.Balance.Format(cur))
	if view.Stale {
		fmt.Println("warning: the record store could not be read, showing the last loaded data")
	}
	return subcommands.ExitSuccess
}
