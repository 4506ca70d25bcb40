package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"ledger/internal/report"
)

type importCmd struct {
	secret string
	file   string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from a CSV file" }
func (*importCmd) Usage() string {
	return `ledger import [-f <file.csv>]

  Reads CSV with a header row naming id, date, time, kind, paymentMode,
  amount, counterparty, remarks and referenceId. Rows are upserted by id so
  importing the same file twice changes nothing. Rows that cannot be
  imported are listed with their line number and skipped.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.secret, "secret", "", "The access secret (defaults to $LEDGER_SECRET).")
	f.StringVar(&c.file, "f", "", "CSV file to import. Reads stdin when empty.")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var in io.Reader = os.Stdin
	if c.file != "" {
		fh, err := os.Open(c.file)
		if err != nil {
			return fail(fmt.Errorf("cannot open file %q: %w", c.file, err))
		}
		defer fh.Close()
		in = fh
	}

	app, closeApp, err := unlocked(ctx, c.secret)
	if err != nil {
		return fail(err)
	}
	defer closeApp()

	rep, err := app.Ledger.ImportCSV(ctx, in)
	for _, s := range rep.Skipped {
		fmt.Printf("skipped line %d (%s): %s\n", s.Line, s.ID, s.Reason)
	}
	for _, s := range rep.Failed {
		fmt.Printf("failed line %d (%s): %s\n", s.Line, s.ID, s.Reason)
	}
	fmt.Printf("Imported %d of %d row(s).\n", rep.Imported, rep.Total)
	if err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	secret string
	file   string
	criteriaFlags
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export matching transactions as CSV" }
func (*exportCmd) Usage() string {
	return `ledger export [-o <file.csv>] [filters]
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.secret, "secret", "", "The access secret (defaults to $LEDGER_SECRET).")
	f.StringVar(&c.file, "o", "", "Output file. Writes to stdout when empty.")
	c.criteriaFlags.register(f)
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	criteria, err := c.criteria()
	if err != nil {
		return fail(err)
	}
	app, closeApp, err := unlocked(ctx, c.secret)
	if err != nil {
		return fail(err)
	}
	defer closeApp()

	if c.file == "" {
		if err := app.Ledger.ExportCSV(os.Stdout, criteria); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	out, err := os.Create(c.file)
	if err != nil {
		return fail(fmt.Errorf("cannot create file %q: %w", c.file, err))
	}
	if err := errors.Join(app.Ledger.ExportCSV(out, criteria), out.Close()); err != nil {
		return fail(err)
	}
	fmt.Fprintf(os.Stderr, "Exported to %s\n", c.file)
	return subcommands.ExitSuccess
}

type reportCmd struct {
	secret string
	raw    bool
	width  int
	criteriaFlags
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "render a report of matching transactions" }
func (*reportCmd) Usage() string {
	return `ledger report [-raw] [-w <width>] [filters]
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.secret, "secret", "", "The access secret (defaults to $LEDGER_SECRET).")
	f.BoolVar(&c.raw, "raw", false, "Print the markdown source instead of styling it.")
	f.IntVar(&c.width, "w", 120, "Wrap width of the styled output.")
	c.criteriaFlags.register(f)
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	criteria, err := c.criteria()
	if err != nil {
		return fail(err)
	}
	app, closeApp, err := unlocked(ctx, c.secret)
	if err != nil {
		return fail(err)
	}
	defer closeApp()

	doc := app.Ledger.Report(criteria)
	if c.raw {
		fmt.Print(doc)
		return subcommands.ExitSuccess
	}
	out, err := report.Terminal(doc, c.width)
	if err != nil {
		return fail(err)
	}
	fmt.Print(out)
	return subcommands.ExitSuccess
}

type whoCmd struct {
	secret string
}

func (*whoCmd) Name() string     { return "who" }
func (*whoCmd) Synopsis() string { return "list known counterparties" }
func (*whoCmd) Usage() string {
	return `ledger who
`
}

func (c *whoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.secret, "secret", "", "The access secret (defaults to $LEDGER_SECRET).")
}

func (c *whoCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, closeApp, err := unlocked(ctx, c.secret)
	if err != nil {
		return fail(err)
	}
	defer closeApp()

	for _, name := range app.Ledger.Counterparties() {
		fmt.Println(name)
	}
	return subcommands.ExitSuccess
}
