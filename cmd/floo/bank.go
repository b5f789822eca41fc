package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"text/tabwriter"

	"floo/internal/api"
	"floo/internal/cli"
	"floo/internal/core"
)

func (a *app) cmdBank(ctx context.Context, args []string) error {
	if _, err := cli.RequireSession(a.store); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: floo bank <list|add|edit|rm> [flags]")
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.bankList(ctx, rest)
	case "add":
		return a.bankAdd(ctx, rest)
	case "edit":
		return a.bankEdit(ctx, rest)
	case "rm":
		return a.bankRemove(ctx, rest)
	default:
		return fmt.Errorf("unknown bank subcommand %q", sub)
	}
}

func (a *app) bankList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bank list", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	banks, err := a.banks.List(ctx)
	if err != nil {
		return err
	}
	if len(banks) == 0 {
		fmt.Fprintln(a.stdout, "No bank accounts yet. Add one with 'floo bank add'.")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOLOR\tSTART\tBALANCE")
	for _, b := range banks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			b.ID, b.Name, b.Color,
			core.FormatAmount(b.StartBalance), core.FormatAmount(b.EndBalance))
	}
	return w.Flush()
}

func (a *app) bankAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bank add", flag.ContinueOnError)
	name := fs.String("name", "", "Account name")
	color := fs.String("color", "#1f77b4", "Display color")
	start := fs.Int64("start", 0, "Starting balance")
	if err := fs.Parse(args); err != nil {
		return err
	}

	bank, err := a.banks.Create(ctx, core.BankCreate{
		Name:         *name,
		Color:        *color,
		StartBalance: *start,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Added bank %d: %s (%s)\n", bank.ID, bank.Name, core.FormatAmount(bank.EndBalance))
	return nil
}

func (a *app) bankEdit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bank edit", flag.ContinueOnError)
	id := fs.Int64("id", 0, "Bank ID")
	name := fs.String("name", "", "New account name")
	color := fs.String("color", "", "New display color")
	start := fs.Int64("start", 0, "New starting balance")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("missing required flag: -id")
	}

	// Only flags the user actually set end up in the request body.
	var in core.BankUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			in.Name = name
		case "color":
			in.Color = color
		case "start":
			in.StartBalance = start
		}
	})
	if in == (core.BankUpdate{}) {
		return fmt.Errorf("nothing to change: set at least one of -name, -color, -start")
	}

	bank, err := a.banks.Update(ctx, *id, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Updated bank %d: %s (%s)\n", bank.ID, bank.Name, core.FormatAmount(bank.EndBalance))
	return nil
}

func (a *app) bankRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bank rm", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: floo bank rm <id>")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid bank ID %q", fs.Arg(0))
	}

	if err := a.banks.Delete(ctx, id); err != nil {
		if api.IsHasDependents(err) {
			return fmt.Errorf("bank %d still has transactions: delete associated transactions first", id)
		}
		return err
	}

	fmt.Fprintf(a.stdout, "Removed bank %d\n", id)
	return nil
}
