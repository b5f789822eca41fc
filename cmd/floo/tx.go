package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"text/tabwriter"

	"floo/internal/cli"
	"floo/internal/core"
)

func (a *app) cmdTransaction(ctx context.Context, args []string) error {
	if _, err := cli.RequireSession(a.store); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: floo tx <list|add|edit|rm> [flags]")
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.txList(ctx, rest)
	case "add":
		return a.txAdd(ctx, rest)
	case "edit":
		return a.txEdit(ctx, rest)
	case "rm":
		return a.txRemove(ctx, rest)
	default:
		return fmt.Errorf("unknown tx subcommand %q", sub)
	}
}

func (a *app) txList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tx list", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	transactions, err := a.transactions.List(ctx)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		fmt.Fprintln(a.stdout, "No transactions yet. Add one with 'floo tx add'.")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tCATEGORY\tBANK\tDESCRIPTION")
	for _, t := range transactions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
			t.ID, t.Date, core.FormatAmount(t.Amount), t.CategoryID, t.BankID, t.Description)
	}
	return w.Flush()
}

func (a *app) txAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tx add", flag.ContinueOnError)
	date := fs.String("date", "", "Date (YYYY-MM-DD)")
	amount := fs.Int64("amount", 0, "Amount")
	description := fs.String("desc", "", "Description")
	categoryID := fs.Int64("category", 0, "Category ID")
	bankID := fs.Int64("bank", 0, "Bank ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	day, err := core.ParseDate(*date)
	if err != nil {
		return fmt.Errorf("invalid -date %q: expected YYYY-MM-DD", *date)
	}

	tx, err := a.transactions.Create(ctx, core.TransactionCreate{
		Date:        day,
		Amount:      *amount,
		Description: *description,
		CategoryID:  *categoryID,
		BankID:      *bankID,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Added transaction %d: %s on %s\n", tx.ID, core.FormatAmount(tx.Amount), tx.Date)
	return nil
}

func (a *app) txEdit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tx edit", flag.ContinueOnError)
	id := fs.Int64("id", 0, "Transaction ID")
	date := fs.String("date", "", "New date (YYYY-MM-DD)")
	amount := fs.Int64("amount", 0, "New amount")
	description := fs.String("desc", "", "New description")
	categoryID := fs.Int64("category", 0, "New category ID")
	bankID := fs.Int64("bank", 0, "New bank ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("missing required flag: -id")
	}

	var in core.TransactionUpdate
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "date":
			day, err := core.ParseDate(*date)
			if err != nil {
				parseErr = fmt.Errorf("invalid -date %q: expected YYYY-MM-DD", *date)
				return
			}
			in.Date = &day
		case "amount":
			in.Amount = amount
		case "desc":
			in.Description = description
		case "category":
			in.CategoryID = categoryID
		case "bank":
			in.BankID = bankID
		}
	})
	if parseErr != nil {
		return parseErr
	}
	if in == (core.TransactionUpdate{}) {
		return fmt.Errorf("nothing to change: set at least one of -date, -amount, -desc, -category, -bank")
	}

	tx, err := a.transactions.Update(ctx, *id, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Updated transaction %d: %s on %s\n", tx.ID, core.FormatAmount(tx.Amount), tx.Date)
	return nil
}

func (a *app) txRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tx rm", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: floo tx rm <id>")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid transaction ID %q", fs.Arg(0))
	}

	if err := a.transactions.Delete(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Removed transaction %d\n", id)
	return nil
}
