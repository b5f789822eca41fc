package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"floo/internal/cli"
	"floo/internal/core"
)

const recentTransactionLimit = 10

func (a *app) cmdOverview(ctx context.Context, args []string) error {
	current, err := cli.RequireSession(a.store)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("overview", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		banks        []core.Bank
		categories   []core.Category
		transactions []core.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		banks, err = a.banks.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = a.categories.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = a.transactions.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	categoryNames := make(map[int64]core.Category, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c
	}
	bankNames := make(map[int64]string, len(banks))
	for _, b := range banks {
		bankNames[b.ID] = b.Name
	}

	var total, income, expense int64
	for _, b := range banks {
		total += b.EndBalance
	}
	for _, t := range transactions {
		if categoryNames[t.CategoryID].IsIncome {
			income += t.Amount
		} else {
			expense += t.Amount
		}
	}

	fmt.Fprintf(a.stdout, "Overview for %s\n\n", current.User.Username)
	fmt.Fprintf(a.stdout, "Total balance: %s across %d accounts\n", core.FormatAmount(total), len(banks))
	fmt.Fprintf(a.stdout, "Income:        %s\n", core.FormatAmount(income))
	fmt.Fprintf(a.stdout, "Expenses:      %s\n\n", core.FormatAmount(expense))

	if len(banks) > 0 {
		w := tabwriter.NewWriter(a.stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ACCOUNT\tBALANCE")
		for _, b := range banks {
			fmt.Fprintf(w, "%s\t%s\n", b.Name, core.FormatAmount(b.EndBalance))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout)
	}

	if len(transactions) == 0 {
		fmt.Fprintln(a.stdout, "No transactions yet.")
		return nil
	}

	sort.Slice(transactions, func(i, j int) bool {
		if !transactions[i].Date.Equal(transactions[j].Date.Time) {
			return transactions[i].Date.After(transactions[j].Date.Time)
		}
		return transactions[i].ID > transactions[j].ID
	})
	if len(transactions) > recentTransactionLimit {
		transactions = transactions[:recentTransactionLimit]
	}

	fmt.Fprintln(a.stdout, "Recent transactions:")
	w := tabwriter.NewWriter(a.stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAMOUNT\tCATEGORY\tBANK\tDESCRIPTION")
	for _, t := range transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.Date, core.FormatAmount(t.Amount),
			categoryNames[t.CategoryID].Name, bankNames[t.BankID], t.Description)
	}
	return w.Flush()
}
