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

func (a *app) cmdCategory(ctx context.Context, args []string) error {
	if _, err := cli.RequireSession(a.store); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: floo category <list|add|edit|rm> [flags]")
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.categoryList(ctx, rest)
	case "add":
		return a.categoryAdd(ctx, rest)
	case "edit":
		return a.categoryEdit(ctx, rest)
	case "rm":
		return a.categoryRemove(ctx, rest)
	default:
		return fmt.Errorf("unknown category subcommand %q", sub)
	}
}

func (a *app) categoryList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("category list", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	categories, err := a.categories.List(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		fmt.Fprintln(a.stdout, "No categories yet. Add one with 'floo category add'.")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE")
	for _, c := range categories {
		fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, categoryType(c.IsIncome))
	}
	return w.Flush()
}

func categoryType(isIncome bool) string {
	if isIncome {
		return "income"
	}
	return "expense"
}

func (a *app) categoryAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("category add", flag.ContinueOnError)
	name := fs.String("name", "", "Category name")
	income := fs.Bool("income", false, "Treat amounts in this category as income")
	if err := fs.Parse(args); err != nil {
		return err
	}

	category, err := a.categories.Create(ctx, core.CategoryCreate{
		Name:     *name,
		IsIncome: *income,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Added category %d: %s (%s)\n", category.ID, category.Name, categoryType(category.IsIncome))
	return nil
}

func (a *app) categoryEdit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("category edit", flag.ContinueOnError)
	id := fs.Int64("id", 0, "Category ID")
	name := fs.String("name", "", "New category name")
	income := fs.Bool("income", false, "Treat amounts in this category as income")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("missing required flag: -id")
	}

	var in core.CategoryUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			in.Name = name
		case "income":
			in.IsIncome = income
		}
	})
	if in == (core.CategoryUpdate{}) {
		return fmt.Errorf("nothing to change: set at least one of -name, -income")
	}

	category, err := a.categories.Update(ctx, *id, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Updated category %d: %s (%s)\n", category.ID, category.Name, categoryType(category.IsIncome))
	return nil
}

func (a *app) categoryRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("category rm", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: floo category rm <id>")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid category ID %q", fs.Arg(0))
	}

	if err := a.categories.Delete(ctx, id); err != nil {
		if api.IsHasDependents(err) {
			return fmt.Errorf("category %d still has transactions: delete associated transactions first", id)
		}
		return err
	}

	fmt.Fprintf(a.stdout, "Removed category %d\n", id)
	return nil
}
