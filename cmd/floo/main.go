package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"floo/internal/api"
	"floo/internal/cli"
	"floo/internal/log"
	"floo/internal/services"
	"floo/internal/session"
)

const usage = `Usage: floo <command> [flags]

Commands:
  login       Sign in and store the session
  logout      Clear the stored session
  whoami      Show the signed-in user
  register    Create a new account
  overview    Show balances and recent transactions
  bank        Manage bank accounts (list|add|edit|rm)
  category    Manage categories (list|add|edit|rm)
  tx          Manage transactions (list|add|edit|rm)
`

type app struct {
	store        *session.Store
	users        *services.UserService
	banks        *services.BankService
	categories   *services.CategoryService
	transactions *services.TransactionService
	stdin        io.Reader
	stdout       io.Writer
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	base, err := url.Parse(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("parse API URL: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	nav := cli.NewTerminalNavigator(stdout)
	store := session.NewStore(cfg.StateDir, httpClient, base, nav, logger.WithComponent(log.ComponentSession))
	if err := store.Initialize(); err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}

	client := api.NewClient(httpClient, base, store, store.Logout, logger.WithComponent(log.ComponentAPI))

	a := &app{
		store:        store,
		users:        services.NewUserService(client),
		banks:        services.NewBankService(client),
		categories:   services.NewCategoryService(client),
		transactions: services.NewTransactionService(client),
		stdin:        stdin,
		stdout:       stdout,
	}

	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return errors.New("missing command")
	}

	ctx := context.Background()
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "login":
		return a.cmdLogin(ctx, rest)
	case "logout":
		a.store.Logout(ctx)
		return nil
	case "whoami":
		return a.cmdWhoami(rest)
	case "register":
		return a.cmdRegister(ctx, rest)
	case "overview":
		return a.cmdOverview(ctx, rest)
	case "bank":
		return a.cmdBank(ctx, rest)
	case "category":
		return a.cmdCategory(ctx, rest)
	case "tx":
		return a.cmdTransaction(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}
