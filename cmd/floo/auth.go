package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"floo/internal/cli"
	"floo/internal/core"
)

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if current := a.store.Current(); current.Authenticated() {
		fmt.Fprintf(a.stdout, "Already signed in as %s. Run 'floo logout' to switch accounts.\n", current.User.Username)
		return nil
	}

	if *username == "" {
		return fmt.Errorf("missing required flag: -user")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(a.stdout, "Password: ")
		var err error
		password, err = cli.ReadPassword(a.stdin)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Fprintln(a.stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if err := a.store.Login(ctx, *username, password); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Signed in as %s\n", a.store.Current().User.Username)
	return nil
}

func (a *app) cmdWhoami(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	current, err := cli.RequireSession(a.store)
	if err != nil {
		return err
	}

	u := current.User
	fmt.Fprintf(a.stdout, "%s (%s)\n", u.Username, u.Fullname)
	fmt.Fprintf(a.stdout, "  email:  %s\n", u.Email)
	fmt.Fprintf(a.stdout, "  active: %v\n", u.IsActive)
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fullname := fs.String("fullname", "", "Full name")
	username := fs.String("user", "", "Username")
	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(a.stdout, "Password: ")
		var err error
		password, err = cli.ReadPassword(a.stdin)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Fprintln(a.stdout)
	}

	user, err := a.users.Register(ctx, core.UserCreate{
		Fullname: *fullname,
		Username: *username,
		Email:    *email,
		Password: password,
		IsActive: true,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Account %s created. Run 'floo login' to sign in.\n", user.Username)
	return nil
}
