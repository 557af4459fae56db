package main

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/settings"
	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/portal"
)

var errInvalidForm = errors.New("invalid login form")

func (cli *commandLine) login(ctx context.Context, email, pwd, school, accountType string, remember bool) error {
	role, err := user.ResolveRole(accountType)
	if err != nil {
		return err
	}
	res, err := portal.Login(ctx, cli.api, cli.store, user.LoginRequest{
		Email:       email,
		Password:    pwd,
		SchoolID:    school,
		AccountType: role,
		Remember:    remember,
	})
	if err != nil {
		if fields := core.TranslateErrors(err); fields != nil {
			cli.printFields(fields)
			return errInvalidForm
		}
		var lErr *portal.LoginError
		if errors.As(err, &lErr) {
			if lErr.Err != nil {
				cli.logger.Warn("login failed", lErr.Err)
			}
			return errors.New(lErr.Message)
		}
		return err
	}

	if _, err := settings.Sync(ctx, cli.api, cli.store); err != nil {
		cli.logger.Warn("login: settings not synced", err)
	}
	cli.printf("Welcome, %s! Your portal: %s\n", core.FirstNonEmpty(res.Name, res.Role.Name()), res.Redirect)
	return nil
}

func (cli *commandLine) printFields(fields map[string]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cli.printf("  %s: %s\n", name, fields[name])
	}
}

func (cli *commandLine) logout() error {
	to, err := portal.Logout(cli.store)
	if err != nil {
		return err
	}
	cli.printf("Logged out. Log in again: %s\n", to)
	return nil
}

func (cli *commandLine) showSettings(ctx context.Context, sync bool) error {
	if sync {
		if _, err := settings.Sync(ctx, cli.api, cli.store); err != nil {
			return err
		}
	}
	c, err := settings.ReadCached(cli.store)
	if err != nil {
		return err
	}
	theme := "premium"
	if c.Dark() {
		theme = "dark"
	}
	cli.printf("School: %s\nTheme:  %s\n", c.SchoolName, theme)
	if c.LogoPath != "" {
		cli.printf("Logo:   %s\n", c.LogoPath)
	}
	return nil
}
