package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/masomo-portal/client"
	"github.com/trezcool/masomo-portal/core"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type backend interface {
	client.Getter
	client.Poster
}

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	store  core.KeyValueStore
	api    backend
	out    io.Writer
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  login -email EMAIL -type admin|teacher|parent [-school SCHOOL_ID] [-remember] - log in, the password is prompted next\n")
	cli.printf("  logout - forget the logged-in user\n")
	cli.printf("  settings [-sync] - show the school settings, fetching them first with -sync\n")
	cli.printf("  watch [-role admin|teacher|parent] - open the dashboard of the logged-in user, or of ROLE\n")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginEmail := loginCmd.String("email", "", "Your email.")
	loginType := loginCmd.String("type", "", "Your account type: admin, teacher or parent.")
	loginSchool := loginCmd.String("school", "", "Your 5-digit school ID. Required for teachers and parents.")
	loginRemember := loginCmd.Bool("remember", false, "Stay logged in.")

	settingsCmd := flag.NewFlagSet("settings", flag.ContinueOnError)
	settingsSync := settingsCmd.Bool("sync", false, "Fetch the settings from the backend first.")

	watchCmd := flag.NewFlagSet("watch", flag.ContinueOnError)
	watchRole := watchCmd.String("role", "", "Open this role's dashboard instead of the logged-in user's.")

	for _, fs := range []*flag.FlagSet{loginCmd, settingsCmd, watchCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *loginEmail == "" || *loginType == "" {
			loginCmd.Usage()
			return errHelp
		}
		cli.printf("Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		cli.printf("\n")
		if err != nil {
			return err
		}
		return cli.login(ctx, *loginEmail, string(pwd), *loginSchool, *loginType, *loginRemember)
	case "logout":
		return cli.logout()
	case "settings":
		if err := settingsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.showSettings(ctx, *settingsSync)
	case "watch":
		if err := watchCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.watch(ctx, *watchRole)
	default:
		cli.printUsage()
		return errHelp
	}
}
