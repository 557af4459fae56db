package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/masomo-portal/client"
	"github.com/trezcool/masomo-portal/core"
	logsvc "github.com/trezcool/masomo-portal/services/logger"
	"github.com/trezcool/masomo-portal/storage"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		logsvc.New(os.Stderr, "PORTAL", &core.Config{Debug: true}).Fatal("loading config", err)
	}

	// the terminal belongs to the dashboard while watching
	logFile, err := os.OpenFile(conf.AppName+"-portal.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		logsvc.New(os.Stderr, "PORTAL", conf).Fatal("opening log file", err)
	}
	defer logFile.Close()
	logger := logsvc.New(logFile, "PORTAL", conf)

	stores, err := storage.Open(conf.Storage)
	if err != nil {
		logger.Fatal("opening storage", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cli := commandLine{
		conf:   conf,
		logger: logger,
		store:  stores.KV,
		api:    client.New(conf.API.BaseURL, client.WithTimeout(conf.API.Timeout)),
		out:    os.Stdout,
	}
	err = cli.run(ctx, os.Args)
	stop()
	_ = stores.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
			cli.printf("error: %s\n", err)
		}
		_ = logFile.Close()
		os.Exit(1)
	}
}
