package main

import (
	"os"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
	logsvc "github.com/trezcool/masomo-portal/services/logger"
	"github.com/trezcool/masomo-portal/storage"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		logsvc.New(os.Stderr, "ADMIN", &core.Config{Debug: true}).Fatal("loading config", err)
	}
	logger := logsvc.New(os.Stdout, "ADMIN", conf)

	stores, err := storage.Open(conf.Storage)
	if err != nil {
		logger.Fatal("opening storage", err)
	}
	defer stores.Close()

	cli := commandLine{usrSvc: user.NewService(stores.Users, logger)}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		_ = stores.Close()
		os.Exit(1)
	}
}
