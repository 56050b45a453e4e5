package main

import (
	"log"
	"os"

	"github.com/trezcool/arifa/apps/api/echo"
	"github.com/trezcool/arifa/core"
	"github.com/trezcool/arifa/core/counter"
	"github.com/trezcool/arifa/core/school"
	"github.com/trezcool/arifa/core/syncbus"
	"github.com/trezcool/arifa/services/email"
	"github.com/trezcool/arifa/services/logger"
	"github.com/trezcool/arifa/storage/kv/file"
	"github.com/trezcool/arifa/storage/kv/inmem"
	"github.com/trezcool/arifa/storage/kv/postgres"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile)
	var logger core.Logger
	if core.Conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	} else {
		logger = core.NewStdLogger(std)
	}

	bus := syncbus.New()

	// set up storage
	var kv core.KV
	switch core.Conf.Storage.Backend {
	case "postgres":
		store, err := postgres.NewStore(core.Conf.Storage.DatabaseDSN)
		errAndDie(err)
		defer store.Close()
		kv = store
	case "inmem":
		kv = inmem.NewStore()
	default:
		store, err := file.NewStore(core.Conf.Storage.Dir)
		errAndDie(err)
		done := make(chan struct{})
		defer close(done)
		errAndDie(store.Watch(bus, logger, done))
		kv = store
	}

	repo := school.NewRepository(kv, logger)
	counterSvc := counter.NewService(repo, bus, logger)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	alert := emailsvc.NewPasswordRequestAlert(mailSvc)
	defer alert.Watch(bus)()

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:    core.Conf.Server.Address,
			CounterSvc: counterSvc,
			Bus:        bus,
			Logger:     logger,
		},
	)
	app.Start()
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
