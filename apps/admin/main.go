package main

import (
	"log"
	"os"

	"github.com/trezcool/arifa/core"
	"github.com/trezcool/arifa/core/counter"
	"github.com/trezcool/arifa/core/school"
	"github.com/trezcool/arifa/core/syncbus"
	"github.com/trezcool/arifa/storage/kv/file"
	"github.com/trezcool/arifa/storage/kv/inmem"
	"github.com/trezcool/arifa/storage/kv/postgres"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

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
		kv = store
	}

	coreLog := core.NewStdLogger(logger)
	repo := school.NewRepository(kv, coreLog)

	// start CLI
	cli := commandLine{
		svc: counter.NewService(repo, syncbus.New(), coreLog),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
