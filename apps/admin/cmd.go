package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/arifa/core/counter"
	"github.com/trezcool/arifa/core/school"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	svc *counter.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  repair - remove orphaned and duplicated records from the store")
	fmt.Println("  counts -id ID -username USERNAME -role ROLE - print a user's pending counts")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	countsCmd := flag.NewFlagSet("counts", flag.ExitOnError)
	countsID := countsCmd.String("id", "", "The user's id.")
	countsUname := countsCmd.String("username", "", "The user's username.")
	countsRole := countsCmd.String("role", "", "The user's role: student|teacher|guardian|admin.")

	switch args[1] {
	case "repair":
		return cli.repair()
	case "counts":
		if err := countsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if (*countsID == "" && *countsUname == "") || *countsRole == "" {
			countsCmd.Usage()
			return errHelp
		}
		return cli.counts(school.Viewer{
			ID:       *countsID,
			Username: *countsUname,
			Role:     school.Role(*countsRole),
		})
	default:
		cli.printUsage()
		return errHelp
	}
}
