package main

import (
	"errors"
	"fmt"

	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/session"
	"github.com/edubanco/recursos/services/bancoapi"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	api   *bancoapi.Client
	store session.Store
	cache core.ViewCache
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  healthcheck   - check that the banco API answers")
	fmt.Println("  flushsessions - log every user out")
	fmt.Println("  flushcache    - drop every cached view")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "healthcheck":
		return cli.healthcheck()
	case "flushsessions":
		return cli.flushSessions()
	case "flushcache":
		return cli.flushCache()
	default:
		cli.printUsage()
		return errHelp
	}
}
