// Command admin runs schema migrations and manages the demo dataset.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/dvsilva/tech-challenge-2/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	commander := subcommands.NewCommander(flag.CommandLine, "admin")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&migrateUpCmd{}, "migrations")
	commander.Register(&migrateDownCmd{}, "migrations")
	commander.Register(&migrateVersionCmd{}, "migrations")
	commander.Register(&seedCmd{}, "data")
	commander.Register(&statsCmd{}, "data")
	commander.Register(&clearCmd{}, "data")
	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
