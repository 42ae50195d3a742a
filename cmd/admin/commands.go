package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/dvsilva/tech-challenge-2/internal/config"
	"github.com/dvsilva/tech-challenge-2/internal/database"
	"github.com/dvsilva/tech-challenge-2/internal/services"
)

// openDatabase loads the configuration and connects to PostgreSQL.
func openDatabase() (*database.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return database.NewManager(database.NewConfig(cfg))
}

// withDatabase runs fn against an open manager and maps errors to an exit status.
func withDatabase(fn func(*database.Manager) error) subcommands.ExitStatus {
	m, err := openDatabase()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer m.Close()

	if err := fn(m); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- migrate-up ---

type migrateUpCmd struct{}

func (*migrateUpCmd) Name() string     { return "migrate-up" }
func (*migrateUpCmd) Synopsis() string { return "apply every pending migration" }
func (*migrateUpCmd) Usage() string {
	return `admin migrate-up

  Applies the SQL migrations found at MIGRATIONS_PATH.
`
}
func (*migrateUpCmd) SetFlags(*flag.FlagSet) {}

func (*migrateUpCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withDatabase(func(m *database.Manager) error {
		return m.RunMigrations()
	})
}

// --- migrate-down ---

type migrateDownCmd struct {
	steps int
}

func (*migrateDownCmd) Name() string     { return "migrate-down" }
func (*migrateDownCmd) Synopsis() string { return "roll back migrations" }
func (*migrateDownCmd) Usage() string {
	return `admin migrate-down [-steps N]

  Reverts the last N migrations. -steps 0 reverts all of them.
`
}
func (c *migrateDownCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.steps, "steps", 1, "Number of migrations to revert (0 reverts all).")
}

func (c *migrateDownCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.steps < 0 {
		fmt.Fprintln(os.Stderr, "Error: -steps must not be negative.")
		return subcommands.ExitUsageError
	}
	return withDatabase(func(m *database.Manager) error {
		if err := m.RollbackMigrations(c.steps); err != nil {
			return err
		}
		fmt.Printf("Rolled back %d migration(s)\n", c.steps)
		return nil
	})
}

// --- migrate-version ---

type migrateVersionCmd struct{}

func (*migrateVersionCmd) Name() string           { return "migrate-version" }
func (*migrateVersionCmd) Synopsis() string       { return "print the current schema version" }
func (*migrateVersionCmd) Usage() string          { return "admin migrate-version\n" }
func (*migrateVersionCmd) SetFlags(*flag.FlagSet) {}

func (*migrateVersionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withDatabase(func(m *database.Manager) error {
		version, dirty, err := m.MigrationVersion()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)
		return nil
	})
}

// --- seed ---

type seedCmd struct {
	force bool
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "load the demo users, accounts and investments" }
func (*seedCmd) Usage() string {
	return `admin seed [-force]

  Loads the demo dataset. Without -force nothing happens when users exist.
`
}
func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "Delete every row before seeding.")
}

func (c *seedCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withDatabase(func(m *database.Manager) error {
		result, err := services.NewSeedService(m.DB()).Initialize(c.force)
		if err != nil {
			return err
		}
		if result.Skipped {
			fmt.Println("Database already contains users; use -force to reseed.")
			return nil
		}
		fmt.Printf("Seeded %d users, %d accounts, %d cards, %d transactions, %d investments\n",
			result.Users, result.Accounts, result.Cards, result.Transactions, result.Investments)
		return nil
	})
}

// --- stats ---

type statsCmd struct{}

func (*statsCmd) Name() string           { return "stats" }
func (*statsCmd) Synopsis() string       { return "print row counts and money totals" }
func (*statsCmd) Usage() string          { return "admin stats\n" }
func (*statsCmd) SetFlags(*flag.FlagSet) {}

func (*statsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withDatabase(func(m *database.Manager) error {
		stats, err := services.NewSeedService(m.DB()).Stats()
		if err != nil {
			return err
		}
		fmt.Printf("Users:          %d\n", stats.Users)
		fmt.Printf("Accounts:       %d\n", stats.Accounts)
		fmt.Printf("Cards:          %d\n", stats.Cards)
		fmt.Printf("Transactions:   %d\n", stats.Transactions)
		fmt.Printf("Investments:    %d\n", stats.Investments)
		fmt.Printf("Audit logs:     %d\n", stats.AuditLogs)
		fmt.Printf("Ledger total:   %s\n", services.FormatBRL(stats.LedgerTotal))
		fmt.Printf("Invested total: %s\n", services.FormatBRL(stats.InvestedTotal))
		return nil
	})
}

// --- clear ---

type clearCmd struct {
	yes bool
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "delete every row" }
func (*clearCmd) Usage() string {
	return `admin clear -yes

  Deletes all users, accounts, cards, transactions, investments and audit logs.
`
}
func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm the deletion.")
}

func (c *clearCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		fmt.Fprintln(os.Stderr, "Error: refusing to clear the database without -yes.")
		return subcommands.ExitUsageError
	}
	return withDatabase(func(m *database.Manager) error {
		if err := services.NewSeedService(m.DB()).Clear(); err != nil {
			return err
		}
		fmt.Println("Database cleared.")
		return nil
	})
}
