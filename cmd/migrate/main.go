package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/opsdesk/opsdesk-api/internal/config"
	"github.com/pressly/goose/v3"
)

const usage = "usage: migrate [-dir ./migrations] up|up-to VERSION|down|redo|reset|status|version|create NAME"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", "./migrations", "directory holding the SQL migrations")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		return fmt.Errorf(usage)
	}
	command, arguments := args[0], args[1:]

	if command == "create" {
		if len(arguments) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		if err := goose.Create(nil, *dir, arguments[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	// up-to and down-to take the target version as argument
	switch command {
	case "up", "up-by-one", "up-to", "down", "down-to", "redo", "reset", "status", "version":
		if err := goose.Run(command, db, *dir, arguments...); err != nil {
			return fmt.Errorf("migrate %s: %w", command, err)
		}
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	fmt.Printf("migrate %s done\n", command)
	return nil
}
