// Command migrate applies the embedded Postgres migrations for the audit store.
// The server also migrates up on startup; use this to roll back with
// -direction down.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sakif/identity-facade/internal/config"
	"github.com/sakif/identity-facade/internal/repository/postgres"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	dsn, err := config.LoadDatabaseURL()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if !config.IsPostgresDSN(dsn) {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not a postgres:// DSN; the SQLite store migrates itself on startup")
		os.Exit(1)
	}

	if err := postgres.Migrate(dsn, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
