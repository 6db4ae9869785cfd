package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	configs "github.com/eggrates/eggrate/pkg/configs/backend"
	kpg "github.com/eggrates/eggrate/pkg/domain/eggrate/db/postgres"
	"github.com/eggrates/eggrate/pkg/utils/try"
)

// schema_bootstrap prepares the database layout and exits.
//
// It is safe to run repeatedly; see pkg/domain/schema/db.
func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	defer cancel()

	pconfig := flag.String(
		"config", os.Getenv("EGGRATE_BACKEND_CONFIG"), "path to config file",
	)
	pdatabase := flag.String(
		"database", os.Getenv("EGGRATE_DATABASE"),
		"connection string for database (overrides config)",
	)
	flag.Parse()

	database := *pdatabase
	if database == "" {
		conf := try.To(configs.LoadBackendConfig(*pconfig)).OrFatal(logger)
		database = conf.Cluster().Database()
	}

	db := try.To(kpg.New(ctx, database, kpg.WithLogger(logger))).OrFatal(logger)
	defer db.Close()

	if err := db.Schema().Ensure(ctx); err != nil {
		logger.Fatal(err)
	}
	logger.Println("database schema is ready")
}
