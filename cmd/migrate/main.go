package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rai-abhi24/cgpey/internal/config"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/migrations"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if *dryRun {
		fmt.Print(migrations.Schema)
		return
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)

	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	logger.Info("Running database migrations...")

	if _, err := db.Exec(migrations.Schema); err != nil {
		logger.Fatalw("Failed to apply schema", "error", err)
	}

	logger.Info("Migrations completed successfully")
}
