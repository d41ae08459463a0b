package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/simaogato/stockval-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/stockval-backend/internal/usecase/recalc"
	"github.com/simaogato/stockval-backend/internal/usecase/seeder"
)

func main() {
	snapshotFlag := flag.Bool("snapshot", false, "also write a valuation snapshot for each stock")
	forceFlag := flag.Bool("force", false, "recreate snapshots that already exist for the date")
	dateFlag := flag.String("date", "", "snapshot date in YYYY-MM-DD (default: today)")
	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// 1. Setup Database
	dbConnStr := os.Getenv("DB_CONN_STR")
	if dbConnStr == "" {
		// If explicit string is missing, build it from individual vars (Docker friendly)
		host := envOr("DB_HOST", "localhost")
		port := envOr("DB_PORT", "5432")
		user := envOr("DB_USER", "postgres")
		password := envOr("DB_PASSWORD", "postgres")
		dbname := envOr("DB_NAME", "stockval")

		dbConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}

	db, err := postgres.NewDB(dbConnStr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// 2. Initialize Repositories (Postgres)
	stockRepo := postgres.NewStockRepository(db)
	snapshotRepo := postgres.NewSnapshotRepository(db)

	// 3. Ensure the curated universe exists
	ctx := context.Background()
	universeSeeder := seeder.NewUniverseSeeder(stockRepo)
	if err := universeSeeder.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed curated universe")
	}
	log.Info().Msg("curated universe seeded")

	// 4. Recalculate valuations from the metrics stored on each stock.
	// Fresh metrics arrive through the market-data refresh job, which
	// runs separately; this command only recomputes.
	service := recalc.NewService(stockRepo, snapshotRepo, log)

	processed, failed, err := service.RecalculateAll(ctx, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("recalculation run failed")
	}
	log.Info().Int("processed", processed).Int("failed", failed).Msg("recalculation complete")

	// 5. Optionally write snapshots for the date
	if *snapshotFlag {
		snapshotDate := time.Now().UTC()
		if *dateFlag != "" {
			snapshotDate, err = time.Parse("2006-01-02", *dateFlag)
			if err != nil {
				log.Fatal().Err(err).Str("date", *dateFlag).Msg("invalid snapshot date")
			}
		}

		created, skipped, err := service.SnapshotAll(ctx, snapshotDate, *forceFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("snapshot run failed")
		}
		log.Info().Int("created", created).Int("skipped", skipped).Msg("snapshots complete")
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
