package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"airbnb_eda/internal/adapters/insideairbnb"
	"airbnb_eda/internal/adapters/observability"
	"airbnb_eda/internal/app"
	"airbnb_eda/internal/domain"
	"airbnb_eda/internal/shared"
	mysqlrepo "airbnb_eda/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "ingestor")

	log.Info().
		Str("source", cfg.DatasetSource).
		Str("url", cfg.DatasetURL).
		Int("workers", cfg.Workers).
		Int("batch", cfg.BatchSize).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	var src domain.ListingSource
	switch cfg.DatasetSource {
	case shared.SourceFile:
		src = insideairbnb.FileSource{Path: cfg.DatasetURL}
	case shared.SourceMySQL:
		log.Fatal().Msg("DATASET_SOURCE=mysql cannot be ingested into itself; use http or file")
	default:
		client, err := insideairbnb.New(cfg.DatasetURL, cfg.FetchRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize listings client")
		}
		src = client
	}

	start := time.Now()
	ing := app.NewIngestionService(app.FromSource(src), repo, cfg.DatasetURL, cfg.Workers, cfg.BatchSize)
	n, err := ing.Ingest(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("ingestion failed")
	}

	total, err := repo.CountListings(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("count listings failed")
	}
	ev := log.Info().
		Int("ingested", n).
		Int("stored", total).
		Dur("took", time.Since(start))
	if snap, err := repo.LatestSnapshot(ctx); err == nil {
		ev = ev.Time("snapshot_at", snap.TakenAt)
	} else {
		log.Warn().Err(err).Msg("read snapshot failed")
	}
	ev.Msg("ingestion completed")
}
