package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"airbnb_eda/internal/adapters/insideairbnb"
	"airbnb_eda/internal/adapters/observability"
	"airbnb_eda/internal/app"
	"airbnb_eda/internal/domain"
	"airbnb_eda/internal/shared"
)

func main() {
	cfg := shared.Load()
	out := flag.String("out", cfg.ModelPath, "where to write the model JSON")
	lookupPath := flag.String("lookup", cfg.NeighbourhoodsPath, "semicolon-delimited neighbourhood lookup")
	flag.Parse()

	log.Logger = observability.NewLogger(cfg.AppEnv, "train")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var src domain.ListingSource
	if cfg.DatasetSource == shared.SourceFile {
		src = insideairbnb.FileSource{Path: cfg.DatasetURL}
	} else {
		client, err := insideairbnb.New(cfg.DatasetURL, cfg.FetchRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize listings client")
		}
		src = client
	}

	df, err := app.FromSource(src)(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load dataset failed")
	}
	lookup, err := app.LoadNeighbourhoodsFile(*lookupPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *lookupPath).Msg("load neighbourhood lookup failed")
	}

	m, skipped, err := app.Train(df, lookup)
	if err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}
	if err := m.Save(*out); err != nil {
		log.Fatal().Err(err).Str("path", *out).Msg("write model failed")
	}

	log.Info().
		Str("path", *out).
		Int("samples", m.Metrics.Samples).
		Int("skipped", skipped).
		Float64("r2", m.Metrics.R2).
		Float64("rmse", m.Metrics.RMSE).
		Floats64("coefficients", m.Coefficients).
		Float64("intercept", m.Intercept).
		Msg("model trained")
}
