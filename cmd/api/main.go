package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gota/gota/dataframe"
	_ "github.com/go-sql-driver/mysql"
	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	server "airbnb_eda/internal/adapters/http_server"
	"airbnb_eda/internal/adapters/insideairbnb"
	"airbnb_eda/internal/adapters/observability"
	redisad "airbnb_eda/internal/adapters/redis"
	"airbnb_eda/internal/adapters/watch"
	"airbnb_eda/internal/app"
	"airbnb_eda/internal/domain"
	"airbnb_eda/internal/regression"
	"airbnb_eda/internal/shared"
	mysqlrepo "airbnb_eda/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	load, closeSource := datasetLoader(cfg)
	defer closeSource()

	data := app.NewDataset(dataframe.DataFrame{})
	predictor := app.NewPredictor()

	// dataset is mandatory; model and lookup may show up later through the watcher
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return data.Reload(gctx, cfg.DatasetSource, load) })
	g.Go(func() error {
		if err := reloadModel(predictor)(cfg.ModelPath); err != nil {
			log.Warn().Err(err).Str("path", cfg.ModelPath).Msg("price model not loaded, predictions disabled")
		}
		return nil
	})
	g.Go(func() error {
		if err := reloadLookup(predictor)(cfg.NeighbourhoodsPath); err != nil {
			log.Warn().Err(err).Str("path", cfg.NeighbourhoodsPath).Msg("neighbourhood lookup not loaded")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("initial dataset load failed")
	}

	if cfg.DatasetRefresh != "" {
		c := cron.New()
		if err := c.AddFunc(cfg.DatasetRefresh, func() {
			rctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()
			_ = data.Reload(rctx, cfg.DatasetSource, load)
		}); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.DatasetRefresh).Msg("invalid DATASET_REFRESH")
		}
		c.Start()
		defer c.Stop()
		log.Info().Str("schedule", cfg.DatasetRefresh).Msg("dataset refresh scheduled")
	}

	if cfg.WatchFiles {
		startWatcher(ctx, cfg, predictor)
	}

	// deps
	var cache domain.Cache = redisad.Noop{}
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, selection cache disabled")
		} else {
			cache = rc
			defer rc.Close()
		}
		cancel()
	}
	q := app.NewQueryService(data, cache, cfg.CacheTTL)

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	h := &server.Handlers{Q: q, P: predictor, Data: data}
	srv.MountHandlers(h)
	srv.MountDashboard(h)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Int("rows", data.Rows()).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

// datasetLoader picks the listings source named by DATASET_SOURCE.
func datasetLoader(cfg shared.Config) (app.LoadFunc, func()) {
	switch cfg.DatasetSource {
	case shared.SourceFile:
		return app.FromSource(insideairbnb.FileSource{Path: cfg.DatasetURL}), func() {}
	case shared.SourceMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo := mysqlrepo.New(db)
		if snap, err := repo.LatestSnapshot(context.Background()); err != nil {
			log.Warn().Err(err).Msg("no ingested snapshot found")
		} else {
			log.Info().Str("source", snap.Source).Int("rows", snap.Rows).Time("taken_at", snap.TakenAt).Msg("serving stored snapshot")
		}
		return app.FromRepository(repo), func() { _ = db.Close() }
	default:
		client, err := insideairbnb.New(cfg.DatasetURL, cfg.FetchRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize listings client")
		}
		return app.FromSource(client), func() {}
	}
}

func reloadModel(p *app.Predictor) watch.ReloadFunc {
	return func(path string) error {
		m, err := regression.Load(path)
		if err != nil {
			return err
		}
		p.SetModel(m)
		log.Info().Str("path", path).Time("trained_at", m.TrainedAt).Float64("r2", m.Metrics.R2).Msg("price model loaded")
		return nil
	}
}

func reloadLookup(p *app.Predictor) watch.ReloadFunc {
	return func(path string) error {
		nbs, err := app.LoadNeighbourhoodsFile(path)
		if err != nil {
			return err
		}
		p.SetNeighbourhoods(nbs)
		log.Info().Str("path", path).Int("neighbourhoods", len(nbs)).Msg("neighbourhood lookup loaded")
		return nil
	}
}

func startWatcher(ctx context.Context, cfg shared.Config, p *app.Predictor) {
	w, err := watch.New(250 * time.Millisecond)
	if err != nil {
		log.Warn().Err(err).Msg("file watcher unavailable, hot reload disabled")
		return
	}
	watched := 0
	for path, fn := range map[string]watch.ReloadFunc{
		cfg.ModelPath:          reloadModel(p),
		cfg.NeighbourhoodsPath: reloadLookup(p),
	} {
		if err := w.Add(path, fn); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("cannot watch file")
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = w.Close()
		log.Warn().Msg("no watchable files, hot reload disabled")
		return
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			log.Error().Err(err).Msg("file watcher stopped")
		}
	}()
}
