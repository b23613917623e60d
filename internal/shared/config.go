package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultDatasetURL = "http://data.insideairbnb.com/brazil/rj/rio-de-janeiro/2021-12-24/visualisations/listings.csv"

// Dataset sources.
const (
	SourceHTTP  = "http"
	SourceFile  = "file"
	SourceMySQL = "mysql"
)

type Config struct {
	AppEnv             string
	HTTPAddr           string
	MetricsAddr        string
	DatasetSource      string
	DatasetURL         string
	DatasetRefresh     string
	ModelPath          string
	NeighbourhoodsPath string
	WatchFiles         bool
	MySQLDSN           string
	RedisAddr          string
	RedisDB            int
	RedisPass          string
	FetchRPS           int
	Workers            int
	BatchSize          int
	CacheTTL           time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:             env("APP_ENV", "prod"),
		HTTPAddr:           env("HTTP_ADDR", ":8080"),
		MetricsAddr:        env("METRICS_ADDR", ""),
		DatasetSource:      strings.ToLower(env("DATASET_SOURCE", SourceHTTP)),
		DatasetURL:         env("DATASET_URL", DefaultDatasetURL),
		DatasetRefresh:     env("DATASET_REFRESH", ""),
		ModelPath:          env("MODEL_PATH", "regr_model.json"),
		NeighbourhoodsPath: env("NEIGHBOURHOODS_PATH", "data/bairros.csv"),
		WatchFiles:         env("WATCH_FILES", "true") == "true",
		MySQLDSN:           env("MYSQL_DSN", "root:root@tcp(localhost:3306)/listings?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:          env("REDIS_ADDR", ""),
		RedisPass:          env("REDIS_PASSWORD", ""),
		RedisDB:            atoi("REDIS_DB", 0),
		FetchRPS:           atoi("FETCH_RPS", 2),
		Workers:            atoi("INGEST_WORKERS", 4),
		BatchSize:          atoi("INGEST_BATCH_SIZE", 500),
		CacheTTL:           time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	switch c.DatasetSource {
	case SourceHTTP, SourceFile, SourceMySQL:
	default:
		log.Warn().Str("source", c.DatasetSource).Msg("unknown DATASET_SOURCE, using http")
		c.DatasetSource = SourceHTTP
	}
	if c.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR is empty, selection cache disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
