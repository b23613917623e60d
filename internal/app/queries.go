package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog/log"

	"airbnb_eda/internal/domain"
)

type QueryService struct {
	data     *Dataset
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(d *Dataset, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{data: d, cache: c, cacheTTL: ttl}
}

func (s *QueryService) Options() domain.FilterOptions {
	return s.data.Options()
}

// Selection returns the filtered rows and their KPIs, served from cache when possible.
func (s *QueryService) Selection(ctx context.Context, f domain.FilterState, srt domain.SortOrder) (domain.Selection, error) {
	df, version := s.data.Snapshot()
	if df.Nrow() == 0 {
		return domain.Selection{}, domain.ErrEmptyDataset
	}
	key := selectionKey(version, f, srt)

	var out domain.Selection
	ok, err := s.cache.Get(ctx, key, &out)
	switch {
	case err != nil:
		// a failed read or decode is a miss
		log.Warn().Err(err).Str("key", key).Msg("selection cache read failed")
	case ok:
		return out, nil
	}

	sel, err := selectFrom(df, f, srt)
	if err != nil {
		return domain.Selection{}, err
	}
	out = domain.Selection{
		DatasetVersion: version,
		Filter:         f,
		Sort:           srt,
		Rows:           Rows(sel),
		Summary:        Summarize(sel),
	}

	// optional size guard
	if b, _ := json.Marshal(out); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// Frame returns the selection as a table (used by exports).
func (s *QueryService) Frame(f domain.FilterState, srt domain.SortOrder) (dataframe.DataFrame, error) {
	df, _ := s.data.Snapshot()
	return selectFrom(df, f, srt)
}

func (s *QueryService) Chart(f domain.FilterState, kind string) (domain.Chart, error) {
	df, _ := s.data.Snapshot()
	sel, err := selectFrom(df, f, domain.SortOrder{})
	if err != nil {
		return domain.Chart{}, err
	}
	return Rank(sel, kind)
}

// selectFrom rejects an unloaded table before selecting.
func selectFrom(df dataframe.DataFrame, f domain.FilterState, srt domain.SortOrder) (dataframe.DataFrame, error) {
	if df.Nrow() == 0 {
		return dataframe.DataFrame{}, domain.ErrEmptyDataset
	}
	sel := Select(df, f, srt)
	if sel.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("select listings: %w", sel.Err)
	}
	return sel, nil
}

func selectionKey(version string, f domain.FilterState, srt domain.SortOrder) string {
	b, _ := json.Marshal(struct {
		F domain.FilterState `json:"f"`
		S domain.SortOrder   `json:"s"`
	}{f, srt})
	sum := sha1.Sum(b)
	return fmt.Sprintf("selection:%s:%s", version, hex.EncodeToString(sum[:]))
}
