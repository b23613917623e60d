package app

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog/log"

	"airbnb_eda/internal/adapters/observability"
	"airbnb_eda/internal/domain"
)

// rawColumns are the source CSV columns kept by load-and-clean, in output order.
var rawColumns = []string{
	"id", "name", "host_id", "host_name", "neighbourhood", "latitude", "longitude",
	"room_type", "price", "minimum_nights", "number_of_reviews", "availability_365",
}

// renames maps source column names to display names. Columns not listed keep their name.
var renames = []struct{ from, to string }{
	{"name", domain.ColName},
	{"host_name", domain.ColHostName},
	{"neighbourhood", domain.ColNeighbourhood},
	{"room_type", domain.ColRoomType},
	{"price", domain.ColPrice},
	{"minimum_nights", domain.ColMinimumNights},
	{"number_of_reviews", domain.ColNumberOfReviews},
	{"availability_365", domain.ColAvailability365},
}

var rawTypes = map[string]series.Type{
	"latitude":          series.Float,
	"longitude":         series.Float,
	"price":             series.Float,
	"minimum_nights":    series.Int,
	"number_of_reviews": series.Int,
	"availability_365":  series.Int,
}

// LoadAndClean reads a listings CSV, keeps the listing columns, drops rows whose
// price is outside (0, 6000] and renames the columns for display.
func LoadAndClean(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(rawTypes),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parse listings csv: %w", df.Err)
	}
	if err := requireColumns(df, rawColumns); err != nil {
		return dataframe.DataFrame{}, err
	}

	df = df.Select(rawColumns).FilterAggregation(dataframe.And,
		dataframe.F{Colname: "price", Comparator: series.Greater, Comparando: domain.MinPriceExclusive},
		dataframe.F{Colname: "price", Comparator: series.LessEq, Comparando: domain.MaxPrice},
	)
	for _, rn := range renames {
		df = df.Rename(rn.to, rn.from)
	}
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("clean listings: %w", df.Err)
	}
	return df, nil
}

func requireColumns(df dataframe.DataFrame, cols []string) error {
	have := make(map[string]bool, df.Ncol())
	for _, n := range df.Names() {
		have[n] = true
	}
	for _, c := range cols {
		if !have[c] {
			return fmt.Errorf("%w: missing column %q", domain.ErrSchema, c)
		}
	}
	return nil
}

// FromListings builds a cleaned table from stored listings (same columns as
// LoadAndClean). Nil numbers become NA.
func FromListings(ls []domain.Listing) (dataframe.DataFrame, error) {
	if len(ls) == 0 {
		return dataframe.DataFrame{}, domain.ErrEmptyDataset
	}
	cols := make([][]string, len(listingColumns))
	for _, l := range ls {
		for i, v := range listingRecord(l) {
			cols[i] = append(cols[i], v)
		}
	}

	ss := make([]series.Series, len(listingColumns))
	for i, c := range listingColumns {
		ss[i] = series.New(cols[i], c.typ, c.name)
	}
	df := dataframe.New(ss...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load listings: %w", df.Err)
	}
	return df, nil
}

// listingColumns is the cleaned column order and type.
var listingColumns = []struct {
	name string
	typ  series.Type
}{
	{domain.ColID, series.String},
	{domain.ColName, series.String},
	{domain.ColHostID, series.String},
	{domain.ColHostName, series.String},
	{domain.ColNeighbourhood, series.String},
	{domain.ColLatitude, series.Float},
	{domain.ColLongitude, series.Float},
	{domain.ColRoomType, series.String},
	{domain.ColPrice, series.Float},
	{domain.ColMinimumNights, series.Int},
	{domain.ColNumberOfReviews, series.Int},
	{domain.ColAvailability365, series.Int},
}

// listingRecord renders l in listingColumns order.
func listingRecord(l domain.Listing) []string {
	return []string{
		l.ID, l.Name, l.HostID, l.HostName, l.Neighbourhood,
		floatRecord(l.Latitude), floatRecord(l.Longitude), l.RoomType, floatRecord(&l.Price),
		intRecord(l.MinimumNights), intRecord(l.NumberOfReviews), intRecord(l.Availability365),
	}
}

// "NaN" is what gota parses as a missing element.
func floatRecord(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return "NaN"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func intRecord(v *int) string {
	if v == nil {
		return "NaN"
	}
	return strconv.Itoa(*v)
}

// ToListings converts a cleaned table back to listing records. Missing numbers
// stay nil so they are stored as NULL.
func ToListings(df dataframe.DataFrame) []domain.Listing {
	n := df.Nrow()
	if n == 0 {
		return nil
	}
	ids := df.Col(domain.ColID).Records()
	names := df.Col(domain.ColName).Records()
	hostIDs := df.Col(domain.ColHostID).Records()
	hostNames := df.Col(domain.ColHostName).Records()
	hoods := df.Col(domain.ColNeighbourhood).Records()
	rooms := df.Col(domain.ColRoomType).Records()
	lat := df.Col(domain.ColLatitude).Float()
	lon := df.Col(domain.ColLongitude).Float()
	price := df.Col(domain.ColPrice).Float()
	nights := df.Col(domain.ColMinimumNights).Float()
	reviews := df.Col(domain.ColNumberOfReviews).Float()
	avail := df.Col(domain.ColAvailability365).Float()

	out := make([]domain.Listing, n)
	for i := 0; i < n; i++ {
		out[i] = domain.Listing{
			ID:              ids[i],
			Name:            names[i],
			HostID:          hostIDs[i],
			HostName:        hostNames[i],
			Neighbourhood:   hoods[i],
			Latitude:        optFloat(lat[i]),
			Longitude:       optFloat(lon[i]),
			RoomType:        rooms[i],
			Price:           orZero(price[i]),
			MinimumNights:   optInt(nights[i]),
			NumberOfReviews: optInt(reviews[i]),
			Availability365: optInt(avail[i]),
		}
	}
	return out
}

func optFloat(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

func optInt(f float64) *int {
	if math.IsNaN(f) {
		return nil
	}
	n := int(f)
	return &n
}

func orZero(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return f
}

// LoadFunc produces a cleaned listings table.
type LoadFunc func(ctx context.Context) (dataframe.DataFrame, error)

// FromSource fetches the raw CSV and cleans it.
func FromSource(src domain.ListingSource) LoadFunc {
	return func(ctx context.Context) (dataframe.DataFrame, error) {
		rc, err := src.Fetch(ctx)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("fetch listings: %w", err)
		}
		defer rc.Close()
		return LoadAndClean(rc)
	}
}

// FromRepository reads a stored snapshot.
func FromRepository(repo domain.ListingRepository) LoadFunc {
	return func(ctx context.Context) (dataframe.DataFrame, error) {
		ls, err := repo.ListListings(ctx)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("list stored listings: %w", err)
		}
		return FromListings(ls)
	}
}

// Dataset holds the cleaned listings table and the filter options derived from it.
// Readers get an immutable snapshot; Swap replaces it.
type Dataset struct {
	mu       sync.RWMutex
	df       dataframe.DataFrame
	options  domain.FilterOptions
	version  string
	loadedAt time.Time
}

func NewDataset(df dataframe.DataFrame) *Dataset {
	d := &Dataset{}
	d.Swap(df)
	return d
}

func (d *Dataset) Swap(df dataframe.DataFrame) {
	opts := BuildOptions(df)
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.df = df
	d.options = opts
	d.loadedAt = now
	d.version = strconv.FormatInt(now.UnixNano(), 36)
}

// Snapshot returns the current table and its version.
func (d *Dataset) Snapshot() (dataframe.DataFrame, string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.df, d.version
}

func (d *Dataset) Options() domain.FilterOptions {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.options
}

func (d *Dataset) Rows() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.df.Nrow()
}

func (d *Dataset) LoadedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loadedAt
}

// Reload runs load and swaps the table in on success. On failure the previous table stays.
func (d *Dataset) Reload(ctx context.Context, source string, load LoadFunc) error {
	df, err := load(ctx)
	if err == nil && df.Nrow() == 0 {
		err = domain.ErrEmptyDataset
	}
	observability.ObserveDatasetLoad(source, df.Nrow(), err)
	if err != nil {
		log.Error().Err(err).Str("source", source).Msg("dataset reload failed, keeping previous table")
		return err
	}
	d.Swap(df)
	log.Info().Str("source", source).Int("rows", df.Nrow()).Msg("dataset reloaded")
	return nil
}
