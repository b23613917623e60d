package app_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/go-gota/gota/dataframe"

	"airbnb_eda/internal/app"
	"airbnb_eda/internal/domain"
)

// rioCSV mirrors the insideairbnb "visualisations/listings.csv" layout.
// Rows 41198 (price 0) and 48305 (price 7000) are dropped by cleaning.
const rioCSV = `id,name,host_id,host_name,neighbourhood_group,neighbourhood,latitude,longitude,room_type,price,minimum_nights,number_of_reviews,last_review,reviews_per_month,calculated_host_listings_count,availability_365
17878,Very Nice 2Br in Copacabana,68997,Matthias,,Copacabana,-22.96592,-43.17896,Entire home/apt,350,5,259,2020-02-15,2.01,1,265
25026,Beautiful Modern Decorated Studio in Copa,102840,Viviane,,Copacabana,-22.97712,-43.19045,Entire home/apt,280,3,238,2020-02-15,1.67,1,70
35636,"Cosy flat close to Ipanema beach, 2 min",153232,Patricia,,Ipanema,-22.98816,-43.19359,Entire home/apt,200,2,181,2020-03-15,1.89,1,340
35764,COPACABANA SEA BREEZE - RIO,153691,Patricia/Marcos,,Copacabana,-22.98127,-43.19046,Private room,120,3,395,2021-12-01,3.1,1,120
41198,Room in Leblon,178975,Nicky,,Leblon,-22.98405,-43.22341,Private room,0,2,12,2019-01-01,0.1,1,30
48305,Luxury penthouse,70933,Barbara,,Copacabana,-22.97,-43.18,Entire home/apt,7000,7,4,2018-10-10,0.05,2,200
48901,Studio Copacabana long stay,222884,Marcio,,Copacabana,-22.97,-43.18,Entire home/apt,390,45,10,2021-06-01,0.2,1,365
`

func loadRio(t *testing.T) dataframe.DataFrame {
	t.Helper()
	df, err := app.LoadAndClean(strings.NewReader(rioCSV))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return df
}

func ptr[T any](v T) *T { return &v }

// wide selects every listing of the fixture.
func wide() domain.FilterState {
	return domain.FilterState{
		Neighbourhoods: []string{"Copacabana", "Ipanema"},
		RoomTypes:      []string{"Entire home/apt", "Private room"},
		MinNights:      1,
		MaxNights:      1000,
		MaxPrice:       6000,
	}
}

// ---- fakes ----

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
	sets  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Selection:
		*d = v.(domain.Selection)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	c.sets++
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

type fakeRepo struct {
	mu        sync.Mutex
	listings  []domain.Listing
	batches   int
	snapshots map[string]int
	failAfter int
}

func (f *fakeRepo) UpsertListings(ctx context.Context, ls []domain.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	if f.failAfter > 0 && f.batches > f.failAfter {
		return context.DeadlineExceeded
	}
	f.listings = append(f.listings, ls...)
	return nil
}

func (f *fakeRepo) RecordSnapshot(ctx context.Context, source string, rows int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapshots == nil {
		f.snapshots = map[string]int{}
	}
	f.snapshots[source] = rows
	return nil
}

func (f *fakeRepo) ListListings(ctx context.Context) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Listing(nil), f.listings...), nil
}

func (f *fakeRepo) CountListings(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listings), nil
}
