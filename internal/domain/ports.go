package domain

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrSchema           = errors.New("unexpected dataset schema")
	ErrModelUnavailable = errors.New("prediction model not loaded")
	ErrEmptyDataset     = errors.New("dataset has no listings")
)

// ListingSource fetches the raw listings CSV.
type ListingSource interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
}

type ListingRepository interface {
	// Write paths
	UpsertListings(ctx context.Context, ls []Listing) error
	RecordSnapshot(ctx context.Context, source string, rows int) error

	// Read paths
	ListListings(ctx context.Context) ([]Listing, error)
	CountListings(ctx context.Context) (int, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Regressor predicts a value from one feature vector.
type Regressor interface {
	Predict(features []float64) (float64, error)
}
