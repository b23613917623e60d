package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"airbnb_eda/internal/domain"
)

// Snapshot is one recorded ingestion run.
type Snapshot struct {
	Source  string
	Rows    int
	TakenAt time.Time
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// maxRowsPerStatement keeps a statement under the 65535 placeholder limit.
const maxRowsPerStatement = 5000

// UpsertListings writes a batch with multi-row statements.
func (r *Repo) UpsertListings(ctx context.Context, ls []domain.Listing) error {
	for len(ls) > maxRowsPerStatement {
		if err := r.upsertListings(ctx, ls[:maxRowsPerStatement]); err != nil {
			return err
		}
		ls = ls[maxRowsPerStatement:]
	}
	return r.upsertListings(ctx, ls)
}

func (r *Repo) upsertListings(ctx context.Context, ls []domain.Listing) error {
	if len(ls) == 0 {
		return nil
	}
	values := make([]string, 0, len(ls))
	args := make([]any, 0, len(ls)*12) // 12 params per row
	for _, l := range ls {
		values = append(values, listingRowPlaceholders)
		args = append(args,
			l.ID,
			valStr(l.Name),
			l.HostID,
			valStr(l.HostName),
			l.Neighbourhood,
			l.Latitude,
			l.Longitude,
			l.RoomType,
			l.Price,
			l.MinimumNights,
			l.NumberOfReviews,
			l.Availability365,
		)
	}
	sqlStr := upsertListingsPrefix + strings.Join(values, ",") + upsertListingsOnDup
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("upsert %d listings: %w", len(ls), err)
	}
	return nil
}

func (r *Repo) RecordSnapshot(ctx context.Context, source string, rows int) error {
	_, err := r.db.ExecContext(ctx, insertSnapshotSQL, source, rows)
	return err
}

func (r *Repo) ListListings(ctx context.Context) ([]domain.Listing, error) {
	rows, err := r.db.QueryContext(ctx, listListingsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(
			&l.ID, &l.Name, &l.HostID, &l.HostName, &l.Neighbourhood,
			&l.Latitude, &l.Longitude, &l.RoomType, &l.Price,
			&l.MinimumNights, &l.NumberOfReviews, &l.Availability365,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) CountListings(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countListingsSQL).Scan(&n)
	return n, err
}

// LatestSnapshot returns the most recent ingestion run, or domain.ErrNotFound.
func (r *Repo) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := r.db.QueryRowContext(ctx, latestSnapshotSQL).Scan(&s.Source, &s.Rows, &s.TakenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, domain.ErrNotFound
	}
	return s, err
}
