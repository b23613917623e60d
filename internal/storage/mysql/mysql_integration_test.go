//go:build integration

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"airbnb_eda/internal/domain"
	mysqlrepo "airbnb_eda/internal/storage/mysql"
)

// migrationsDir honours MIGRATIONS_DIR, else the repo's migrations folder.
func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no .sql files in %s (%v)", dir, err)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=listings",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/listings?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func ptr[T any](v T) *T { return &v }

func TestRepo_MySQL_UpsertAndList(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	if _, err := repo.LatestSnapshot(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any snapshot, got %v", err)
	}

	batch := []domain.Listing{
		{ID: "35636", Name: "Cosy flat close to Ipanema beach", HostID: "153232", HostName: "Patricia",
			Neighbourhood: "Ipanema", Latitude: ptr(-22.98816), Longitude: ptr(-43.19359), RoomType: "Entire home/apt",
			Price: 200, MinimumNights: ptr(2), NumberOfReviews: ptr(181), Availability365: ptr(340)},
		{ID: "17878", Name: "Very Nice 2Br in Copacabana", HostID: "68997", HostName: "Matthias",
			Neighbourhood: "Copacabana", Latitude: ptr(-22.96592), Longitude: ptr(-43.17896), RoomType: "Entire home/apt",
			Price: 350, MinimumNights: ptr(5), NumberOfReviews: ptr(259), Availability365: ptr(265)},
		{ID: "100000000", HostID: "1", Neighbourhood: "Leblon", RoomType: "Private room", Price: 90, MinimumNights: ptr(1)},
	}
	if err := repo.UpsertListings(ctx, batch); err != nil {
		t.Fatalf("UpsertListings: %v", err)
	}

	// a second run updates in place
	batch[1].Price = 380
	if err := repo.UpsertListings(ctx, batch[1:2]); err != nil {
		t.Fatalf("UpsertListings again: %v", err)
	}
	if err := repo.RecordSnapshot(ctx, "file:listings.csv", len(batch)); err != nil {
		t.Fatalf("RecordSnapshot: %v", err)
	}

	n, err := repo.CountListings(ctx)
	if err != nil || n != 3 {
		t.Fatalf("CountListings: %d %v", n, err)
	}

	ls, err := repo.ListListings(ctx)
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if len(ls) != 3 || ls[0].ID != "17878" || ls[1].ID != "35636" || ls[2].ID != "100000000" {
		t.Fatalf("unexpected order: %+v", ls)
	}
	if ls[0].Price != 380 || ls[2].Name != "" || *ls[1].Availability365 != 340 {
		t.Fatalf("unexpected values: %+v", ls)
	}
	// missing numbers come back as NULL, not 0
	if ls[2].Latitude != nil || ls[2].Availability365 != nil || ls[2].NumberOfReviews != nil {
		t.Fatalf("unexpected values: %+v", ls)
	}

	snap, err := repo.LatestSnapshot(ctx)
	if err != nil || snap.Rows != 3 || snap.Source != "file:listings.csv" {
		t.Fatalf("LatestSnapshot: %+v %v", snap, err)
	}
}
