package app_test

import (
	"context"
	"errors"
	"testing"

	"airbnb_eda/internal/app"
	"airbnb_eda/internal/domain"
)

func TestIngest_BatchesAndSnapshot(t *testing.T) {
	repo := &fakeRepo{}
	ing := app.NewIngestionService(app.FromSource(stringSource(rioCSV)), repo, "http://upstream.test/listings.csv", 3, 2)

	n, err := ing.Ingest(context.Background())
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if n != 5 || len(repo.listings) != 5 {
		t.Fatalf("expected 5 stored listings, got n=%d stored=%d", n, len(repo.listings))
	}
	if repo.batches != 3 {
		t.Fatalf("expected 3 batches of at most 2, got %d", repo.batches)
	}
	if repo.snapshots["http://upstream.test/listings.csv"] != 5 {
		t.Fatalf("snapshot not recorded: %+v", repo.snapshots)
	}

	// stored rows read back as a dataset
	d := app.NewDataset(loadRio(t))
	if err := d.Reload(context.Background(), "mysql", app.FromRepository(repo)); err != nil {
		t.Fatalf("reload from repo: %v", err)
	}
	if d.Rows() != 5 {
		t.Fatalf("expected 5 rows, got %d", d.Rows())
	}
}

func TestIngest_BatchFailureSkipsSnapshot(t *testing.T) {
	repo := &fakeRepo{failAfter: 1}
	ing := app.NewIngestionService(app.FromSource(stringSource(rioCSV)), repo, "src", 1, 2)

	if _, err := ing.Ingest(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.snapshots) != 0 {
		t.Fatalf("snapshot must not be recorded on failure")
	}
}

func TestIngest_LoadError(t *testing.T) {
	repo := &fakeRepo{}
	ing := app.NewIngestionService(app.FromSource(stringSource("id,name\n1,x\n")), repo, "src", 1, 10)
	if _, err := ing.Ingest(context.Background()); !errors.Is(err, domain.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}
