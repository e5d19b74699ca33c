package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"eco2mix-insights/internal/energy/domain/dataset"
	"eco2mix-insights/internal/energy/domain/snapshot"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func day(d int) time.Time {
	return time.Date(2023, time.October, d, 0, 0, 0, 0, time.UTC)
}

func rows() []dataset.DailyObservation {
	return []dataset.DailyObservation{
		{RegionCode: "53", RegionName: "Bretagne", Date: day(3), Consumption: 90, Production: dataset.Production{Wind: 12.5}, Exchange: 40, Samples: 24},
		{RegionCode: "53", RegionName: "Bretagne", Date: day(4), Consumption: 100, Production: dataset.Production{Wind: 30, Solar: 2}, Exchange: 60, Samples: 24},
		{RegionCode: "28", RegionName: "Normandie", Date: day(4), Consumption: 200, Production: dataset.Production{Nuclear: 900}, Exchange: -700, Samples: 23},
	}
}

func save(t *testing.T, store *Store, run snapshot.Run, data []dataset.DailyObservation) {
	t.Helper()
	if err := store.SaveDaily(context.Background(), run, data); err != nil {
		t.Fatalf("save %s: %v", run.ID, err)
	}
}

func list(t *testing.T, store *Store, q snapshot.Query) []dataset.DailyObservation {
	t.Helper()
	out, err := store.ListDaily(context.Background(), q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return out
}

func TestSaveAndListDaily(t *testing.T) {
	store := openStore(t)
	save(t, store, snapshot.Run{ID: "r1", PublishedAt: day(5)}, rows())

	if all := list(t, store, snapshot.Query{}); !reflect.DeepEqual(all, rows()) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", all, rows())
	}
	bretagne := list(t, store, snapshot.Query{From: day(4), Region: dataset.Region("Bretagne")})
	if !reflect.DeepEqual(bretagne, rows()[1:2]) {
		t.Fatalf("unexpected filtered rows %+v", bretagne)
	}
	if upTo3 := list(t, store, snapshot.Query{To: day(3)}); len(upTo3) != 1 {
		t.Fatalf("expected 1 row up to Oct 3, got %d", len(upTo3))
	}
}

func TestSaveDaily_ReplacesExistingRows(t *testing.T) {
	store := openStore(t)
	save(t, store, snapshot.Run{ID: "r1", PublishedAt: day(5)}, rows())
	updated := rows()
	updated[2].Consumption = 210
	save(t, store, snapshot.Run{ID: "r2", PublishedAt: day(6)}, updated)

	all := list(t, store, snapshot.Query{})
	if len(all) != 3 || all[2].Consumption != 210 {
		t.Fatalf("expected the second run to replace rows, got %+v", all)
	}

	run, ok, err := store.LatestRun(context.Background())
	if err != nil || !ok {
		t.Fatalf("latest run: %v %v", ok, err)
	}
	if run.ID != "r2" || run.Rows != 3 || !run.PublishedAt.Equal(day(6)) {
		t.Fatalf("unexpected latest run %+v", run)
	}
}

func TestLatestRun_Empty(t *testing.T) {
	store := openStore(t)
	if _, ok, err := store.LatestRun(context.Background()); err != nil || ok {
		t.Fatalf("expected no run, got %v %v", ok, err)
	}
}

func TestSaveDaily_Validation(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.SaveDaily(ctx, snapshot.Run{}, rows()); !errors.Is(err, snapshot.ErrEmptyRunID) {
		t.Fatalf("expected ErrEmptyRunID, got %v", err)
	}
	if _, err := store.ListDaily(ctx, snapshot.Query{From: day(5), To: day(4)}); !errors.Is(err, snapshot.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestNew_RequiresPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
