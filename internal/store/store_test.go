package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"numerox/internal/data"
	"numerox/internal/prediction"
)

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")
	if got, want := ps.Path("round1.parquet"), filepath.Join("/data", "round1.parquet"); got != want {
		t.Errorf("Path mismatch:\n  got  %s\n  want %s", got, want)
	}
	if got := ps.Path("/abs/x.parquet"); got != "/abs/x.parquet" {
		t.Errorf("absolute path rewritten to %s", got)
	}
	if got := NewParquetStore("").Path("x.parquet"); got != "x.parquet" {
		t.Errorf("empty DataDir rewrote path to %s", got)
	}
}

func TestParquetStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	live, err := data.PlayData(0).Index(data.RegionKey(data.Live))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name     string
		d        *data.Data
		compress bool
	}{
		{"micro", data.MicroData(), false},
		{"micro_zstd", data.MicroData(), true},
		{"play", data.PlayData(3), true},
		{"live", live, false},
		{"empty", data.NewEmpty(3), false},
	}
	for _, tt := range tests {
		path := filepath.Join("sub", tt.name+".parquet")
		if err := ps.SaveData(ctx, path, tt.d, tt.compress); err != nil {
			t.Fatalf("%s: SaveData: %v", tt.name, err)
		}
		got, err := ps.LoadData(ctx, path)
		if err != nil {
			t.Fatalf("%s: LoadData: %v", tt.name, err)
		}
		if !got.Equal(tt.d) {
			t.Errorf("%s: loaded data differs:\n%s", tt.name, data.Compare(tt.d, got))
		}
		if got.Hash() != tt.d.Hash() {
			t.Errorf("%s: hash changed on round trip", tt.name)
		}
	}

	empty, _ := ps.LoadData(ctx, filepath.Join("sub", "empty.parquet"))
	if _, nx := empty.XShape(); nx != 3 {
		t.Errorf("empty dataset loaded with %d features, want 3", nx)
	}
}

func TestParquetStoreMissing(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	if _, err := ps.LoadData(context.Background(), "nope.parquet"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestCachedStore(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	cs, err := NewCachedStore(NewParquetStore(dir), 2)
	if err != nil {
		t.Fatalf("NewCachedStore: %v", err)
	}

	if err := cs.SaveData(ctx, "a.parquet", data.MicroData(), false); err != nil {
		t.Fatal(err)
	}
	first, err := cs.LoadData(ctx, "a.parquet")
	if err != nil {
		t.Fatal(err)
	}
	second, err := cs.LoadData(ctx, "a.parquet")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second load was not served from the cache")
	}

	// Rewrite with different content and a later mtime.
	if err := cs.SaveData(ctx, "a.parquet", data.MicroData(0, 1), false); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(filepath.Join(dir, "a.parquet"), later, later); err != nil {
		t.Fatal(err)
	}
	third, err := cs.LoadData(ctx, "a.parquet")
	if err != nil {
		t.Fatal(err)
	}
	if third.Len() != 2 {
		t.Errorf("stale dataset served after rewrite: %d rows", third.Len())
	}
	if cs.Len() != 2 {
		t.Errorf("cache holds %d entries, want 2", cs.Len())
	}
}

func TestSQLiteStoreOpen(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore(%q) returned error: %v", dbPath, err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			t.Errorf("Close() returned error: %v", cerr)
		}
	}()

	// Verify the store is usable by pinging the database.
	if err := store.db.Ping(); err != nil {
		t.Fatalf("db.Ping() returned error: %v", err)
	}
}

func TestSQLiteStoreCreatesDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "nested", "runs.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore(%q) returned error: %v", dbPath, err)
	}
	defer store.Close()
	if runs, err := store.ListRuns(context.Background()); err != nil || len(runs) != 0 {
		t.Errorf("ListRuns on a fresh database = %v, %v", runs, err)
	}
}

func TestSQLiteStoreRuns(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	p := prediction.New()
	if err := p.Add("logistic", []string{"a", "b", "c"}, []float64{0.1, math.NaN(), 0.7}); err != nil {
		t.Fatal(err)
	}
	if err := p.Add("mean", []string{"c", "d"}, []float64{0.5, 0.5}); err != nil {
		t.Fatal(err)
	}

	older := &Run{Model: "mean", Splitter: "cv(kfold=5,seed=0)", DataHash: "h0",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := store.SaveRun(ctx, older, prediction.New()); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	run := &Run{Model: "logistic", Splitter: "validation", DataHash: "h1"}
	if err := store.SaveRun(ctx, run, p); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if run.ID == "" || run.CreatedAt.IsZero() || run.Rows != 4 {
		t.Errorf("SaveRun did not fill in the run: %+v", run)
	}

	gotRun, got, err := store.LoadRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if gotRun.Model != "logistic" || gotRun.DataHash != "h1" || gotRun.Rows != 4 {
		t.Errorf("LoadRun returned %+v", gotRun)
	}
	if !got.Equal(p) {
		t.Errorf("loaded %v, want %v", got, p)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != run.ID || runs[1].ID != older.ID {
		t.Errorf("ListRuns = %+v, want newest first", runs)
	}

	if _, _, err := store.LoadRun(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
