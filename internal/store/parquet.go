package store

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"numerox/internal/data"
)

// Compile-time interface check.
var _ DataStore = (*ParquetStore)(nil)

// nxKey is the file metadata key holding the feature count, so a file with
// zero rows still round-trips its width.
const nxKey = "numerox.nx"

// ParquetStore implements DataStore using one Parquet file per dataset.
// Relative paths are resolved against DataDir.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// DataRecord is the Parquet schema for one dataset row. A missing target is
// stored as null.
type DataRecord struct {
	ID     string    `parquet:"id"`
	Era    string    `parquet:"era,dict"`
	Region string    `parquet:"region,dict"`
	X      []float64 `parquet:"x"`
	Y      *float64  `parquet:"y,optional"`
}

// Path returns the file path a dataset name resolves to.
func (s *ParquetStore) Path(path string) string {
	if s.DataDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.DataDir, path)
}

// SaveData writes d to path. With compress set the columns are zstd
// compressed.
func (s *ParquetStore) SaveData(_ context.Context, path string, d *data.Data, compress bool) error {
	_, nx := d.XShape()
	ids, era, region, y := d.IDs(), d.Era(), d.Region(), d.Y()
	records := make([]DataRecord, d.Len())
	for i := range records {
		records[i] = DataRecord{
			ID:     ids[i],
			Era:    era[i],
			Region: region[i],
			X:      append([]float64(nil), d.Row(i)...),
		}
		if !math.IsNaN(y[i]) {
			v := y[i]
			records[i].Y = &v
		}
	}

	opts := []parquet.WriterOption{parquet.KeyValueMetadata(nxKey, strconv.Itoa(nx))}
	if compress {
		opts = append(opts, parquet.Compression(&parquet.Zstd))
	}
	if err := writeParquetFile(s.Path(path), records, opts...); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// LoadData reads a dataset written by SaveData.
func (s *ParquetStore) LoadData(_ context.Context, path string) (*data.Data, error) {
	full := s.Path(path)
	nx, err := readFeatureCount(full)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	records, err := readParquetFile[DataRecord](full)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if len(records) == 0 {
		return data.NewEmpty(nx), nil
	}

	n := len(records)
	ids := make([]string, n)
	era := make([]string, n)
	region := make([]string, n)
	x := make([][]float64, n)
	y := make([]float64, n)
	for i, r := range records {
		if len(r.X) != nx {
			return nil, fmt.Errorf("loading %s: %w: row %s has %d features, want %d",
				path, data.ErrShapeMismatch, r.ID, len(r.X), nx)
		}
		ids[i], era[i], region[i] = r.ID, r.Era, r.Region
		x[i] = r.X
		y[i] = math.NaN()
		if r.Y != nil {
			y[i] = *r.Y
		}
	}
	d, err := data.New(ids, era, region, x, y)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return d, nil
}

// readFeatureCount opens the file footer and returns the stored feature count.
func readFeatureCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return 0, err
	}
	v, ok := pf.Lookup(nxKey)
	if !ok {
		return 0, fmt.Errorf("missing %s metadata", nxKey)
	}
	return strconv.Atoi(v)
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T, opts ...parquet.WriterOption) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records, opts...)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
