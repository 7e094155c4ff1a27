// Package data defines Data, the era-labelled tabular container consumed by
// splitters, models and the backtest runner.
//
// A Data value is never mutated after construction. Every method that derives
// a new dataset returns an independent copy. Accessors for categorical
// columns (IDs, Era, Region) return owned copies; accessors for the numeric
// columns (X, Y, Row) return borrowed views that callers must treat as
// read-only.
package data

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidKey is returned when an index key names no known era or
	// region, or when a mask does not match the dataset length.
	ErrInvalidKey = errors.New("invalid key")
	// ErrKeyNotFound is returned when a requested row id is absent.
	ErrKeyNotFound = errors.New("key not found")
	// ErrDuplicateID is returned when a row id appears more than once.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrShapeMismatch is returned when row or column counts disagree.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrInvalidArgument is returned for out-of-range numeric arguments.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Data holds one row per observation: a unique id, an era, a region, a
// fixed-width feature vector and a target (NaN when unknown).
type Data struct {
	ids    []string
	era    []string
	region []string
	x      []float64 // row-major, len(ids)*nx
	nx     int
	y      []float64
	pos    map[string]int
}

// New builds a dataset from column slices. All slices must have the same
// length and every row of x the same width. The inputs are copied.
func New(ids, era, region []string, x [][]float64, y []float64) (*Data, error) {
	n := len(ids)
	if len(era) != n || len(region) != n || len(x) != n || len(y) != n {
		return nil, fmt.Errorf("%w: ids=%d era=%d region=%d x=%d y=%d",
			ErrShapeMismatch, n, len(era), len(region), len(x), len(y))
	}
	nx := 0
	if n > 0 {
		nx = len(x[0])
	}
	flat := make([]float64, 0, n*nx)
	for i, row := range x {
		if len(row) != nx {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), nx)
		}
		flat = append(flat, row...)
	}
	return build(cloneStrings(ids), cloneStrings(era), cloneStrings(region), flat, nx, cloneFloats(y))
}

// NewEmpty returns a zero-row dataset with nx feature columns.
func NewEmpty(nx int) *Data {
	d, _ := build(nil, nil, nil, nil, nx, nil)
	return d
}

// build takes ownership of its arguments.
func build(ids, era, region []string, x []float64, nx int, y []float64) (*Data, error) {
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, ok := pos[id]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		pos[id] = i
	}
	return &Data{ids: ids, era: era, region: region, x: x, nx: nx, y: y, pos: pos}, nil
}

// take returns the rows at the given positions, in that order.
func (d *Data) take(rows []int) *Data {
	ids := make([]string, len(rows))
	era := make([]string, len(rows))
	region := make([]string, len(rows))
	x := make([]float64, 0, len(rows)*d.nx)
	y := make([]float64, len(rows))
	pos := make(map[string]int, len(rows))
	for j, i := range rows {
		ids[j] = d.ids[i]
		era[j] = d.era[i]
		region[j] = d.region[i]
		x = append(x, d.Row(i)...)
		y[j] = d.y[i]
		pos[ids[j]] = j
	}
	return &Data{ids: ids, era: era, region: region, x: x, nx: d.nx, y: y, pos: pos}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Len returns the number of rows.
func (d *Data) Len() int { return len(d.ids) }

// Shape returns (rows, columns) where columns counts era, region, target and
// every feature.
func (d *Data) Shape() (int, int) { return d.Len(), d.nx + 3 }

// Size returns rows*columns.
func (d *Data) Size() int {
	r, c := d.Shape()
	return r * c
}

// XShape returns the shape of the feature matrix.
func (d *Data) XShape() (int, int) { return d.Len(), d.nx }

// IDs returns a copy of the row ids.
func (d *Data) IDs() []string { return cloneStrings(d.ids) }

// Era returns a copy of the era column.
func (d *Data) Era() []string { return cloneStrings(d.era) }

// Region returns a copy of the region column.
func (d *Data) Region() []string { return cloneStrings(d.region) }

// X returns the row-major feature matrix. The slice is shared with d.
func (d *Data) X() []float64 { return d.x }

// Row returns the features of row i. The slice is shared with d.
func (d *Data) Row(i int) []float64 { return d.x[i*d.nx : (i+1)*d.nx : (i+1)*d.nx] }

// Y returns the target column. The slice is shared with d.
func (d *Data) Y() []float64 { return d.y }

// ID returns the id of row i.
func (d *Data) ID(i int) string { return d.ids[i] }

// Has reports whether id is a row of d.
func (d *Data) Has(id string) bool {
	_, ok := d.pos[id]
	return ok
}

// Copy returns a deep copy of d.
func (d *Data) Copy() *Data {
	out, _ := build(d.IDs(), d.Era(), d.Region(), cloneFloats(d.x), d.nx, cloneFloats(d.y))
	return out
}

// XNew returns a copy of d whose features are replaced by x. x must have one
// row per row of d; its width may differ from the current width.
func (d *Data) XNew(x [][]float64) (*Data, error) {
	if len(x) != d.Len() {
		return nil, fmt.Errorf("%w: x has %d rows, data has %d", ErrShapeMismatch, len(x), d.Len())
	}
	return New(d.ids, d.era, d.region, x, d.y)
}

// YToNaN returns a copy of d with every target set to NaN.
func (d *Data) YToNaN() *Data {
	out := d.Copy()
	for i := range out.y {
		out.y[i] = math.NaN()
	}
	return out
}

// Equal reports whether d and o hold the same rows in the same order. NaN
// targets compare equal to each other.
func (d *Data) Equal(o *Data) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.Len() != o.Len() || d.nx != o.nx {
		return false
	}
	for i := range d.ids {
		if d.ids[i] != o.ids[i] || d.era[i] != o.era[i] || d.region[i] != o.region[i] {
			return false
		}
		if !sameFloat(d.y[i], o.y[i]) {
			return false
		}
	}
	for i := range d.x {
		if !sameFloat(d.x[i], o.x[i]) {
			return false
		}
	}
	return true
}

// Hash returns a hex sha256 fingerprint of every column. Equal datasets hash
// identically across calls and processes.
func (d *Data) Hash() string {
	h := sha256.New()
	var buf [8]byte
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}
	writeFloat := func(f float64) {
		switch {
		case math.IsNaN(f):
			f = math.NaN()
		case f == 0:
			f = 0 // -0 hashes as +0
		}
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(d.nx))
	h.Write(buf[:])
	for i := range d.ids {
		writeString(d.ids[i])
		writeString(d.era[i])
		writeString(d.region[i])
		writeFloat(d.y[i])
		for _, v := range d.Row(i) {
			writeFloat(v)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// String summarises the dataset by region, era range and feature count.
func (d *Data) String() string {
	if d.Len() == 0 {
		return fmt.Sprintf("empty data (x: 0x%d)", d.nx)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "rows %d, x %dx%d\n", d.Len(), d.Len(), d.nx)
	for region, mask := range d.RegionIter() {
		sub := d.mask(mask)
		eras := sub.UniqueEra()
		fmt.Fprintf(&b, "  %-10s rows %-6d eras %-4d %s..%s  mean(y) %.4f\n",
			region, sub.Len(), len(eras), eras[0], eras[len(eras)-1], nanMean(sub.y))
	}
	return strings.TrimRight(b.String(), "\n")
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneFloats(f []float64) []float64 {
	out := make([]float64, len(f))
	copy(out, f)
	return out
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func nanMean(v []float64) float64 {
	var sum float64
	var n int
	for _, f := range v {
		if !math.IsNaN(f) {
			sum += f
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
