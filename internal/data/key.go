package data

import (
	"fmt"
	"strings"
)

// Key selects rows of a dataset. The concrete key types are EraKey,
// RegionKey, Mask and IDs; no other type satisfies Key.
type Key interface {
	isKey()
}

// EraKey selects every row of one era.
type EraKey string

// RegionKey selects every row of one region.
type RegionKey string

// Mask selects rows where the mask is true. Its length must equal the
// dataset length.
type Mask []bool

// IDs selects rows by id, keeping dataset order.
type IDs []string

func (EraKey) isKey()    {}
func (RegionKey) isKey() {}
func (Mask) isKey()      {}
func (IDs) isKey()       {}

// Known region names.
const (
	Train      = "train"
	Validation = "validation"
	Test       = "test"
	Live       = "live"
	// Tournament is the region set validation+test+live.
	Tournament = "tournament"
)

var tournamentRegions = []string{Validation, Test, Live}

// ParseKey maps a bare name to an EraKey or RegionKey. Names starting with
// "era" followed by at least one character are eras; the known region names
// and "tournament" are regions. Anything else is ErrInvalidKey.
func ParseKey(name string) (Key, error) {
	switch {
	case isRegionName(name):
		return RegionKey(name), nil
	case strings.HasPrefix(name, "era") && len(name) > len("era"):
		return EraKey(name), nil
	}
	return nil, fmt.Errorf("%w: %q is neither an era nor a region", ErrInvalidKey, name)
}

func isRegionName(name string) bool {
	switch name {
	case Train, Validation, Test, Live, Tournament:
		return true
	}
	return false
}

// Index returns the rows selected by key in dataset order.
func (d *Data) Index(key Key) (*Data, error) {
	switch k := key.(type) {
	case EraKey:
		rows := d.rowsWhere(d.era, string(k))
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w: unknown era %q", ErrInvalidKey, string(k))
		}
		return d.take(rows), nil
	case RegionKey:
		if k == Tournament {
			return d.RegionIsIn(tournamentRegions), nil
		}
		rows := d.rowsWhere(d.region, string(k))
		if len(rows) == 0 && !isRegionName(string(k)) {
			return nil, fmt.Errorf("%w: unknown region %q", ErrInvalidKey, string(k))
		}
		return d.take(rows), nil
	case Mask:
		if len(k) != d.Len() {
			return nil, fmt.Errorf("%w: mask length %d, data length %d", ErrInvalidKey, len(k), d.Len())
		}
		return d.mask(k), nil
	case IDs:
		want := make(map[string]struct{}, len(k))
		for _, id := range k {
			if !d.Has(id) {
				return nil, fmt.Errorf("%w: id %q", ErrKeyNotFound, id)
			}
			want[id] = struct{}{}
		}
		rows := make([]int, 0, len(want))
		for i, id := range d.ids {
			if _, ok := want[id]; ok {
				rows = append(rows, i)
			}
		}
		return d.take(rows), nil
	case nil:
		return nil, fmt.Errorf("%w: nil key", ErrInvalidKey)
	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrInvalidKey, key)
	}
}

// Loc returns the rows with the given ids in exactly the requested order.
func (d *Data) Loc(ids []string) (*Data, error) {
	rows := make([]int, len(ids))
	for j, id := range ids {
		i, ok := d.pos[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %q", ErrKeyNotFound, id)
		}
		rows[j] = i
	}
	return d.take(rows), nil
}

// EraIsIn returns the rows whose era is one of eras.
func (d *Data) EraIsIn(eras []string) *Data { return d.isIn(d.era, eras, true) }

// EraIsNotIn returns the rows whose era is not one of eras.
func (d *Data) EraIsNotIn(eras []string) *Data { return d.isIn(d.era, eras, false) }

// RegionIsIn returns the rows whose region is one of regions.
func (d *Data) RegionIsIn(regions []string) *Data { return d.isIn(d.region, regions, true) }

// RegionIsNotIn returns the rows whose region is not one of regions.
func (d *Data) RegionIsNotIn(regions []string) *Data { return d.isIn(d.region, regions, false) }

func (d *Data) isIn(col, values []string, keep bool) *Data {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	m := make(Mask, len(col))
	for i, v := range col {
		_, ok := set[v]
		m[i] = ok == keep
	}
	return d.mask(m)
}

func (d *Data) mask(m Mask) *Data {
	rows := make([]int, 0, len(m))
	for i, ok := range m {
		if ok {
			rows = append(rows, i)
		}
	}
	return d.take(rows)
}

func (d *Data) rowsWhere(col []string, value string) []int {
	var rows []int
	for i, v := range col {
		if v == value {
			rows = append(rows, i)
		}
	}
	return rows
}

// MaskWhere returns a mask that is true where pred holds for the target.
func (d *Data) MaskWhere(pred func(y float64) bool) Mask {
	m := make(Mask, d.Len())
	for i, y := range d.y {
		m[i] = pred(y)
	}
	return m
}
