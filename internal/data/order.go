package data

import (
	"iter"
	"sort"
	"strconv"
	"strings"
)

// EraLess orders eras by the number following the "era" prefix. Eras without
// a numeric suffix, such as "eraX", sort after every numbered era.
func EraLess(a, b string) bool {
	na, oka := eraNumber(a)
	nb, okb := eraNumber(b)
	switch {
	case oka && okb:
		if na != nb {
			return na < nb
		}
		return a < b
	case oka != okb:
		return oka
	}
	return a < b
}

func eraNumber(era string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(era, "era"))
	if err != nil || !strings.HasPrefix(era, "era") {
		return 0, false
	}
	return n, true
}

var regionRank = map[string]int{Train: 0, Validation: 1, Test: 2, Live: 3}

// RegionLess orders train, validation, test and live first, then any other
// region lexically.
func RegionLess(a, b string) bool {
	ra, oka := regionRank[a]
	rb, okb := regionRank[b]
	switch {
	case oka && okb:
		return ra < rb
	case oka != okb:
		return oka
	}
	return a < b
}

// UniqueEra returns the distinct eras in era order.
func (d *Data) UniqueEra() []string { return unique(d.era, EraLess) }

// UniqueRegion returns the distinct regions in region order.
func (d *Data) UniqueRegion() []string { return unique(d.region, RegionLess) }

func unique(col []string, less func(a, b string) bool) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range col {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// EraIter yields each era with the mask of its rows, in era order. Every
// call starts a fresh sequence.
func (d *Data) EraIter() iter.Seq2[string, Mask] {
	return d.groupIter(d.era, d.UniqueEra)
}

// RegionIter yields each region with the mask of its rows, in region order.
func (d *Data) RegionIter() iter.Seq2[string, Mask] {
	return d.groupIter(d.region, d.UniqueRegion)
}

func (d *Data) groupIter(col []string, labels func() []string) iter.Seq2[string, Mask] {
	return func(yield func(string, Mask) bool) {
		for _, label := range labels() {
			m := make(Mask, len(col))
			for i, v := range col {
				m[i] = v == label
			}
			if !yield(label, m) {
				return
			}
		}
	}
}

// eraRows groups row positions by era, optionally limited to rows for which
// include returns true. Eras are returned in era order.
func (d *Data) eraRows(include func(i int) bool) ([]string, map[string][]int) {
	groups := make(map[string][]int)
	for i, e := range d.era {
		if include == nil || include(i) {
			groups[e] = append(groups[e], i)
		}
	}
	eras := make([]string, 0, len(groups))
	for e := range groups {
		eras = append(eras, e)
	}
	sort.Slice(eras, func(i, j int) bool { return EraLess(eras[i], eras[j]) })
	return eras, groups
}
