package data

import (
	"fmt"
	"sort"
	"strings"
)

// RegionDiff counts how two datasets differ within one region.
type RegionDiff struct {
	Region  string
	Both    int // ids present in both datasets
	OnlyA   int
	OnlyB   int
	Changed int // ids in both whose era, region, features or target differ
}

// Comparison is the per-region result of Compare, in region order.
type Comparison []RegionDiff

// Compare reports, region by region, which ids two datasets share and which
// shared rows differ. A row's region is taken from a when present there.
func Compare(a, b *Data) Comparison {
	diffs := make(map[string]*RegionDiff)
	get := func(region string) *RegionDiff {
		rd, ok := diffs[region]
		if !ok {
			rd = &RegionDiff{Region: region}
			diffs[region] = rd
		}
		return rd
	}

	for i, id := range a.ids {
		rd := get(a.region[i])
		j, ok := b.pos[id]
		if !ok {
			rd.OnlyA++
			continue
		}
		rd.Both++
		if !sameRow(a, i, b, j) {
			rd.Changed++
		}
	}
	for j, id := range b.ids {
		if !a.Has(id) {
			get(b.region[j]).OnlyB++
		}
	}

	out := make(Comparison, 0, len(diffs))
	for _, rd := range diffs {
		out = append(out, *rd)
	}
	sort.Slice(out, func(i, j int) bool { return RegionLess(out[i].Region, out[j].Region) })
	return out
}

func sameRow(a *Data, i int, b *Data, j int) bool {
	if a.era[i] != b.era[j] || a.region[i] != b.region[j] || !sameFloat(a.y[i], b.y[j]) || a.nx != b.nx {
		return false
	}
	ra, rb := a.Row(i), b.Row(j)
	for k := range ra {
		if !sameFloat(ra[k], rb[k]) {
			return false
		}
	}
	return true
}

// Identical reports whether the compared datasets hold the same ids with the
// same content.
func (c Comparison) Identical() bool {
	for _, rd := range c {
		if rd.OnlyA > 0 || rd.OnlyB > 0 || rd.Changed > 0 {
			return false
		}
	}
	return true
}

func (c Comparison) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %8s %8s %8s %8s\n", "region", "both", "only_a", "only_b", "changed")
	for _, rd := range c {
		fmt.Fprintf(&b, "%-10s %8d %8d %8d %8d\n", rd.Region, rd.Both, rd.OnlyA, rd.OnlyB, rd.Changed)
	}
	return strings.TrimRight(b.String(), "\n")
}
