package data

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Concat stacks datasets row-wise. Row ids must be disjoint across inputs and
// non-empty inputs must share a feature width.
func Concat(ds ...*Data) (*Data, error) {
	if len(ds) == 0 {
		return NewEmpty(0), nil
	}
	nx := ds[0].nx
	for _, d := range ds {
		if d.Len() > 0 {
			nx = d.nx
			break
		}
	}

	var (
		ids, era, region []string
		x, y             []float64
	)
	for i, d := range ds {
		if d.Len() == 0 {
			continue
		}
		if d.nx != nx {
			return nil, fmt.Errorf("%w: dataset %d has %d features, want %d", ErrShapeMismatch, i, d.nx, nx)
		}
		ids = append(ids, d.ids...)
		era = append(era, d.era...)
		region = append(region, d.region...)
		x = append(x, d.x...)
		y = append(y, d.y...)
	}
	return build(ids, era, region, x, nx, y)
}

// Balance downsamples, within each era, whichever of target 0 or target 1 is
// more frequent until both classes have the same count. With trainOnly set
// only train-region rows are considered; other rows pass through. Rows whose
// target is neither 0 nor 1 are always kept, so eras without binary targets
// are unchanged.
//
// The majority rows that survive are the first k of a shuffle seeded with
// seed; the result keeps the original row order. Balancing a balanced
// dataset returns an equal dataset.
func (d *Data) Balance(trainOnly bool, seed int64) *Data {
	rng := rand.New(rand.NewSource(seed))
	keep := make(Mask, d.Len())
	for i := range keep {
		keep[i] = true
	}
	eras, groups := d.eraRows(func(i int) bool {
		return !trainOnly || d.region[i] == Train
	})
	for _, e := range eras {
		zeros, ones, _ := d.classes(groups[e])
		if len(zeros)+len(ones) == 0 {
			continue
		}
		major, n := zeros, len(ones)
		if len(ones) > len(zeros) {
			major, n = ones, len(zeros)
		}
		for _, p := range rng.Perm(len(major))[n:] {
			keep[major[p]] = false
		}
	}
	return d.mask(keep)
}

// Subsample keeps roughly fraction of the rows of every era, sampling each
// target class separately so class proportions are preserved. With balance
// set the dataset is balanced first.
func (d *Data) Subsample(fraction float64, balance bool, seed int64) (*Data, error) {
	if !(fraction > 0 && fraction <= 1) {
		return nil, fmt.Errorf("%w: fraction %v not in (0, 1]", ErrInvalidArgument, fraction)
	}
	src := d
	if balance {
		src = d.Balance(false, seed)
	}
	rng := rand.New(rand.NewSource(seed))
	eras, groups := src.eraRows(nil)
	var rows []int
	for _, e := range eras {
		zeros, ones, other := src.classes(groups[e])
		for _, bucket := range [][]int{zeros, ones, other} {
			k := int(math.Round(fraction * float64(len(bucket))))
			for _, p := range rng.Perm(len(bucket))[:k] {
				rows = append(rows, bucket[p])
			}
		}
	}
	sort.Ints(rows)
	return src.take(rows), nil
}

func (d *Data) classes(rows []int) (zeros, ones, other []int) {
	for _, i := range rows {
		switch d.y[i] {
		case 0:
			zeros = append(zeros, i)
		case 1:
			ones = append(ones, i)
		default:
			other = append(other, i)
		}
	}
	return zeros, ones, other
}

// NFactor selects how many principal components PCA keeps.
type NFactor struct {
	count    int
	variance float64
}

// AllFactors keeps every component.
func AllFactors() NFactor { return NFactor{} }

// FactorCount keeps the first k components.
func FactorCount(k int) NFactor { return NFactor{count: k} }

// FactorVariance keeps the fewest leading components whose share of the
// total variance reaches v, 0 < v <= 1.
func FactorVariance(v float64) NFactor { return NFactor{variance: v} }

// PCA returns a copy of d whose features are the projection of the centred
// features onto their principal axes. The resulting columns are pairwise
// uncorrelated.
func (d *Data) PCA(nf NFactor) (*Data, error) {
	n, p := d.XShape()
	if n < 2 || p == 0 {
		return nil, fmt.Errorf("%w: pca needs at least 2 rows and 1 feature, have %dx%d", ErrInvalidArgument, n, p)
	}
	x := mat.NewDense(n, p, cloneFloats(d.x))

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, fmt.Errorf("%w: principal component decomposition failed", ErrInvalidArgument)
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	k, err := nf.components(vars)
	if err != nil {
		return nil, err
	}

	// Centre the features before projecting.
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, x)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			x.Set(i, j, x.At(i, j)-mean)
		}
	}
	var proj mat.Dense
	proj.Mul(x, vecs.Slice(0, p, 0, k))

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = proj.RawRowView(i)
	}
	return d.XNew(rows)
}

func (nf NFactor) components(vars []float64) (int, error) {
	k := len(vars)
	switch {
	case nf.count < 0 || nf.variance < 0 || nf.variance > 1:
		return 0, fmt.Errorf("%w: nfactor count=%d variance=%v", ErrInvalidArgument, nf.count, nf.variance)
	case nf.count > 0:
		if nf.count > k {
			return 0, fmt.Errorf("%w: %d components requested, %d available", ErrInvalidArgument, nf.count, k)
		}
		return nf.count, nil
	case nf.variance > 0:
		total := floats.Sum(vars)
		var cum float64
		for i, v := range vars {
			cum += v
			if cum/total >= nf.variance {
				return i + 1, nil
			}
		}
	}
	return k, nil
}
