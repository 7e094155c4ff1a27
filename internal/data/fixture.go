package data

import (
	"fmt"
	"math"
	"math/rand"
)

// MicroData returns a 10-row dataset used throughout the tests:
//
//	row  id      era   region      y
//	0    index0  era1  train       0
//	1    index1  era2  train       1
//	2    index2  era2  train       0
//	3    index3  era3  validation  1
//	4    index4  era3  validation  0
//	5    index5  era3  validation  1
//	6    index6  era4  validation  0
//	7    index7  eraX  test        1
//	8    index8  eraX  test        0
//	9    index9  eraX  live        NaN
//
// With row positions given, only those rows are returned, in that order.
func MicroData(rows ...int) *Data {
	ids := make([]string, 10)
	x := make([][]float64, 10)
	y := make([]float64, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("index%d", i)
		x[i] = []float64{0.1 * float64(i), 1 - 0.05*float64(i*i%7), math.Sin(float64(i))}
		y[i] = float64(i % 2)
	}
	y[9] = math.NaN()
	era := []string{"era1", "era2", "era2", "era3", "era3", "era3", "era4", "eraX", "eraX", "eraX"}
	region := []string{Train, Train, Train, Validation, Validation, Validation, Validation, Test, Test, Live}

	d, err := New(ids, era, region, x, y)
	if err != nil {
		panic(err)
	}
	if len(rows) == 0 {
		return d
	}
	return d.take(rows)
}

// PlayData returns a synthetic tournament-shaped dataset: 12 train eras and
// 4 validation eras of 40 rows each with binary targets, plus an eraX block
// of test and live rows without targets. Features are five noisy mixtures of
// two latent factors; the target depends on the first factor.
func PlayData(seed int64) *Data {
	const (
		rowsPerEra = 40
		nx         = 5
	)
	rng := rand.New(rand.NewSource(seed))
	loadings := [nx][2]float64{{1, 0}, {0.8, 0.3}, {0.2, 1}, {-0.5, 0.7}, {0.4, -0.6}}

	var (
		ids, era, region []string
		x                [][]float64
		y                []float64
	)
	add := func(e, r string, labelled bool) {
		for k := 0; k < rowsPerEra; k++ {
			f1, f2 := rng.NormFloat64(), rng.NormFloat64()
			row := make([]float64, nx)
			for j := range row {
				row[j] = loadings[j][0]*f1 + loadings[j][1]*f2 + 0.3*rng.NormFloat64()
			}
			target := math.NaN()
			if labelled {
				target = 0
				if f1+0.5*rng.NormFloat64() > 0 {
					target = 1
				}
			}
			ids = append(ids, fmt.Sprintf("n%06d", len(ids)))
			era = append(era, e)
			region = append(region, r)
			x = append(x, row)
			y = append(y, target)
		}
	}
	for i := 1; i <= 12; i++ {
		add(fmt.Sprintf("era%d", i), Train, true)
	}
	for i := 13; i <= 16; i++ {
		add(fmt.Sprintf("era%d", i), Validation, true)
	}
	add("eraX", Test, false)
	add("eraX", Live, false)

	d, err := New(ids, era, region, x, y)
	if err != nil {
		panic(err)
	}
	return d
}
