package prediction

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"numerox/internal/data"
)

// clip bounds scores away from 0 and 1 so logloss stays finite.
const clip = 1e-15

// Metrics summarises how well one prediction column scores against the
// targets of a dataset.
type Metrics struct {
	Name     string
	LogLoss  float64
	AUC      float64
	Accuracy float64
	// Consistency is the fraction of eras whose logloss beats ln 2, the
	// logloss of always predicting 0.5.
	Consistency float64
	Eras        int
	Rows        int
}

// Evaluate scores the column name against d. Only ids present in d with a
// finite target are used.
func Evaluate(p *Prediction, d *data.Data, name string) (Metrics, error) {
	ids, scores := p.Column(name)
	if ids == nil {
		return Metrics{}, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	var (
		keep []string
		s    []float64
	)
	for i, id := range ids {
		if d.Has(id) {
			keep = append(keep, id)
			s = append(s, scores[i])
		}
	}
	sub, err := d.Loc(keep)
	if err != nil {
		return Metrics{}, err
	}

	y, eras := sub.Y(), sub.Era()
	var rows []int
	for i, v := range y {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return Metrics{}, fmt.Errorf("%w: %q", ErrNoTargets, name)
	}

	m := Metrics{Name: name, Rows: len(rows)}
	byEra := make(map[string][]int)
	var order []string
	var hits float64
	for _, i := range rows {
		if _, ok := byEra[eras[i]]; !ok {
			order = append(order, eras[i])
		}
		byEra[eras[i]] = append(byEra[eras[i]], i)
		if (s[i] > 0.5) == (y[i] > 0.5) {
			hits++
		}
	}
	m.LogLoss = logLoss(rows, s, y)
	m.Accuracy = hits / float64(len(rows))
	m.AUC = auc(rows, s, y)

	var good int
	for _, era := range order {
		if logLoss(byEra[era], s, y) < math.Ln2 {
			good++
		}
	}
	m.Eras = len(order)
	m.Consistency = float64(good) / float64(len(order))
	return m, nil
}

// EvaluateAll runs Evaluate for every column of p, in name order. Columns
// without any target rows in d are skipped.
func EvaluateAll(p *Prediction, d *data.Data) ([]Metrics, error) {
	var out []Metrics
	for _, name := range p.names {
		m, err := Evaluate(p, d, name)
		if err != nil {
			if errors.Is(err, ErrNoTargets) {
				continue
			}
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func logLoss(rows []int, s, y []float64) float64 {
	var sum float64
	for _, i := range rows {
		q := math.Min(math.Max(s[i], clip), 1-clip)
		sum -= y[i]*math.Log(q) + (1-y[i])*math.Log(1-q)
	}
	return sum / float64(len(rows))
}

// auc is the area under the ROC curve, NaN unless both classes are present.
func auc(rows []int, s, y []float64) float64 {
	idx := make([]int, len(rows))
	copy(idx, rows)
	sort.SliceStable(idx, func(a, b int) bool { return s[idx[a]] < s[idx[b]] })
	scores := make([]float64, len(idx))
	classes := make([]bool, len(idx))
	var pos int
	for k, i := range idx {
		scores[k] = s[i]
		classes[k] = y[i] > 0.5
		if classes[k] {
			pos++
		}
	}
	if pos == 0 || pos == len(idx) {
		return math.NaN()
	}
	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}
