// Package prediction holds the scores produced by one or more model runs,
// keyed by row id and column name, and the metrics computed from them.
package prediction

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"numerox/internal/data"
)

var (
	// ErrConflict is returned when a (row id, name) cell would be written
	// twice.
	ErrConflict = errors.New("prediction conflict")
	// ErrUnknownName is returned for a column name the Prediction does not hold.
	ErrUnknownName = errors.New("unknown prediction name")
	// ErrNoTargets is returned by Evaluate when no scored row has a target.
	ErrNoTargets = errors.New("no scored rows with targets")
)

// Prediction is a sparse table of scores: rows are dataset ids, columns are
// run names such as "logistic_kazutsugi". Ids keep the order in which they
// were first added; names keep the order in which they were first added.
type Prediction struct {
	ids    []string
	pos    map[string]int
	names  []string
	scores map[string]map[string]float64 // name -> id -> score
}

// New returns an empty Prediction.
func New() *Prediction {
	return &Prediction{
		pos:    make(map[string]int),
		scores: make(map[string]map[string]float64),
	}
}

// Add stores scores[i] for ids[i] under name. Adding to an existing name is
// allowed as long as no id already has a score under it. On error p is left
// unchanged.
func (p *Prediction) Add(name string, ids []string, scores []float64) error {
	if len(ids) != len(scores) {
		return fmt.Errorf("%w: %d ids, %d scores", data.ErrShapeMismatch, len(ids), len(scores))
	}
	col := p.scores[name]
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := col[id]; ok {
			return fmt.Errorf("%w: %s already scored under %q", ErrConflict, id, name)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s given twice for %q", ErrConflict, id, name)
		}
		seen[id] = struct{}{}
	}

	if col == nil {
		col = make(map[string]float64, len(ids))
		p.scores[name] = col
		p.names = append(p.names, name)
	}
	for i, id := range ids {
		if _, ok := p.pos[id]; !ok {
			p.pos[id] = len(p.ids)
			p.ids = append(p.ids, id)
		}
		col[id] = scores[i]
	}
	return nil
}

// Merge combines predictions into a new one. Inputs are not modified. Two
// inputs scoring the same id under the same name is an ErrConflict.
func Merge(ps ...*Prediction) (*Prediction, error) {
	out := New()
	for _, p := range ps {
		if p == nil {
			continue
		}
		for _, name := range p.names {
			ids, scores := p.Column(name)
			if err := out.Add(name, ids, scores); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Merge returns p merged with o.
func (p *Prediction) Merge(o *Prediction) (*Prediction, error) {
	return Merge(p, o)
}

// Len returns the number of distinct ids.
func (p *Prediction) Len() int { return len(p.ids) }

// IDs returns a copy of the ids in insertion order.
func (p *Prediction) IDs() []string { return slices.Clone(p.ids) }

// Names returns a copy of the column names in insertion order.
func (p *Prediction) Names() []string { return slices.Clone(p.names) }

// Score returns the score of id under name.
func (p *Prediction) Score(id, name string) (float64, bool) {
	s, ok := p.scores[name][id]
	return s, ok
}

// Column returns the ids scored under name and their scores, in id order.
// Both slices are nil for an unknown name.
func (p *Prediction) Column(name string) ([]string, []float64) {
	col, ok := p.scores[name]
	if !ok {
		return nil, nil
	}
	ids := make([]string, 0, len(col))
	scores := make([]float64, 0, len(col))
	for _, id := range p.ids {
		if s, ok := col[id]; ok {
			ids = append(ids, id)
			scores = append(scores, s)
		}
	}
	return ids, scores
}

// Rename moves the column old to new.
func (p *Prediction) Rename(old, new string) error {
	col, ok := p.scores[old]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownName, old)
	}
	if old == new {
		return nil
	}
	if _, ok := p.scores[new]; ok {
		return fmt.Errorf("%w: name %q already exists", ErrConflict, new)
	}
	delete(p.scores, old)
	p.scores[new] = col
	p.names[slices.Index(p.names, old)] = new
	return nil
}

// Equal reports whether p and o hold the same cells. Insertion order is
// ignored; NaN scores compare equal.
func (p *Prediction) Equal(o *Prediction) bool {
	if len(p.ids) != len(o.ids) || len(p.names) != len(o.names) {
		return false
	}
	for name, col := range p.scores {
		ocol, ok := o.scores[name]
		if !ok || len(col) != len(ocol) {
			return false
		}
		for id, s := range col {
			os, ok := ocol[id]
			if !ok || !(s == os || math.IsNaN(s) && math.IsNaN(os)) {
				return false
			}
		}
	}
	return true
}

func (p *Prediction) String() string {
	return fmt.Sprintf("prediction(ids=%d, names=%v)", len(p.ids), p.names)
}
