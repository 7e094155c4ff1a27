package prediction

import (
	"bytes"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"numerox/internal/data"
)

func mustAdd(t *testing.T, p *Prediction, name string, ids []string, scores []float64) {
	t.Helper()
	if err := p.Add(name, ids, scores); err != nil {
		t.Fatalf("Add(%s): %v", name, err)
	}
}

func TestAdd(t *testing.T) {
	p := New()
	mustAdd(t, p, "a", []string{"x", "y"}, []float64{0.1, 0.2})
	mustAdd(t, p, "b", []string{"z", "x"}, []float64{0.3, 0.4})
	mustAdd(t, p, "a", []string{"z"}, []float64{0.5})

	if got, want := p.IDs(), []string{"x", "y", "z"}; !slices.Equal(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	if got, want := p.Names(), []string{"a", "b"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if s, ok := p.Score("x", "b"); !ok || s != 0.4 {
		t.Errorf("Score(x, b) = %v, %t", s, ok)
	}
	if _, ok := p.Score("y", "b"); ok {
		t.Error("Score(y, b) found a cell that was never added")
	}
	ids, scores := p.Column("a")
	if !slices.Equal(ids, []string{"x", "y", "z"}) || !slices.Equal(scores, []float64{0.1, 0.2, 0.5}) {
		t.Errorf("Column(a) = %v %v", ids, scores)
	}

	if err := p.Add("a", []string{"w", "y"}, []float64{0, 0}); !errors.Is(err, ErrConflict) {
		t.Errorf("re-adding y: err = %v, want ErrConflict", err)
	}
	if p.Len() != 3 {
		t.Errorf("failed Add changed Len to %d", p.Len())
	}
	if err := p.Add("c", []string{"q", "q"}, []float64{0, 0}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate id in one call: err = %v, want ErrConflict", err)
	}
	if err := p.Add("c", []string{"q"}, nil); !errors.Is(err, data.ErrShapeMismatch) {
		t.Errorf("length mismatch: err = %v, want ErrShapeMismatch", err)
	}
}

func TestMerge(t *testing.T) {
	a, b := New(), New()
	mustAdd(t, a, "m", []string{"1", "2"}, []float64{0.1, 0.2})
	mustAdd(t, b, "m", []string{"3"}, []float64{0.3})
	mustAdd(t, b, "n", []string{"1"}, []float64{0.9})

	ab, err := Merge(a, b)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	ba, err := b.Merge(a)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !ab.Equal(ba) {
		t.Error("merge is not order independent")
	}
	if ab.Len() != 3 || len(ab.Names()) != 2 {
		t.Errorf("merged = %v", ab)
	}
	if a.Len() != 2 {
		t.Error("Merge modified its input")
	}

	if _, err := Merge(a, a); !errors.Is(err, ErrConflict) {
		t.Errorf("self merge: err = %v, want ErrConflict", err)
	}
}

func TestRename(t *testing.T) {
	p := New()
	mustAdd(t, p, "a", []string{"x"}, []float64{0.1})
	mustAdd(t, p, "b", []string{"x"}, []float64{0.2})
	if err := p.Rename("a", "b"); !errors.Is(err, ErrConflict) {
		t.Errorf("rename onto existing: err = %v, want ErrConflict", err)
	}
	if err := p.Rename("zz", "c"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("rename unknown: err = %v, want ErrUnknownName", err)
	}
	if err := p.Rename("a", "c"); err != nil {
		t.Fatal(err)
	}
	if got := p.Names(); !slices.Equal(got, []string{"c", "b"}) {
		t.Errorf("Names() = %v, want [c b]", got)
	}
	if s, _ := p.Score("x", "c"); s != 0.1 {
		t.Errorf("renamed score = %v", s)
	}
}

func microScores(flip bool) *Prediction {
	d := data.MicroData(0, 1, 2, 3, 4, 5, 6, 7, 8)
	scores := make([]float64, d.Len())
	for i, y := range d.Y() {
		if (y == 1) != flip {
			scores[i] = 0.9
		} else {
			scores[i] = 0.1
		}
	}
	p := New()
	_ = p.Add("model", d.IDs(), scores)
	return p
}

func TestEvaluate(t *testing.T) {
	d := data.MicroData()
	m, err := Evaluate(microScores(false), d, "model")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.Abs(m.LogLoss+math.Log(0.9)) > 1e-9 {
		t.Errorf("LogLoss = %v, want %v", m.LogLoss, -math.Log(0.9))
	}
	if m.AUC != 1 || m.Accuracy != 1 || m.Consistency != 1 {
		t.Errorf("AUC=%v Accuracy=%v Consistency=%v, want all 1", m.AUC, m.Accuracy, m.Consistency)
	}
	if m.Eras != 5 || m.Rows != 9 {
		t.Errorf("Eras=%d Rows=%d, want 5 and 9", m.Eras, m.Rows)
	}

	bad, err := Evaluate(microScores(true), d, "model")
	if err != nil {
		t.Fatal(err)
	}
	if bad.AUC != 0 || bad.Accuracy != 0 || bad.Consistency != 0 {
		t.Errorf("flipped: AUC=%v Accuracy=%v Consistency=%v, want all 0", bad.AUC, bad.Accuracy, bad.Consistency)
	}

	if _, err := Evaluate(microScores(false), d, "other"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("unknown name: err = %v, want ErrUnknownName", err)
	}
	live := New()
	mustAdd(t, live, "model", []string{"index9", "nope"}, []float64{0.5, 0.5})
	if _, err := Evaluate(live, d, "model"); !errors.Is(err, ErrNoTargets) {
		t.Errorf("live only: err = %v, want ErrNoTargets", err)
	}
	all, err := EvaluateAll(live, d)
	if err != nil || len(all) != 0 {
		t.Errorf("EvaluateAll(live) = %v, %v", all, err)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	p := microScores(false)
	var buf bytes.Buffer
	if err := p.WriteCSV(&buf, "model"); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "id,probability\nindex0,0.1\n") {
		t.Errorf("unexpected csv:\n%s", buf.String())
	}
	got, err := ReadCSV(&buf, "model")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if !got.Equal(p) {
		t.Error("csv round trip changed the prediction")
	}
	if err := p.WriteCSV(&buf, "missing"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("err = %v, want ErrUnknownName", err)
	}
	if _, err := ReadCSV(strings.NewReader("a,b\n"), "x"); err == nil {
		t.Error("ReadCSV accepted a bad header")
	}
}
