package splitter

import (
	"fmt"
	"iter"
	"math"
	"math/rand"

	"numerox/internal/data"
)

// Compile-time interface checks.
var _ Splitter = (*SplitSplitter)(nil)
var _ Splitter = (*CVSplitter)(nil)
var _ Splitter = (*LoocvSplitter)(nil)
var _ Splitter = (*IgnoreEraCVSplitter)(nil)
var _ Splitter = (*RollSplitter)(nil)

// ---------------------------------------------------------------------------
// SplitSplitter
// ---------------------------------------------------------------------------

// SplitSplitter makes a single fold by assigning a shuffled fitFraction of the
// eras to train and the rest to test. An era is never split across the two.
type SplitSplitter struct {
	fitFraction float64
	seed        int64
	trainOnly   bool
}

// NewSplitSplitter creates a SplitSplitter. fitFraction must be in (0, 1).
func NewSplitSplitter(fitFraction float64, seed int64, trainOnly bool) *SplitSplitter {
	return &SplitSplitter{fitFraction: fitFraction, seed: seed, trainOnly: trainOnly}
}

func (s *SplitSplitter) Name() string {
	return fmt.Sprintf("split(fit_fraction=%g,seed=%d)", s.fitFraction, s.seed)
}

func (s *SplitSplitter) Split(d *data.Data) iter.Seq2[Fold, error] {
	if !(s.fitFraction > 0 && s.fitFraction < 1) {
		return failed(fmt.Errorf("%w: fit fraction %v not in (0, 1)", ErrInvalidConfig, s.fitFraction))
	}
	src := sourceRows(d, s.trainOnly)
	eras := src.UniqueEra()
	perm := rand.New(rand.NewSource(s.seed)).Perm(len(eras))
	nfit := int(math.Round(s.fitFraction * float64(len(eras))))
	fit := make([]string, 0, nfit)
	for _, p := range perm[:nfit] {
		fit = append(fit, eras[p])
	}
	return single(src.EraIsIn(fit), src.EraIsNotIn(fit))
}

// ---------------------------------------------------------------------------
// CVSplitter
// ---------------------------------------------------------------------------

// CVSplitter is k-fold cross validation over eras: the shuffled eras are dealt
// into kfold groups and each group is the test set of one fold. All rows of
// an era stay on the same side of every fold.
type CVSplitter struct {
	kfold     int
	seed      int64
	trainOnly bool
}

// NewCVSplitter creates a CVSplitter. kfold must be at least 2.
func NewCVSplitter(kfold int, seed int64, trainOnly bool) *CVSplitter {
	return &CVSplitter{kfold: kfold, seed: seed, trainOnly: trainOnly}
}

func (s *CVSplitter) Name() string {
	return fmt.Sprintf("cv(kfold=%d,seed=%d)", s.kfold, s.seed)
}

func (s *CVSplitter) Split(d *data.Data) iter.Seq2[Fold, error] {
	if s.kfold < 2 {
		return failed(fmt.Errorf("%w: kfold %d < 2", ErrInvalidConfig, s.kfold))
	}
	src := sourceRows(d, s.trainOnly)
	eras := src.UniqueEra()
	perm := rand.New(rand.NewSource(s.seed)).Perm(len(eras))
	groups := make([][]string, s.kfold)
	for i, p := range perm {
		groups[i%s.kfold] = append(groups[i%s.kfold], eras[p])
	}
	return func(yield func(Fold, error) bool) {
		for i, test := range groups {
			f, err := newFold(i, src.EraIsNotIn(test), src.EraIsIn(test))
			if !yield(f, err) || err != nil {
				return
			}
		}
	}
}

// ---------------------------------------------------------------------------
// LoocvSplitter
// ---------------------------------------------------------------------------

// LoocvSplitter leaves one era out per fold, in era order.
type LoocvSplitter struct {
	trainOnly bool
}

// NewLoocvSplitter creates a LoocvSplitter.
func NewLoocvSplitter(trainOnly bool) *LoocvSplitter {
	return &LoocvSplitter{trainOnly: trainOnly}
}

func (s *LoocvSplitter) Name() string { return "loocv" }

func (s *LoocvSplitter) Split(d *data.Data) iter.Seq2[Fold, error] {
	src := sourceRows(d, s.trainOnly)
	eras := src.UniqueEra()
	return func(yield func(Fold, error) bool) {
		if len(eras) == 0 {
			yield(Fold{}, fmt.Errorf("%w: no eras to leave out", ErrEmptyFold))
			return
		}
		for i, era := range eras {
			out := []string{era}
			f, err := newFold(i, src.EraIsNotIn(out), src.EraIsIn(out))
			if !yield(f, err) || err != nil {
				return
			}
		}
	}
}

// ---------------------------------------------------------------------------
// IgnoreEraCVSplitter
// ---------------------------------------------------------------------------

// IgnoreEraCVSplitter is k-fold cross validation over rows. Rows of one era
// end up on both sides of a fold, so within-era information leaks into the
// test score; it is a baseline to compare era-aware splitters against.
type IgnoreEraCVSplitter struct {
	kfold     int
	seed      int64
	trainOnly bool
}

// NewIgnoreEraCVSplitter creates an IgnoreEraCVSplitter. kfold must be at
// least 2.
func NewIgnoreEraCVSplitter(kfold int, seed int64, trainOnly bool) *IgnoreEraCVSplitter {
	return &IgnoreEraCVSplitter{kfold: kfold, seed: seed, trainOnly: trainOnly}
}

func (s *IgnoreEraCVSplitter) Name() string {
	return fmt.Sprintf("ignore_era_cv(kfold=%d,seed=%d)", s.kfold, s.seed)
}

func (s *IgnoreEraCVSplitter) Split(d *data.Data) iter.Seq2[Fold, error] {
	if s.kfold < 2 {
		return failed(fmt.Errorf("%w: kfold %d < 2", ErrInvalidConfig, s.kfold))
	}
	src := sourceRows(d, s.trainOnly)
	perm := rand.New(rand.NewSource(s.seed)).Perm(src.Len())
	return func(yield func(Fold, error) bool) {
		for k := 0; k < s.kfold; k++ {
			test := make(data.Mask, src.Len())
			train := make(data.Mask, src.Len())
			for i, p := range perm {
				test[p] = i%s.kfold == k
				train[p] = !test[p]
			}
			f, err := maskedFold(k, src, train, test)
			if !yield(f, err) || err != nil {
				return
			}
		}
	}
}

func maskedFold(k int, src *data.Data, train, test data.Mask) (Fold, error) {
	dtrain, err := src.Index(train)
	if err != nil {
		return Fold{}, err
	}
	dtest, err := src.Index(test)
	if err != nil {
		return Fold{}, err
	}
	return newFold(k, dtrain, dtest)
}

// ---------------------------------------------------------------------------
// RollSplitter
// ---------------------------------------------------------------------------

// RollSplitter walks forward through the eras in order. Fold i trains on
// fitWindow eras and tests on the predictWindow eras that follow them; each
// fold moves both windows forward by step eras. With expanding set the train
// window stays anchored at the first era and grows by step each fold.
//
// Test windows of consecutive folds overlap when step < predictWindow.
type RollSplitter struct {
	fitWindow     int
	predictWindow int
	step          int
	expanding     bool
	trainOnly     bool
}

// NewRollSplitter creates a RollSplitter. All window sizes must be positive.
func NewRollSplitter(fitWindow, predictWindow, step int, expanding, trainOnly bool) *RollSplitter {
	return &RollSplitter{
		fitWindow:     fitWindow,
		predictWindow: predictWindow,
		step:          step,
		expanding:     expanding,
		trainOnly:     trainOnly,
	}
}

func (s *RollSplitter) Name() string {
	return fmt.Sprintf("roll(fit=%d,predict=%d,step=%d,expanding=%t)", s.fitWindow, s.predictWindow, s.step, s.expanding)
}

func (s *RollSplitter) Split(d *data.Data) iter.Seq2[Fold, error] {
	if s.fitWindow < 1 || s.predictWindow < 1 || s.step < 1 {
		return failed(fmt.Errorf("%w: fit=%d predict=%d step=%d must be positive",
			ErrInvalidConfig, s.fitWindow, s.predictWindow, s.step))
	}
	src := sourceRows(d, s.trainOnly)
	eras := src.UniqueEra()
	return func(yield func(Fold, error) bool) {
		if s.fitWindow+s.predictWindow > len(eras) {
			yield(Fold{}, fmt.Errorf("%w: %d eras cannot hold a %d+%d era window",
				ErrEmptyFold, len(eras), s.fitWindow, s.predictWindow))
			return
		}
		for i := 0; ; i++ {
			fitLo := i * s.step
			fitHi := fitLo + s.fitWindow
			if s.expanding {
				fitLo = 0
			}
			predictHi := fitHi + s.predictWindow
			if predictHi > len(eras) {
				return
			}
			f, err := newFold(i, src.EraIsIn(eras[fitLo:fitHi]), src.EraIsIn(eras[fitHi:predictHi]))
			if !yield(f, err) || err != nil {
				return
			}
		}
	}
}
