// Package splitter partitions a dataset into (train, test) folds. Each
// strategy is a Splitter; all of them are deterministic for a fixed
// configuration and never keep state between calls to Split.
package splitter

import (
	"errors"
	"fmt"
	"iter"

	"numerox/internal/data"
)

var (
	// ErrEmptyFold is returned when a fold would have no train or no test rows.
	ErrEmptyFold = errors.New("empty fold")
	// ErrInvalidConfig is returned for impossible splitter settings.
	ErrInvalidConfig = errors.New("invalid splitter config")
)

// Fold is one (train, test) pair produced by a Splitter.
type Fold struct {
	Index int
	Train *data.Data
	Test  *data.Data
}

// Splitter is the interface every splitting strategy implements.
type Splitter interface {
	// Name describes the strategy and its settings, e.g. "cv(kfold=5,seed=0)".
	Name() string

	// Split yields the folds of d in a deterministic order. Iteration stops
	// after the first non-nil error. Every call starts a fresh sequence.
	Split(d *data.Data) iter.Seq2[Fold, error]
}

// Folds drains s.Split(d) into a slice.
func Folds(s Splitter, d *data.Data) ([]Fold, error) {
	var folds []Fold
	for f, err := range s.Split(d) {
		if err != nil {
			return nil, err
		}
		folds = append(folds, f)
	}
	return folds, nil
}

var tournamentRegions = []string{data.Validation, data.Test, data.Live}

// sourceRows restricts d to the train region when trainOnly is set.
func sourceRows(d *data.Data, trainOnly bool) *data.Data {
	if trainOnly {
		return d.RegionIsIn([]string{data.Train})
	}
	return d
}

func newFold(i int, train, test *data.Data) (Fold, error) {
	if train.Len() == 0 {
		return Fold{}, fmt.Errorf("%w: fold %d has no train rows", ErrEmptyFold, i)
	}
	if test.Len() == 0 {
		return Fold{}, fmt.Errorf("%w: fold %d has no test rows", ErrEmptyFold, i)
	}
	return Fold{Index: i, Train: train, Test: test}, nil
}

func single(train, test *data.Data) iter.Seq2[Fold, error] {
	return func(yield func(Fold, error) bool) {
		yield(newFold(0, train, test))
	}
}

func failed(err error) iter.Seq2[Fold, error] {
	return func(yield func(Fold, error) bool) {
		yield(Fold{}, err)
	}
}

// Params carries the settings New needs for any strategy. Fields that a
// strategy does not use are ignored.
type Params struct {
	KFold         int
	Seed          int64
	TrainOnly     bool
	FitFraction   float64
	FitWindow     int
	PredictWindow int
	Step          int
	Expanding     bool
}

// New constructs a splitter by strategy name: tournament, validation, split,
// cheat, cv, loocv, ignore_era_cv or roll.
func New(name string, p Params) (Splitter, error) {
	switch name {
	case "tournament":
		return NewTournamentSplitter(), nil
	case "validation":
		return NewValidationSplitter(), nil
	case "split":
		return NewSplitSplitter(p.FitFraction, p.Seed, p.TrainOnly), nil
	case "cheat":
		return NewCheatSplitter(), nil
	case "cv":
		return NewCVSplitter(p.KFold, p.Seed, p.TrainOnly), nil
	case "loocv":
		return NewLoocvSplitter(p.TrainOnly), nil
	case "ignore_era_cv":
		return NewIgnoreEraCVSplitter(p.KFold, p.Seed, p.TrainOnly), nil
	case "roll":
		return NewRollSplitter(p.FitWindow, p.PredictWindow, p.Step, p.Expanding, p.TrainOnly), nil
	}
	return nil, fmt.Errorf("%w: unknown splitter %q", ErrInvalidConfig, name)
}
