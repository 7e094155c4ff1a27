// Package runner fits a model on every fold a splitter produces and gathers
// the out-of-fold scores into a Prediction.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"numerox/internal/data"
	"numerox/internal/model"
	"numerox/internal/prediction"
	"numerox/internal/splitter"
)

// ErrOverlap is returned when two folds score the same row.
var ErrOverlap = errors.New("overlapping test folds")

// Progress receives fold completion events. Increment is called from worker
// goroutines and must be safe for concurrent use.
type Progress interface {
	Start(total int)
	Increment()
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(int)  {}
func (nopProgress) Increment() {}
func (nopProgress) Finish()    {}

type options struct {
	workers    int
	tournament string
	logger     *slog.Logger
	progress   Progress
}

// Option configures a run.
type Option func(*options)

// WithWorkers sets how many folds are fitted at once. Values below 1 mean
// one worker per CPU.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithTournament names the prediction column "<model>_<tournament>" instead
// of just the model name.
func WithTournament(name string) Option {
	return func(o *options) { o.tournament = name }
}

// WithLogger sets the logger used for run and fold events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithProgress reports fold completion to p.
func WithProgress(p Progress) Option {
	return func(o *options) { o.progress = p }
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default(), progress: nopProgress{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.NumCPU()
	}
	return o
}

// ColumnName returns the prediction column a run of m writes to.
func ColumnName(m model.Model, tournament string) string {
	if tournament == "" {
		return m.Name()
	}
	return m.Name() + "_" + tournament
}

// Run fits m on the train side of every fold of s over d and scores the test
// side. Folds are fitted concurrently but merged in fold order, so the
// result does not depend on scheduling. A row scored by two folds is an
// ErrOverlap.
func Run(ctx context.Context, m model.Model, d *data.Data, s splitter.Splitter, opts ...Option) (*prediction.Prediction, error) {
	o := newOptions(opts)
	folds, err := splitter.Folds(s, d)
	if err != nil {
		return nil, fmt.Errorf("splitting with %s: %w", s.Name(), err)
	}
	if err := checkOverlap(folds); err != nil {
		return nil, err
	}
	name := ColumnName(m, o.tournament)
	log := o.logger.With("model", m.Name(), "splitter", s.Name())
	log.Info("run starting", "folds", len(folds), "workers", o.workers)
	start := time.Now()

	results := make([][]float64, len(folds))
	sem := make(chan struct{}, o.workers)
	o.progress.Start(len(folds))
	defer o.progress.Finish()

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range folds {
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			foldStart := time.Now()
			scores, err := runFold(gctx, m, f)
			if err != nil {
				return fmt.Errorf("fold %d: %w", f.Index, err)
			}
			results[i] = scores
			o.progress.Increment()
			log.Debug("fold done", "fold", f.Index,
				"train", f.Train.Len(), "test", f.Test.Len(), "elapsed", time.Since(foldStart))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("run failed", "error", err)
		return nil, err
	}

	p := prediction.New()
	for i, f := range folds {
		if err := p.Add(name, f.Test.IDs(), results[i]); err != nil {
			return nil, err
		}
	}
	log.Info("run complete", "rows", p.Len(), "elapsed", time.Since(start))
	return p, nil
}

// checkOverlap fails before any fitting if two test sets share a row.
func checkOverlap(folds []splitter.Fold) error {
	owner := make(map[string]int)
	for _, f := range folds {
		for _, id := range f.Test.IDs() {
			if j, ok := owner[id]; ok {
				return fmt.Errorf("%w: row %s in folds %d and %d", ErrOverlap, id, j, f.Index)
			}
			owner[id] = f.Index
		}
	}
	return nil
}

func runFold(ctx context.Context, m model.Model, f splitter.Fold) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fitted, err := m.Fit(ctx, f.Train)
	if err != nil {
		return nil, fmt.Errorf("fitting: %w", err)
	}
	scores, err := fitted.Predict(ctx, f.Test)
	if err != nil {
		return nil, fmt.Errorf("predicting: %w", err)
	}
	if len(scores) != f.Test.Len() {
		return nil, fmt.Errorf("%w: %d scores for %d test rows", data.ErrShapeMismatch, len(scores), f.Test.Len())
	}
	return scores, nil
}

// Backtest runs m over the train region with s. A nil splitter means 5-fold
// era cross validation with seed 0.
func Backtest(ctx context.Context, m model.Model, d *data.Data, s splitter.Splitter, opts ...Option) (*prediction.Prediction, error) {
	if s == nil {
		s = splitter.NewCVSplitter(5, 0, true)
	}
	return Run(ctx, m, d, s, opts...)
}

// Production fits m on the train region and scores the tournament region.
func Production(ctx context.Context, m model.Model, d *data.Data, opts ...Option) (*prediction.Prediction, error) {
	return Run(ctx, m, d, splitter.NewTournamentSplitter(), opts...)
}
