package builtins

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"numerox/internal/data"
	"numerox/internal/model"
)

// Compile-time interface check.
var _ model.Model = (*Mean)(nil)

// Mean ignores the features and predicts the mean train target for every
// row. It is the floor any real model has to beat.
type Mean struct{}

// NewMean returns a Mean model.
func NewMean() *Mean { return &Mean{} }

// Name returns "mean".
func (m *Mean) Name() string { return "mean" }

func (m *Mean) Fit(_ context.Context, train *data.Data) (model.Fitted, error) {
	var t []float64
	for _, v := range train.Y() {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			t = append(t, v)
		}
	}
	if len(t) == 0 {
		return nil, model.ErrNoTargets
	}
	return constant(stat.Mean(t, nil)), nil
}

type constant float64

func (c constant) Predict(_ context.Context, test *data.Data) ([]float64, error) {
	out := make([]float64, test.Len())
	for i := range out {
		out[i] = float64(c)
	}
	return out, nil
}

// Register adds every builtin model to r. The logistic model is built with
// the given settings; see NewLogistic for the defaults.
func Register(r *model.Registry, c float64, iterations int, learningRate float64) {
	r.Register(NewLogistic(c, iterations, learningRate))
	r.Register(NewMean())
}
