// Package builtins provides the models that ship with numerox.
package builtins

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"numerox/internal/data"
	"numerox/internal/model"
)

// Compile-time interface checks.
var _ model.Model = (*Logistic)(nil)
var _ model.Fitted = (*fittedLogistic)(nil)

// Logistic is L2-regularised logistic regression fitted by batch gradient
// descent on standardised features. c is the inverse regularisation strength.
type Logistic struct {
	c            float64
	iterations   int
	learningRate float64
}

// NewLogistic creates a Logistic model. Non-positive settings fall back to
// c=1, 500 iterations and a learning rate of 0.1.
func NewLogistic(c float64, iterations int, learningRate float64) *Logistic {
	if c <= 0 {
		c = 1
	}
	if iterations <= 0 {
		iterations = 500
	}
	if learningRate <= 0 {
		learningRate = 0.1
	}
	return &Logistic{c: c, iterations: iterations, learningRate: learningRate}
}

// Name returns "logistic".
func (l *Logistic) Name() string {
	return "logistic"
}

// Fit learns weights from the labelled rows of train.
func (l *Logistic) Fit(ctx context.Context, train *data.Data) (model.Fitted, error) {
	_, nx := train.XShape()
	if nx == 0 {
		return nil, fmt.Errorf("%w: logistic needs at least one feature", data.ErrShapeMismatch)
	}
	x, t := labelled(train)
	if len(t) == 0 {
		return nil, model.ErrNoTargets
	}
	rows := len(t)

	f := &fittedLogistic{
		mean: make([]float64, nx),
		std:  make([]float64, nx),
		w:    make([]float64, nx),
	}
	col := make([]float64, rows)
	for j := 0; j < nx; j++ {
		mat.Col(col, j, x)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		f.mean[j], f.std[j] = mean, std
		for i := range col {
			x.Set(i, j, (col[i]-mean)/std)
		}
	}

	n := float64(rows)
	w := mat.NewVecDense(nx, f.w)
	z := mat.NewVecDense(rows, nil)
	resid := mat.NewVecDense(rows, nil)
	grad := mat.NewVecDense(nx, nil)
	for it := 0; it < l.iterations; it++ {
		if it%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		z.MulVec(x, w)
		var gb float64
		for i := 0; i < rows; i++ {
			e := sigmoid(z.AtVec(i)+f.b) - t[i]
			resid.SetVec(i, e)
			gb += e
		}
		grad.MulVec(x.T(), resid)
		grad.ScaleVec(1/n, grad)
		grad.AddScaledVec(grad, 1/(l.c*n), w)
		w.AddScaledVec(w, -l.learningRate, grad)
		f.b -= l.learningRate * gb / n
	}
	return f, nil
}

type fittedLogistic struct {
	mean, std []float64
	w         []float64
	b         float64
}

func (f *fittedLogistic) Predict(_ context.Context, test *data.Data) ([]float64, error) {
	_, nx := test.XShape()
	if nx != len(f.w) {
		return nil, fmt.Errorf("%w: fitted on %d features, got %d", data.ErrShapeMismatch, len(f.w), nx)
	}
	out := make([]float64, test.Len())
	buf := make([]float64, nx)
	for i := range out {
		floats.SubTo(buf, test.Row(i), f.mean)
		floats.Div(buf, f.std)
		out[i] = sigmoid(floats.Dot(buf, f.w) + f.b)
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// labelled copies the rows of d with a finite target into a dense matrix.
func labelled(d *data.Data) (*mat.Dense, []float64) {
	y := d.Y()
	var rows []int
	for i, v := range y {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			rows = append(rows, i)
		}
	}
	_, nx := d.XShape()
	if len(rows) == 0 || nx == 0 {
		return nil, nil
	}
	x := mat.NewDense(len(rows), nx, nil)
	t := make([]float64, len(rows))
	for k, i := range rows {
		x.SetRow(k, d.Row(i))
		t[k] = y[i]
	}
	return x, t
}
