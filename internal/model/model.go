// Package model defines the fit/predict capability the runner drives, and a
// Registry for looking models up by name.
package model

import (
	"context"
	"errors"
	"sort"

	"numerox/internal/data"
)

var (
	// ErrNotFound is returned when a model name is not registered.
	ErrNotFound = errors.New("model not found")
	// ErrNoTargets is returned by Fit when the train set has no finite target.
	ErrNoTargets = errors.New("no labelled rows")
)

// Model is the interface every model must implement. A Model holds only its
// hyperparameters; everything learned lives in the Fitted value returned by
// Fit, so one Model can be fitted on several folds concurrently.
type Model interface {
	// Name returns the unique identifier for this model.
	Name() string

	// Fit learns from the rows of train that have a finite target.
	Fit(ctx context.Context, train *data.Data) (Fitted, error)
}

// Fitted is a trained model.
type Fitted interface {
	// Predict returns one score per row of test, in row order.
	Predict(ctx context.Context, test *data.Data) ([]float64, error)
}

// Registry holds a named collection of models for lookup and enumeration.
type Registry struct {
	models map[string]Model
}

// NewRegistry creates an empty model Registry.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]Model),
	}
}

// Register adds a model to the registry, keyed by its Name().
func (r *Registry) Register(m Model) {
	r.models[m.Name()] = m
}

// Get retrieves a model by name. The second return value indicates whether
// the model was found.
func (r *Registry) Get(name string) (Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// List returns a sorted slice of all registered model names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
