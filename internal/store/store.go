// Package store persists datasets and prediction runs.
package store

import (
	"context"
	"errors"
	"time"

	"numerox/internal/data"
	"numerox/internal/prediction"
)

// ErrNotFound is returned when a stored run does not exist.
var ErrNotFound = errors.New("not found")

// DataStore loads and saves whole datasets.
type DataStore interface {
	// SaveData writes d to path, replacing any existing file.
	SaveData(ctx context.Context, path string, d *data.Data, compress bool) error

	// LoadData reads the dataset stored at path.
	LoadData(ctx context.Context, path string) (*data.Data, error)
}

// Run describes one stored set of predictions.
type Run struct {
	ID        string
	Model     string
	Splitter  string
	DataHash  string
	Rows      int
	CreatedAt time.Time
}

// PredictionStore records prediction runs so they can be compared later.
type PredictionStore interface {
	// SaveRun stores p. An empty run.ID is filled in with a new id, and a
	// zero CreatedAt with the current time.
	SaveRun(ctx context.Context, run *Run, p *prediction.Prediction) error

	// LoadRun returns the run with the given id and its predictions.
	LoadRun(ctx context.Context, id string) (*Run, *prediction.Prediction, error)

	// ListRuns returns every stored run, newest first.
	ListRuns(ctx context.Context) ([]Run, error)
}
