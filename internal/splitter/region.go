package splitter

import (
	"iter"

	"numerox/internal/data"
)

// Compile-time interface checks.
var _ Splitter = (*TournamentSplitter)(nil)
var _ Splitter = (*ValidationSplitter)(nil)
var _ Splitter = (*CheatSplitter)(nil)

// TournamentSplitter trains on the train region and predicts the tournament
// region (validation, test and live). This is the submission split.
type TournamentSplitter struct{}

// NewTournamentSplitter returns a TournamentSplitter.
func NewTournamentSplitter() *TournamentSplitter { return &TournamentSplitter{} }

// Name returns "tournament".
func (s *TournamentSplitter) Name() string { return "tournament" }

// Split yields a single fold.
func (s *TournamentSplitter) Split(d *data.Data) iter.Seq2[Fold, error] {
	return single(d.RegionIsIn([]string{data.Train}), d.RegionIsIn(tournamentRegions))
}

// ValidationSplitter trains on the train region and predicts the validation
// region.
type ValidationSplitter struct{}

// NewValidationSplitter returns a ValidationSplitter.
func NewValidationSplitter() *ValidationSplitter { return &ValidationSplitter{} }

// Name returns "validation".
func (s *ValidationSplitter) Name() string { return "validation" }

// Split yields a single fold.
func (s *ValidationSplitter) Split(d *data.Data) iter.Seq2[Fold, error] {
	return single(d.RegionIsIn([]string{data.Train}), d.RegionIsIn([]string{data.Validation}))
}

// CheatSplitter trains on the train, validation and test regions and predicts
// the tournament region, so validation and test rows are seen during fitting.
// It exists to measure how much leakage inflates a score and must never be
// used for a real evaluation.
type CheatSplitter struct{}

// NewCheatSplitter returns a CheatSplitter.
func NewCheatSplitter() *CheatSplitter { return &CheatSplitter{} }

// Name returns "cheat".
func (s *CheatSplitter) Name() string { return "cheat" }

// Split yields a single fold.
func (s *CheatSplitter) Split(d *data.Data) iter.Seq2[Fold, error] {
	return single(d.RegionIsIn([]string{data.Train, data.Validation, data.Test}), d.RegionIsIn(tournamentRegions))
}
