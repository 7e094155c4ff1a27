package prediction

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{"id", "probability"}

// WriteCSV writes the column name as "id,probability" rows, the upload
// format of the tournament.
func (p *Prediction) WriteCSV(w io.Writer, name string) error {
	ids, scores := p.Column(name)
	if ids == nil {
		return fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i, id := range ids {
		if err := cw.Write([]string{id, strconv.FormatFloat(scores[i], 'g', -1, 64)}); err != nil {
			return fmt.Errorf("writing csv row %s: %w", id, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads an "id,probability" file into a Prediction with a single
// column called name.
func ReadCSV(r io.Reader, name string) (*Prediction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	if header[0] != csvHeader[0] || header[1] != csvHeader[1] {
		return nil, fmt.Errorf("unexpected csv header %v", header)
	}
	var (
		ids    []string
		scores []float64
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		s, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing score for %s: %w", rec[0], err)
		}
		ids = append(ids, rec[0])
		scores = append(scores, s)
	}
	p := New()
	if err := p.Add(name, ids, scores); err != nil {
		return nil, err
	}
	return p, nil
}
