package main

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"numerox/internal/prediction"
	"numerox/internal/runner"
	"numerox/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// barProgress shows fold completion as a terminal progress bar.
type barProgress struct {
	bar *pb.ProgressBar
}

var _ runner.Progress = (*barProgress)(nil)

func newBarProgress(w io.Writer) *barProgress {
	bar := pb.New(0)
	bar.SetWriter(w)
	return &barProgress{bar: bar}
}

func (p *barProgress) Start(total int) {
	p.bar.SetTotal(int64(total))
	p.bar.Start()
}

func (p *barProgress) Increment() { p.bar.Increment() }
func (p *barProgress) Finish()    { p.bar.Finish() }

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func metricsTable(metrics []prediction.Metrics) string {
	t := newTable("name", "logloss", "auc", "acc", "consis", "eras", "rows")
	for _, m := range metrics {
		t.Row(m.Name, num(m.LogLoss), num(m.AUC), num(m.Accuracy), num(m.Consistency),
			fmt.Sprint(m.Eras), fmt.Sprint(m.Rows))
	}
	return t.Render()
}

func runsTable(runs []store.Run) string {
	t := newTable("id", "created", "model", "splitter", "rows", "data")
	for _, r := range runs {
		hash := r.DataHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		t.Row(r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Model, r.Splitter, fmt.Sprint(r.Rows), hash)
	}
	return t.Render()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.6f", v)
}
