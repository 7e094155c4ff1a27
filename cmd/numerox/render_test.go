package main

import (
	"math"
	"strings"
	"testing"
	"time"

	"numerox/internal/prediction"
	"numerox/internal/store"
)

func TestMetricsTable(t *testing.T) {
	out := metricsTable([]prediction.Metrics{
		{Name: "logistic", LogLoss: 0.69, AUC: math.NaN(), Accuracy: 0.5, Consistency: 0.25, Eras: 4, Rows: 160},
	})
	for _, want := range []string{"logistic", "0.690000", "160", "consis"} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics table missing %q:\n%s", want, out)
		}
	}
}

func TestRunsTable(t *testing.T) {
	out := runsTable([]store.Run{{
		ID: "abc", Model: "mean", Splitter: "loocv", Rows: 3,
		DataHash: "0123456789abcdef", CreatedAt: time.Now(),
	}})
	if !strings.Contains(out, "0123456789ab") || strings.Contains(out, "0123456789abc") {
		t.Errorf("data hash not shortened:\n%s", out)
	}
}

func TestNum(t *testing.T) {
	if got := num(math.NaN()); got != "-" {
		t.Errorf("num(NaN) = %q, want -", got)
	}
	if got := num(0.5); got != "0.500000" {
		t.Errorf("num(0.5) = %q", got)
	}
}
