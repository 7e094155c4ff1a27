// numerox backtests and runs tournament models over era-labelled datasets.
//
// Usage:
//
//	numerox play data/play.parquet
//	numerox backtest data/play.parquet --splitter cv --save
//	numerox production data/round.parquet --csv predictions.csv
//	numerox runs
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"

	"numerox/internal/config"
	"numerox/internal/util"
)

const version = "0.1.0"

type backtestCmd struct {
	Data     string `arg:"positional,required" help:"dataset parquet file, relative to storage.data_dir"`
	Splitter string `arg:"-s,--splitter" help:"splitter name, overrides splitter.name"`
	Model    string `arg:"-m,--model" help:"model name, overrides model.name"`
	Save     bool   `arg:"--save" help:"store the predictions in the run database"`
	CSV      string `arg:"--csv" help:"write predictions to this csv file"`
}

type productionCmd struct {
	Data  string `arg:"positional,required" help:"dataset parquet file, relative to storage.data_dir"`
	Model string `arg:"-m,--model" help:"model name, overrides model.name"`
	Save  bool   `arg:"--save" help:"store the predictions in the run database"`
	CSV   string `arg:"--csv,required" help:"write tournament predictions to this csv file"`
}

type runsCmd struct{}

type showCmd struct {
	ID   string `arg:"positional,required" help:"run id"`
	Data string `arg:"--data" help:"dataset to evaluate the run against"`
}

type hashCmd struct {
	Data string `arg:"positional,required" help:"dataset parquet file"`
}

type playCmd struct {
	Out      string `arg:"positional,required" help:"where to write the dataset"`
	Seed     int64  `arg:"--seed" default:"0" help:"random seed"`
	Compress bool   `arg:"--compress" default:"true" help:"zstd compress the columns"`
}

type args struct {
	Config     string         `arg:"-c,--config,env:NUMEROX_CONFIG" default:"config/numerox.yaml" help:"path to the YAML config"`
	Backtest   *backtestCmd   `arg:"subcommand:backtest" help:"cross validate a model over the train region"`
	Production *productionCmd `arg:"subcommand:production" help:"fit on train and predict the tournament region"`
	Runs       *runsCmd       `arg:"subcommand:runs" help:"list stored runs"`
	Show       *showCmd       `arg:"subcommand:show" help:"print a stored run"`
	Hash       *hashCmd       `arg:"subcommand:hash" help:"print a dataset's content hash and summary"`
	Play       *playCmd       `arg:"subcommand:play" help:"write a synthetic dataset"`
}

func (args) Version() string { return "numerox " + version }

func (args) Description() string {
	return "numerox: era-aware cross validation and prediction runs"
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("failed to read .env: %v", err)
	}

	cfg, err := config.LoadOptional(a.Config)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := newApp(cfg, logger)
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	switch {
	case a.Backtest != nil:
		err = app.backtest(ctx, a.Backtest)
	case a.Production != nil:
		err = app.production(ctx, a.Production)
	case a.Runs != nil:
		err = app.runs(ctx)
	case a.Show != nil:
		err = app.show(ctx, a.Show)
	case a.Hash != nil:
		err = app.hash(ctx, a.Hash)
	case a.Play != nil:
		err = app.play(ctx, a.Play)
	}
	if err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
