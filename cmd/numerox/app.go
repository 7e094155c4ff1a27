package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"numerox/internal/config"
	"numerox/internal/data"
	"numerox/internal/model"
	"numerox/internal/model/builtins"
	"numerox/internal/prediction"
	"numerox/internal/runner"
	"numerox/internal/splitter"
	"numerox/internal/store"
)

// app holds what every subcommand needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	datasets *store.CachedStore
	models   *model.Registry
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	datasets, err := store.NewCachedStore(store.NewParquetStore(cfg.Storage.DataDir), cfg.Storage.CacheSize)
	if err != nil {
		return nil, err
	}
	models := model.NewRegistry()
	builtins.Register(models, cfg.Model.C, cfg.Model.Iterations, cfg.Model.LearningRate)
	return &app{cfg: cfg, logger: logger, datasets: datasets, models: models}, nil
}

func (a *app) model(name string) (model.Model, error) {
	if name == "" {
		name = a.cfg.Model.Name
	}
	m, ok := a.models.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", model.ErrNotFound, name, a.models.List())
	}
	return m, nil
}

func (a *app) runOptions() []runner.Option {
	return []runner.Option{
		runner.WithWorkers(a.cfg.Run.Workers),
		runner.WithTournament(a.cfg.Run.Tournament),
		runner.WithLogger(a.logger),
		runner.WithProgress(newBarProgress(os.Stderr)),
	}
}

func (a *app) backtest(ctx context.Context, c *backtestCmd) error {
	d, err := a.datasets.LoadData(ctx, c.Data)
	if err != nil {
		return err
	}
	m, err := a.model(c.Model)
	if err != nil {
		return err
	}
	name := a.cfg.Splitter.Name
	if c.Splitter != "" {
		name = c.Splitter
	}
	s, err := splitter.New(name, a.cfg.Splitter.Params())
	if err != nil {
		return err
	}

	p, err := runner.Backtest(ctx, m, d, s, a.runOptions()...)
	if err != nil {
		return err
	}
	if err := a.report(p, d); err != nil {
		return err
	}
	return a.finish(ctx, p, d, m, s.Name(), c.Save, c.CSV)
}

func (a *app) production(ctx context.Context, c *productionCmd) error {
	d, err := a.datasets.LoadData(ctx, c.Data)
	if err != nil {
		return err
	}
	m, err := a.model(c.Model)
	if err != nil {
		return err
	}
	p, err := runner.Production(ctx, m, d, a.runOptions()...)
	if err != nil {
		return err
	}
	// Validation rows carry targets, so production runs can be scored too.
	if err := a.report(p, d); err != nil {
		return err
	}
	return a.finish(ctx, p, d, m, splitter.NewTournamentSplitter().Name(), c.Save, c.CSV)
}

func (a *app) report(p *prediction.Prediction, d *data.Data) error {
	metrics, err := prediction.EvaluateAll(p, d)
	if err != nil {
		return err
	}
	if len(metrics) == 0 {
		a.logger.Info("no scored rows have targets; skipping metrics")
		return nil
	}
	fmt.Println(metricsTable(metrics))
	return nil
}

func (a *app) finish(ctx context.Context, p *prediction.Prediction, d *data.Data, m model.Model, splitterName string, save bool, csvPath string) error {
	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return err
		}
		name := runner.ColumnName(m, a.cfg.Run.Tournament)
		if err := p.WriteCSV(f, name); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		a.logger.Info("wrote predictions", "path", csvPath, "rows", p.Len())
	}
	if !save {
		return nil
	}

	runs, err := store.NewSQLiteStore(a.cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer runs.Close()
	run := &store.Run{Model: m.Name(), Splitter: splitterName, DataHash: d.Hash()}
	if err := runs.SaveRun(ctx, run, p); err != nil {
		return err
	}
	a.logger.Info("saved run", "id", run.ID, "rows", run.Rows)
	fmt.Println(run.ID)
	return nil
}

func (a *app) runs(ctx context.Context) error {
	runs, err := store.NewSQLiteStore(a.cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer runs.Close()
	list, err := runs.ListRuns(ctx)
	if err != nil {
		return err
	}
	fmt.Println(runsTable(list))
	return nil
}

func (a *app) show(ctx context.Context, c *showCmd) error {
	runs, err := store.NewSQLiteStore(a.cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer runs.Close()
	run, p, err := runs.LoadRun(ctx, c.ID)
	if err != nil {
		return err
	}
	fmt.Println(runsTable([]store.Run{*run}))
	fmt.Println(p)
	if c.Data == "" {
		return nil
	}

	d, err := a.datasets.LoadData(ctx, c.Data)
	if err != nil {
		return err
	}
	if h := d.Hash(); h != run.DataHash {
		a.logger.Warn("dataset differs from the one the run was made on", "run", run.DataHash, "data", h)
	}
	return a.report(p, d)
}

func (a *app) hash(ctx context.Context, c *hashCmd) error {
	d, err := a.datasets.LoadData(ctx, c.Data)
	if err != nil {
		return err
	}
	fmt.Println(d.Hash())
	fmt.Println(d)
	return nil
}

func (a *app) play(ctx context.Context, c *playCmd) error {
	d := data.PlayData(c.Seed)
	if err := a.datasets.SaveData(ctx, c.Out, d, c.Compress); err != nil {
		return err
	}
	a.logger.Info("wrote play data", "path", c.Out, "rows", d.Len(), "hash", d.Hash())
	return nil
}
