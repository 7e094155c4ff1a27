package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"numerox/internal/splitter"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for numerox.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Logging  Logging        `yaml:"logging"`
	Run      RunConfig      `yaml:"run"`
	Splitter SplitterConfig `yaml:"splitter"`
	Model    ModelConfig    `yaml:"model"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	CacheSize  int    `yaml:"cache_size"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RunConfig controls how folds are executed.
type RunConfig struct {
	Workers    int    `yaml:"workers"`
	Tournament string `yaml:"tournament"`
}

// SplitterConfig selects a splitter by name and holds the parameters the
// parameterised splitters read. Unused fields are ignored.
type SplitterConfig struct {
	Name          string  `yaml:"name"`
	KFold         int     `yaml:"kfold"`
	Seed          int64   `yaml:"seed"`
	TrainOnly     bool    `yaml:"train_only"`
	FitFraction   float64 `yaml:"fit_fraction"`
	FitWindow     int     `yaml:"fit_window"`
	PredictWindow int     `yaml:"predict_window"`
	Step          int     `yaml:"step"`
	Expanding     bool    `yaml:"expanding"`
}

// Params converts the config into splitter parameters.
func (s SplitterConfig) Params() splitter.Params {
	return splitter.Params{
		KFold:         s.KFold,
		Seed:          s.Seed,
		TrainOnly:     s.TrainOnly,
		FitFraction:   s.FitFraction,
		FitWindow:     s.FitWindow,
		PredictWindow: s.PredictWindow,
		Step:          s.Step,
		Expanding:     s.Expanding,
	}
}

// ModelConfig selects a model and holds its hyperparameters.
type ModelConfig struct {
	Name         string  `yaml:"name"`
	C            float64 `yaml:"c"`
	Iterations   int     `yaml:"iterations"`
	LearningRate float64 `yaml:"learning_rate"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration used for any field a file leaves unset.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DataDir:    "data",
			SQLitePath: "data/numerox.db",
			CacheSize:  4,
		},
		Logging: Logging{Level: "info", Format: "text"},
		Run:     RunConfig{Workers: 0},
		Splitter: SplitterConfig{
			Name:          "cv",
			KFold:         5,
			TrainOnly:     true,
			FitFraction:   0.5,
			FitWindow:     4,
			PredictWindow: 1,
			Step:          1,
		},
		Model: ModelConfig{Name: "logistic", C: 1, Iterations: 500, LearningRate: 0.1},
	}
}

// Load reads the YAML configuration file at the given path on top of
// Default, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadOptional is Load, except that a missing file yields Default with
// environment overrides applied.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		if err := applyEnvOverrides(cfg); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}
	return cfg, err
}

// Validate rejects settings no run can use.
func (c *Config) Validate() error {
	if c.Storage.CacheSize < 1 {
		return fmt.Errorf("storage.cache_size must be positive, got %d", c.Storage.CacheSize)
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("run.workers must not be negative, got %d", c.Run.Workers)
	}
	if c.Splitter.Name == "" {
		return errors.New("splitter.name is required")
	}
	if c.Model.Name == "" {
		return errors.New("model.name is required")
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("NUMEROX_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("NUMEROX_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("NUMEROX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NUMEROX_WORKERS: %w", err)
		}
		cfg.Run.Workers = n
	}
	return nil
}
