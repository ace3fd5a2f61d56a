// Package config holds the YAML run configuration for the CLI.
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// DataConfig locates the input pair statistics.
type DataConfig struct {
	Pairs    string `yaml:"pairs"`
	NumCells int    `yaml:"num_cells"`
}

// TrainingConfig mirrors the trainer's options plus the run parameters.
type TrainingConfig struct {
	Output       string  `yaml:"output"`
	EmbeddingDim int     `yaml:"embedding_dim"`
	BatchSize    int     `yaml:"batch_size"`
	Gain         float64 `yaml:"gain"`
	C            float64 `yaml:"c"`
	InitOrtho    bool    `yaml:"init_ortho"`
	Device       string  `yaml:"device"`
	Seed         int64   `yaml:"seed"`

	Epochs      int     `yaml:"epochs"`
	Threshold   float64 `yaml:"threshold"`
	LogInterval int     `yaml:"log_interval"`
	Alpha       float64 `yaml:"alpha"`
	Beta        float64 `yaml:"beta"`

	LossLog   string `yaml:"loss_log"`
	LossPlot  string `yaml:"loss_plot"`
	LogXScale bool   `yaml:"log_x_scale"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	LogLevel string         `yaml:"log_level"`
	Data     DataConfig     `yaml:"data"`
	Training TrainingConfig `yaml:"training"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{LogLevel: "info"}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	t := &cfg.Training
	if t.Output == "" {
		t.Output = "genes.vec"
	}
	if t.EmbeddingDim == 0 {
		t.EmbeddingDim = 100
	}
	if t.Gain == 0 {
		t.Gain = 1
	}
	if t.C == 0 {
		t.C = 100
	}
	if t.Device == "" {
		t.Device = "cpu"
	}
	if t.Seed == 0 {
		t.Seed = 1
	}
	if t.Epochs == 0 {
		t.Epochs = 1000
	}
	if t.LogInterval == 0 {
		t.LogInterval = 20
	}
}
