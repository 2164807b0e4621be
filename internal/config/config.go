package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Thresholds ThresholdConfig `mapstructure:"thresholds" yaml:"thresholds"`
	Metrics    MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	History    HistoryConfig   `mapstructure:"history" yaml:"history"`
	Report     ReportConfig    `mapstructure:"report" yaml:"report"`
}

type ThresholdConfig struct {
	MILow         float64 `mapstructure:"mi_low" yaml:"mi_low"`
	MIDrop        float64 `mapstructure:"mi_drop" yaml:"mi_drop"`
	CCPerFunction int     `mapstructure:"cc_per_function" yaml:"cc_per_function"`
}

type MetricsConfig struct {
	Tool      string `mapstructure:"tool" yaml:"tool"`
	VenvTool  string `mapstructure:"venv_tool" yaml:"venv_tool"`
	Extension string `mapstructure:"extension" yaml:"extension"`
	Language  string `mapstructure:"language" yaml:"language"`
	ChunkSize int    `mapstructure:"chunk_size" yaml:"chunk_size"`
}

type HistoryConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type ReportConfig struct {
	Dir           string `mapstructure:"dir" yaml:"dir"`
	MaxAlerts     int    `mapstructure:"max_alerts" yaml:"max_alerts"`
	MaxRows       int    `mapstructure:"max_rows" yaml:"max_rows"`
	RowCapTrigger int    `mapstructure:"row_cap_trigger" yaml:"row_cap_trigger"`
	MaxDiffChars  int    `mapstructure:"max_diff_chars" yaml:"max_diff_chars"`
}

func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".qualitygate")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

func DefaultConfig() *Config {
	return &Config{
		Thresholds: ThresholdConfig{
			MILow:         65.0,
			MIDrop:        15.0,
			CCPerFunction: 15,
		},
		Metrics: MetricsConfig{
			Tool:      "radon",
			VenvTool:  filepath.Join("venv", "bin", "radon"),
			Extension: ".py",
			Language:  "Python",
			ChunkSize: 50, // keeps argv well under ARG_MAX
		},
		History: HistoryConfig{
			Dir: filepath.Join(".agent", "metrics_history"),
		},
		Report: ReportConfig{
			Dir:           filepath.Join("reports", "quality_gate"),
			MaxAlerts:     50,
			MaxRows:       30,
			RowCapTrigger: 50,
			MaxDiffChars:  5000,
		},
	}
}

func (c *Config) Validate() error {
	if err := c.validateThresholds(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	if c.History.Dir == "" {
		return fmt.Errorf("history.dir must not be empty")
	}
	return c.validateReport()
}

func (c *Config) validateThresholds() error {
	if c.Thresholds.MILow <= 0 || c.Thresholds.MILow > 100 {
		return fmt.Errorf("thresholds.mi_low must be between 0 and 100")
	}
	if c.Thresholds.MIDrop <= 0 {
		return fmt.Errorf("thresholds.mi_drop must be positive")
	}
	if c.Thresholds.CCPerFunction <= 0 {
		return fmt.Errorf("thresholds.cc_per_function must be positive")
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Tool == "" {
		return fmt.Errorf("metrics.tool must not be empty")
	}
	if c.Metrics.Extension == "" {
		return fmt.Errorf("metrics.extension must not be empty")
	}
	if c.Metrics.ChunkSize <= 0 {
		return fmt.Errorf("metrics.chunk_size must be positive")
	}
	return nil
}

func (c *Config) validateReport() error {
	if c.Report.Dir == "" {
		return fmt.Errorf("report.dir must not be empty")
	}
	if c.Report.MaxAlerts <= 0 {
		return fmt.Errorf("report.max_alerts must be positive")
	}
	if c.Report.MaxRows <= 0 {
		return fmt.Errorf("report.max_rows must be positive")
	}
	if c.Report.RowCapTrigger <= 0 {
		return fmt.Errorf("report.row_cap_trigger must be positive")
	}
	if c.Report.MaxDiffChars <= 0 {
		return fmt.Errorf("report.max_diff_chars must be positive")
	}
	return nil
}

func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("thresholds", c.Thresholds)
	v.Set("metrics", c.Metrics)
	v.Set("history", c.History)
	v.Set("report", c.Report)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
