package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Output   OutputConfig   `mapstructure:"output"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Surface  SurfaceConfig  `mapstructure:"surface"`
	Coverage CoverageConfig `mapstructure:"coverage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type DatasetConfig struct {
	Directory string `mapstructure:"directory"`
}

type OutputConfig struct {
	Directory string `mapstructure:"directory"`
	Compress  bool   `mapstructure:"compress"`
}

type AnalysisConfig struct {
	// HighVolumeQuantile is the daily-volume quantile above which a date is
	// flagged high-volume (strict greater-than).
	HighVolumeQuantile float64 `mapstructure:"high_volume_quantile"`
}

type SurfaceConfig struct {
	StrikeTolerance    float64 `mapstructure:"strike_tolerance"`
	MoneynessTolerance float64 `mapstructure:"moneyness_tolerance"`
	SampleEvery        int     `mapstructure:"sample_every"`
}

type CoverageConfig struct {
	GapThresholdDays     int    `mapstructure:"gap_threshold_days"`
	ExpectedDaysPerMonth int    `mapstructure:"expected_days_per_month"`
	Timezone             string `mapstructure:"timezone"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("dataset.directory", "dataset")
	v.SetDefault("output.directory", "dataset/processed")
	v.SetDefault("output.compress", false)
	v.SetDefault("analysis.high_volume_quantile", 0.9)
	v.SetDefault("surface.strike_tolerance", 5.0)
	v.SetDefault("surface.moneyness_tolerance", 0.005)
	v.SetDefault("surface.sample_every", 1)
	v.SetDefault("coverage.gap_threshold_days", 4)
	v.SetDefault("coverage.expected_days_per_month", 22)
	v.SetDefault("coverage.timezone", "America/New_York")
	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("ZERODTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.Dataset.Directory == "" {
		errs.add("dataset.directory", "must not be empty")
	}
	if q := c.Analysis.HighVolumeQuantile; q <= 0 || q >= 1 {
		errs.add("analysis.high_volume_quantile", "must be strictly between 0 and 1")
	}
	if c.Surface.StrikeTolerance <= 0 {
		errs.add("surface.strike_tolerance", "must be positive")
	}
	if c.Surface.MoneynessTolerance <= 0 {
		errs.add("surface.moneyness_tolerance", "must be positive")
	}
	if c.Surface.SampleEvery < 1 {
		errs.add("surface.sample_every", "must be >= 1")
	}
	if c.Coverage.GapThresholdDays < 1 {
		errs.add("coverage.gap_threshold_days", "must be >= 1")
	}
	if c.Coverage.ExpectedDaysPerMonth < 1 {
		errs.add("coverage.expected_days_per_month", "must be >= 1")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
