package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hed1ad/fraudrules/pkg/detectors/frules"
)

// Config mirrors the estimator option surface for the YAML config file.
// Limits ("auto", "sqrt", "log2", a count, or a fraction) are given as
// strings; empty means the estimator default.
type Config struct {
	PrecisionMin       float64 `yaml:"precisionMin"`
	RecallMin          float64 `yaml:"recallMin"`
	Estimators         int     `yaml:"estimators"`
	MaxSamples         string  `yaml:"maxSamples"`
	MaxSamplesFeatures string  `yaml:"maxSamplesFeatures"`
	Bootstrap          bool    `yaml:"bootstrap"`
	BootstrapFeatures  bool    `yaml:"bootstrapFeatures"`
	MaxDepth           int     `yaml:"maxDepth"`
	MinSamplesSplit    string  `yaml:"minSamplesSplit"`
	MaxFeatures        string  `yaml:"maxFeatures"`
	PurityMin          float64 `yaml:"purityMin"`
	Jobs               int     `yaml:"jobs"`
	Seed               int64   `yaml:"seed"`
}

// DefaultConfig matches the estimator defaults.
func DefaultConfig() Config {
	return Config{
		PrecisionMin: 0.5,
		RecallMin:    0.01,
		Estimators:   10,
		MaxDepth:     3,
		Jobs:         1,
		Seed:         42,
	}
}

// LoadConfig reads a YAML config file; an empty path yields defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Options converts the config into estimator options.
func (c Config) Options() ([]frules.Option, error) {
	opts := []frules.Option{
		frules.WithPrecisionMin(c.PrecisionMin),
		frules.WithRecallMin(c.RecallMin),
		frules.WithEstimators(c.Estimators),
		frules.WithBootstrap(c.Bootstrap),
		frules.WithBootstrapFeatures(c.BootstrapFeatures),
		frules.WithMaxDepth(c.MaxDepth),
		frules.WithPurityMin(c.PurityMin),
		frules.WithJobs(c.Jobs),
		frules.WithSeed(c.Seed),
	}

	limits := []struct {
		value string
		opt   func(frules.Limit) frules.Option
	}{
		{c.MaxSamples, frules.WithMaxSamples},
		{c.MaxSamplesFeatures, frules.WithMaxSamplesFeatures},
		{c.MinSamplesSplit, frules.WithMinSamplesSplit},
		{c.MaxFeatures, frules.WithMaxFeatures},
	}
	for _, l := range limits {
		if l.value == "" {
			continue
		}
		lim, err := frules.ParseLimit(l.value)
		if err != nil {
			return nil, err
		}
		opts = append(opts, l.opt(lim))
	}

	return opts, nil
}
