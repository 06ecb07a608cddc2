// Package config loads the YAML configuration of the saliency command.
package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"

	"github.com/born-ml/saliency/internal/explain"
	"github.com/born-ml/saliency/internal/loader"
)

// Config is the saliency command configuration.
//
// Example:
//
//	model:
//	  weights: lenet.safetensors
//	  layers:
//	    - {type: permute, axes: [0, 3, 2, 1]}
//	    - {type: conv2d, in: 1, out: 6, kernel: 5}
//	    - {type: relu}
//	    - {type: maxpool2d, kernel: 2}
//	    - {type: flatten}
//	    - {type: linear, in: 864, out: 10}
//	data:
//	  path: digits.safetensors
//	output:
//	  path: saliency.safetensors
//	explainer:
//	  batch_size: 16
//	log:
//	  level: debug
type Config struct {
	Model struct {
		Layers        []loader.LayerSpec `yaml:"layers"`
		Weights       string             `yaml:"weights"`        // SafeTensors file with the state dict
		WeightsPrefix string             `yaml:"weights_prefix"` // Prefix stripped from tensor names
	} `yaml:"model"`

	Data struct {
		Path   string `yaml:"path"`   // SafeTensors file with inputs and labels
		Inputs string `yaml:"inputs"` // Name of the (N, W, H, C) tensor
		Labels string `yaml:"labels"` // Name of the (N, L) or (N) tensor
	} `yaml:"data"`

	Output struct {
		Path   string `yaml:"path"`
		Tensor string `yaml:"tensor"`
	} `yaml:"output"`

	Explainer struct {
		OutputLayerIndex int    `yaml:"output_layer_index"`
		BatchSize        int    `yaml:"batch_size"`
		Reduction        string `yaml:"reduction"`
		StrictOverride   bool   `yaml:"strict_override"`
		Workers          int    `yaml:"workers"`
	} `yaml:"explainer"`

	Log struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"` // "json" or "console"
		File       string `yaml:"file"`   // Rotated log file; stderr when empty
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
}

// Default returns a configuration with every optional field set.
func Default() *Config {
	cfg := &Config{}

	cfg.Data.Inputs = "inputs"
	cfg.Data.Labels = "labels"

	cfg.Output.Tensor = "saliency"

	defaults := explain.DefaultConfig()
	cfg.Explainer.OutputLayerIndex = defaults.OutputLayerIndex
	cfg.Explainer.BatchSize = defaults.BatchSize
	cfg.Explainer.Reduction = string(defaults.Reduction)
	cfg.Explainer.Workers = defaults.Workers

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Log.MaxSizeMB = 100
	cfg.Log.MaxBackups = 3
	cfg.Log.MaxAgeDays = 28

	return cfg
}

// Load reads the YAML file at path over the defaults and validates it.
// Unknown keys are errors.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: config path is given on the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Model.Layers) == 0 {
		errs = append(errs, errors.New("model.layers is required"))
	}
	if c.Model.Weights == "" {
		errs = append(errs, errors.New("model.weights is required"))
	}
	if c.Data.Path == "" {
		errs = append(errs, errors.New("data.path is required"))
	}
	if c.Data.Inputs == "" || c.Data.Labels == "" {
		errs = append(errs, errors.New("data.inputs and data.labels must name tensors"))
	}
	if c.Output.Path == "" {
		errs = append(errs, errors.New("output.path is required"))
	}
	if c.Output.Tensor == "" {
		errs = append(errs, errors.New("output.tensor must name a tensor"))
	}
	if err := c.ExplainConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ExplainConfig returns the explainer settings.
func (c *Config) ExplainConfig() explain.Config {
	return explain.Config{
		OutputLayerIndex: c.Explainer.OutputLayerIndex,
		BatchSize:        c.Explainer.BatchSize,
		Reduction:        explain.Reduction(c.Explainer.Reduction),
		StrictOverride:   c.Explainer.StrictOverride,
		Workers:          c.Explainer.Workers,
	}
}

// WeightMapper returns the mapper for model.weights_prefix.
func (c *Config) WeightMapper() loader.WeightMapper {
	if c.Model.WeightsPrefix == "" {
		return loader.IdentityMapper{}
	}
	return loader.NewPrefixMapper(c.Model.WeightsPrefix)
}
