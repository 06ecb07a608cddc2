package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/saliency/internal/explain"
	"github.com/born-ml/saliency/internal/loader"
)

const minimal = `
model:
  weights: lenet.safetensors
  layers:
    - {type: permute, axes: [0, 3, 2, 1]}
    - {type: conv2d, in: 1, out: 2, kernel: 3, padding: 1}
    - {type: relu}
    - {type: flatten}
    - {type: linear, in: 32, out: 10}
data:
  path: digits.safetensors
output:
  path: saliency.safetensors
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, "inputs", cfg.Data.Inputs)
	assert.Equal(t, "labels", cfg.Data.Labels)
	assert.Equal(t, "saliency", cfg.Output.Tensor)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, explain.DefaultConfig(), cfg.ExplainConfig())

	require.Len(t, cfg.Model.Layers, 5)
	assert.Equal(t, loader.LayerSpec{Type: "conv2d", In: 1, Out: 2, Kernel: 3, Padding: 1}, cfg.Model.Layers[1])
	assert.Equal(t, []int{0, 3, 2, 1}, cfg.Model.Layers[0].Axes)

	_, ok := cfg.WeightMapper().(loader.IdentityMapper)
	assert.True(t, ok)
}

func TestParse_Overrides(t *testing.T) {
	data := minimal + `
explainer:
  output_layer_index: -2
  batch_size: 0
  reduction: max
  strict_override: true
  workers: 4
model_extra: 1
`
	_, err := Parse([]byte(data))
	assert.Error(t, err, "unknown keys are rejected")

	data = minimal + `
explainer:
  output_layer_index: -2
  batch_size: 0
  reduction: max
  strict_override: true
  workers: 4
log:
  level: debug
  format: console
  file: /tmp/saliency.log
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, explain.Config{
		OutputLayerIndex: -2,
		BatchSize:        0,
		Reduction:        explain.ReduceMax,
		StrictOverride:   true,
		Workers:          4,
	}, cfg.ExplainConfig())
	assert.Equal(t, "/tmp/saliency.log", cfg.Log.File)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ``},
		{"no output", `
model:
  weights: w.safetensors
  layers: [{type: relu}]
data:
  path: d.safetensors
`},
		{"bad reduction", minimal + `
explainer:
  reduction: median
`},
		{"negative batch size", minimal + `
explainer:
  batch_size: -1
`},
		{"bad log level", minimal + `
log:
  level: loud
`},
		{"bad log format", minimal + `
log:
  format: xml
`},
		{"not yaml", `model: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimal+"\nmodel_unused: true\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "lenet.safetensors", cfg.Model.Weights)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWeightMapper_Prefix(t *testing.T) {
	cfg := Default()
	cfg.Model.WeightsPrefix = "net."

	key, ok, err := cfg.WeightMapper().MapName("net.0.weight")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0.weight", key)
}
