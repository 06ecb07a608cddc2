package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/saliency/internal/loader"
	"github.com/born-ml/saliency/internal/tensor"
)

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"version"}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t, "saliency "+version+"\n", stdout.String())
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Commands:")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"train"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "train"`)

	assert.Equal(t, 0, run([]string{"help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "explain")
}

var layersYAML = `
  layers:
    - {type: permute, axes: [0, 3, 2, 1]}
    - {type: conv2d, in: 1, out: 2, kernel: 3, padding: 1}
    - {type: relu}
    - {type: maxpool2d, kernel: 2}
    - {type: flatten}
    - {type: linear, in: 8, out: 3}
`

func TestRun_Explain(t *testing.T) {
	dir := t.TempDir()

	specs := []loader.LayerSpec{
		{Type: loader.LayerPermute, Axes: []int{0, 3, 2, 1}},
		{Type: loader.LayerConv2D, In: 1, Out: 2, Kernel: 3, Padding: 1},
		{Type: loader.LayerReLU},
		{Type: loader.LayerMaxPool2D, Kernel: 2},
		{Type: loader.LayerFlatten},
		{Type: loader.LayerLinear, In: 8, Out: 3},
	}
	model, err := loader.BuildModel(specs)
	require.NoError(t, err)

	// Checkpoint saved under a parent module name.
	prefixed := make(map[string]*tensor.RawTensor)
	for key, raw := range model.StateDict() {
		prefixed["net."+key] = raw
	}
	weights := filepath.Join(dir, "weights.safetensors")
	require.NoError(t, loader.WriteSafeTensors(weights, prefixed, nil))

	inputs := tensor.Zeros(tensor.Shape{5, 4, 4, 1})
	for i := range inputs.Data() {
		inputs.Data()[i] = float32(i%7) - 3
	}
	labels, err := tensor.FromSlice([]float32{0, 1, 2, 0, 1}, tensor.Shape{5})
	require.NoError(t, err)
	data := filepath.Join(dir, "data.safetensors")
	require.NoError(t, loader.WriteSafeTensors(data, map[string]*tensor.RawTensor{
		"images":  inputs,
		"classes": labels,
	}, nil))

	output := filepath.Join(dir, "saliency.safetensors")
	logFile := filepath.Join(dir, "saliency.log")
	configPath := filepath.Join(dir, "explain.yaml")
	yaml := fmt.Sprintf(`
model:
  weights: %s
  weights_prefix: "net."
%s
data:
  path: %s
  inputs: images
  labels: classes
output:
  path: %s
explainer:
  batch_size: 2
log:
  level: debug
  file: %s
`, weights, layersYAML, data, output, logFile)
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"explain", "-config", configPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	reader, err := loader.NewSafeTensorsReader(output)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "guided_backpropagation", reader.Metadata()["method"])
	maps, err := reader.LoadTensor("saliency")
	require.NoError(t, err)
	assert.True(t, maps.Shape().Equal(tensor.Shape{5, 4, 4}), "got %v", maps.Shape())

	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "guided backpropagation enabled")
	assert.Contains(t, string(logs), "saliency maps written")
}

func TestRun_ExplainErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"explain", "-config", filepath.Join(t.TempDir(), "missing.yaml")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "failed to read config")

	stderr.Reset()
	code = run([]string{"explain", "-bogus"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}
