package loader

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/saliency/internal/backend/cpu"
	"github.com/born-ml/saliency/internal/nn"
	"github.com/born-ml/saliency/internal/tensor"
)

// writeRawFile writes a SafeTensors file with a hand-built header.
func writeRawFile(t *testing.T, header map[string]any, data []byte) string {
	t.Helper()

	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "test.safetensors")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	require.NoError(t, binary.Write(file, binary.LittleEndian, uint64(len(headerJSON))))
	_, err = file.Write(headerJSON)
	require.NoError(t, err)
	_, err = file.Write(data)
	require.NoError(t, err)

	return path
}

func TestSafeTensors_RoundTrip(t *testing.T) {
	weight, err := tensor.FromSlice([]float32{1, -2, 3.5, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	bias, err := tensor.FromSlice([]float32{0.25, 0, -1}, tensor.Shape{3})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, WriteSafeTensors(path, map[string]*tensor.RawTensor{
		"weight": weight,
		"bias":   bias,
	}, map[string]string{"format": "saliency"}))

	reader, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, []string{"bias", "weight"}, reader.TensorNames())
	assert.Equal(t, "saliency", reader.Metadata()["format"])

	info, err := reader.TensorInfo("weight")
	require.NoError(t, err)
	assert.Equal(t, SafeTensorsF32, info.DType)
	// Alphabetical order: bias first.
	assert.Equal(t, [2]int64{12, 36}, info.DataOffsets)

	tensors, err := reader.ReadAll()
	require.NoError(t, err)
	assert.True(t, tensors["weight"].Equal(weight))
	assert.True(t, tensors["bias"].Equal(bias))

	_, err = reader.LoadTensor("missing")
	assert.Error(t, err)
}

func TestSafeTensors_IntegerDTypes(t *testing.T) {
	data := make([]byte, 0, 3*8+2*4+2)
	for _, v := range []int64{0, 2, -1} {
		data = binary.LittleEndian.AppendUint64(data, uint64(v))
	}
	for _, v := range []int32{7, -3} {
		data = binary.LittleEndian.AppendUint32(data, uint32(v))
	}
	data = append(data, 9, 255)

	path := writeRawFile(t, map[string]any{
		"classes": SafeTensorInfo{DType: SafeTensorsI64, Shape: []int{3}, DataOffsets: [2]int64{0, 24}},
		"ints":    SafeTensorInfo{DType: SafeTensorsI32, Shape: []int{2}, DataOffsets: [2]int64{24, 32}},
		"bytes":   SafeTensorInfo{DType: SafeTensorsU8, Shape: []int{2}, DataOffsets: [2]int64{32, 34}},
	}, data)

	tensors, err := ReadSafeTensors(path)
	require.NoError(t, err)

	assert.Equal(t, []float32{0, 2, -1}, tensors["classes"].Data())
	assert.Equal(t, []float32{7, -3}, tensors["ints"].Data())
	assert.Equal(t, []float32{9, 255}, tensors["bytes"].Data())
}

func TestSafeTensors_F64(t *testing.T) {
	data := binary.LittleEndian.AppendUint64(nil, math.Float64bits(0.5))
	path := writeRawFile(t, map[string]any{
		"x": SafeTensorInfo{DType: SafeTensorsF64, Shape: []int{1}, DataOffsets: [2]int64{0, 8}},
	}, data)

	tensors, err := ReadSafeTensors(path)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5}, tensors["x"].Data())
}

func TestSafeTensors_InvalidFiles(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]any
		data   []byte
	}{
		{
			name:   "offsets past end of data",
			header: map[string]any{"x": SafeTensorInfo{DType: SafeTensorsF32, Shape: []int{2}, DataOffsets: [2]int64{0, 8}}},
			data:   make([]byte, 4),
		},
		{
			name:   "size does not match shape",
			header: map[string]any{"x": SafeTensorInfo{DType: SafeTensorsF32, Shape: []int{3}, DataOffsets: [2]int64{0, 8}}},
			data:   make([]byte, 8),
		},
		{
			name:   "unsupported dtype",
			header: map[string]any{"x": SafeTensorInfo{DType: "BF16", Shape: []int{2}, DataOffsets: [2]int64{0, 4}}},
			data:   make([]byte, 4),
		},
		{
			name:   "reversed offsets",
			header: map[string]any{"x": SafeTensorInfo{DType: SafeTensorsF32, Shape: []int{1}, DataOffsets: [2]int64{4, 0}}},
			data:   make([]byte, 4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSafeTensors(writeRawFile(t, tt.header, tt.data))
			assert.Error(t, err)
		})
	}
}

func TestSafeTensors_BadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.safetensors")
	data := binary.LittleEndian.AppendUint64(nil, 1<<40)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err := NewSafeTensorsReader(path)
	assert.Error(t, err)

	_, err = NewSafeTensorsReader(filepath.Join(t.TempDir(), "missing.safetensors"))
	assert.Error(t, err)
}

func TestPrefixMapper(t *testing.T) {
	m := NewPrefixMapper("features.")

	key, ok, err := m.MapName("features.0.weight")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0.weight", key)

	_, ok, err = m.MapName("classifier.weight")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = m.MapName("features.")
	assert.Error(t, err)
}

func lenetSpecs() []LayerSpec {
	return []LayerSpec{
		{Type: LayerPermute, Axes: []int{0, 3, 2, 1}},
		{Type: LayerConv2D, In: 1, Out: 2, Kernel: 3},
		{Type: LayerReLU},
		{Type: LayerMaxPool2D, Kernel: 2},
		{Type: LayerFlatten},
		{Type: LayerLinear, In: 8, Out: 3},
	}
}

func TestBuildModel(t *testing.T) {
	model, err := BuildModel(lenetSpecs())
	require.NoError(t, err)
	assert.Equal(t, 6, model.Len())

	x := tensor.New(tensor.Zeros(tensor.Shape{2, 6, 6, 1}), cpu.New())
	y := model.Forward(x)
	assert.True(t, y.Shape().Equal(tensor.Shape{2, 3}), "got %v", y.Shape())

	pool, err := model.Layer(3)
	require.NoError(t, err)
	assert.Equal(t, 2, pool.(*nn.MaxPool2D).Stride())
}

func TestBuildModel_Errors(t *testing.T) {
	tests := []struct {
		name  string
		specs []LayerSpec
	}{
		{"empty", nil},
		{"unknown type", []LayerSpec{{Type: "softmax"}}},
		{"linear without sizes", []LayerSpec{{Type: LayerLinear}}},
		{"conv without kernel", []LayerSpec{{Type: LayerConv2D, In: 1, Out: 1}}},
		{"conv negative padding", []LayerSpec{{Type: LayerConv2D, In: 1, Out: 1, Kernel: 3, Padding: -1}}},
		{"pool without kernel", []LayerSpec{{Type: LayerMaxPool2D}}},
		{"permute duplicate axes", []LayerSpec{{Type: LayerPermute, Axes: []int{0, 0}}}},
		{"permute without axes", []LayerSpec{{Type: LayerPermute}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildModel(tt.specs)
			assert.Error(t, err)
		})
	}
}

func TestSaveAndLoadWeights(t *testing.T) {
	src, err := BuildModel(lenetSpecs())
	require.NoError(t, err)
	dst, err := BuildModel(lenetSpecs())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "weights.safetensors")
	require.NoError(t, SaveWeights(src, path, nil))
	require.NoError(t, LoadWeights(dst, path, nil))

	for key, want := range src.StateDict() {
		assert.True(t, want.Equal(dst.StateDict()[key]), key)
	}
}

func TestLoadWeights_WithPrefix(t *testing.T) {
	src, err := BuildModel(lenetSpecs())
	require.NoError(t, err)

	prefixed := make(map[string]*tensor.RawTensor)
	for key, raw := range src.StateDict() {
		prefixed["net."+key] = raw
	}
	prefixed["optimizer.step"] = tensor.Zeros(tensor.Shape{1})

	path := filepath.Join(t.TempDir(), "checkpoint.safetensors")
	require.NoError(t, WriteSafeTensors(path, prefixed, nil))

	dst, err := BuildModel(lenetSpecs())
	require.NoError(t, err)
	require.NoError(t, LoadWeights(dst, path, NewPrefixMapper("net.")))

	assert.True(t, src.StateDict()["5.weight"].Equal(dst.StateDict()["5.weight"]))

	// Without the mapper the keys do not match.
	assert.Error(t, LoadWeights(dst, path, nil))
}
