package cpu

import (
	"testing"

	"github.com/born-ml/saliency/internal/parallel"
	"github.com/born-ml/saliency/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRaw(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return raw
}

func seq(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i + 1)
	}
	return out
}

func TestCPUBackend_Name(t *testing.T) {
	if New().Name() != "CPU" {
		t.Errorf("Name() = %s, want CPU", New().Name())
	}
}

func TestAdd_SameShape(t *testing.T) {
	backend := New()
	a := mustRaw(t, []float32{1, 2, 3}, tensor.Shape{3})
	b := mustRaw(t, []float32{10, 20, 30}, tensor.Shape{3})

	result := backend.Add(a, b)

	assert.Equal(t, []float32{11, 22, 33}, result.Data())
	assert.Equal(t, []float32{1, 2, 3}, a.Data(), "inputs must not be modified")
}

func TestAdd_Broadcast(t *testing.T) {
	backend := New()
	a := mustRaw(t, seq(6), tensor.Shape{2, 3})
	bias := mustRaw(t, []float32{10, 20, 30}, tensor.Shape{1, 3})

	result := backend.Add(a, bias)

	assert.True(t, result.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, result.Data())

	// Channel bias in NCHW layout.
	x := mustRaw(t, make([]float32, 2*2*2*2), tensor.Shape{2, 2, 2, 2})
	cb := mustRaw(t, []float32{1, -1}, tensor.Shape{1, 2, 1, 1})
	out := backend.Add(x, cb)
	assert.Equal(t, float32(1), out.At(1, 0, 1, 1))
	assert.Equal(t, float32(-1), out.At(1, 1, 0, 1))
}

func TestAdd_IncompatiblePanics(t *testing.T) {
	backend := New()
	a := mustRaw(t, seq(6), tensor.Shape{2, 3})
	b := mustRaw(t, seq(4), tensor.Shape{2, 2})

	assert.Panics(t, func() { backend.Add(a, b) })
}

func TestSumTo(t *testing.T) {
	backend := New()
	grad := mustRaw(t, seq(6), tensor.Shape{2, 3})

	rows := backend.SumTo(grad, tensor.Shape{1, 3})
	assert.Equal(t, []float32{5, 7, 9}, rows.Data())

	flat := backend.SumTo(grad, tensor.Shape{3})
	assert.Equal(t, []float32{5, 7, 9}, flat.Data())

	cols := backend.SumTo(grad, tensor.Shape{2, 1})
	assert.Equal(t, []float32{6, 15}, cols.Data())

	same := backend.SumTo(grad, tensor.Shape{2, 3})
	assert.Equal(t, grad.Data(), same.Data())
	same.Data()[0] = 100
	assert.Equal(t, float32(1), grad.Data()[0], "SumTo must not alias its input")

	assert.Panics(t, func() { backend.SumTo(grad, tensor.Shape{4}) })
}

func TestMatMul(t *testing.T) {
	backend := New()
	a := mustRaw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := mustRaw(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	result := backend.MatMul(a, b)

	assert.True(t, result.Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float32{58, 64, 139, 154}, result.Data())

	assert.Panics(t, func() { backend.MatMul(a, a) })
}

func TestReshape(t *testing.T) {
	backend := New()
	x := mustRaw(t, seq(6), tensor.Shape{2, 3})

	result := backend.Reshape(x, tensor.Shape{3, 2})
	assert.True(t, result.Shape().Equal(tensor.Shape{3, 2}))
	assert.Equal(t, x.Data(), result.Data())

	assert.Panics(t, func() { backend.Reshape(x, tensor.Shape{4}) })
}

func TestTranspose2D(t *testing.T) {
	backend := New()
	x := mustRaw(t, seq(6), tensor.Shape{2, 3})

	result := backend.Transpose(x)

	assert.True(t, result.Shape().Equal(tensor.Shape{3, 2}))
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, result.Data())
}

func TestTranspose_ChannelsLastToFirst(t *testing.T) {
	backend := New()
	x := mustRaw(t, seq(2*3*4*5), tensor.Shape{2, 3, 4, 5}) // N, H, W, C

	nchw := backend.Transpose(x, 0, 3, 1, 2)
	assert.True(t, nchw.Shape().Equal(tensor.Shape{2, 5, 3, 4}))

	for n := 0; n < 2; n++ {
		for h := 0; h < 3; h++ {
			for w := 0; w < 4; w++ {
				for c := 0; c < 5; c++ {
					require.Equal(t, x.At(n, h, w, c), nchw.At(n, c, h, w))
				}
			}
		}
	}

	back := backend.Transpose(nchw, tensor.InversePermutation([]int{0, 3, 1, 2})...)
	assert.True(t, back.Equal(x))
}

func TestTranspose_InvalidAxesPanics(t *testing.T) {
	backend := New()
	x := mustRaw(t, seq(6), tensor.Shape{2, 3})

	assert.Panics(t, func() { backend.Transpose(x, 0, 0) })
	assert.Panics(t, func() { backend.Transpose(x, 0) })
}

func TestReLU(t *testing.T) {
	backend := New()
	x := mustRaw(t, []float32{-2, -0.5, 0, 0.5, 2}, tensor.Shape{5})

	result := backend.ReLU(x)

	assert.Equal(t, []float32{0, 0, 0, 0.5, 2}, result.Data())
	assert.Equal(t, float32(-2), x.Data()[0])
}

func TestConv2D_Simple(t *testing.T) {
	backend := New()
	input := mustRaw(t, seq(9), tensor.Shape{1, 1, 3, 3})
	kernel := mustRaw(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	output := backend.Conv2D(input, kernel, 1, 0)

	assert.True(t, output.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{12, 16, 24, 28}, output.Data())
}

func TestConv2D_Padding(t *testing.T) {
	backend := New()
	input := mustRaw(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := mustRaw(t, []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{1, 1, 3, 3})

	output := backend.Conv2D(input, kernel, 1, 1)

	assert.True(t, output.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{10, 10, 10, 10}, output.Data())
}

func TestConv2D_SequentialMatchesParallel(t *testing.T) {
	input := mustRaw(t, seq(2*3*5*5), tensor.Shape{2, 3, 5, 5})
	kernel := mustRaw(t, seq(4*3*3*3), tensor.Shape{4, 3, 3, 3})

	par := New().Conv2D(input, kernel, 2, 1)
	sequential := NewWithConfig(parallel.Config{Enabled: false}).Conv2D(input, kernel, 2, 1)

	assert.True(t, par.Equal(sequential))
}

func TestConv2D_InvalidShapesPanic(t *testing.T) {
	backend := New()
	input := mustRaw(t, seq(9), tensor.Shape{1, 1, 3, 3})
	wrongChannels := mustRaw(t, seq(8), tensor.Shape{1, 2, 2, 2})
	tooBig := mustRaw(t, seq(16), tensor.Shape{1, 1, 4, 4})

	assert.Panics(t, func() { backend.Conv2D(input, wrongChannels, 1, 0) })
	assert.Panics(t, func() { backend.Conv2D(input, tooBig, 1, 0) })
}

func TestConv2DBackward(t *testing.T) {
	backend := New()
	input := mustRaw(t, seq(9), tensor.Shape{1, 1, 3, 3})
	kernel := mustRaw(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})
	grad := mustRaw(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	inputGrad := backend.Conv2DInputBackward(input, kernel, grad, 1, 0)
	// Number of windows covering each input position.
	assert.Equal(t, []float32{1, 2, 1, 2, 4, 2, 1, 2, 1}, inputGrad.Data())

	kernelGrad := backend.Conv2DKernelBackward(input, kernel, grad, 1, 0)
	assert.Equal(t, []float32{12, 16, 24, 28}, kernelGrad.Data())
}

// TestConv2DInputBackward_FiniteDifference checks the input gradient of
// sum(w * conv(x)) against central differences.
func TestConv2DInputBackward_FiniteDifference(t *testing.T) {
	backend := NewWithConfig(parallel.Config{Enabled: false})

	inputData := []float32{0.5, -1, 2, 0.25, 1.5, -0.75, 1, 0.1, -0.3, 0.8, 0.6, -1.2, 0.9, -0.4, 0.2, 1.1, -0.9, 0.7}
	input := mustRaw(t, inputData, tensor.Shape{1, 2, 3, 3})
	kernel := mustRaw(t, []float32{0.3, -0.2, 0.5, 0.1, -0.4, 0.6, 0.2, -0.1}, tensor.Shape{1, 2, 2, 2})

	out := backend.Conv2D(input, kernel, 1, 1)
	weights := make([]float32, out.NumElements())
	for i := range weights {
		weights[i] = float32(i%3) - 0.5
	}
	grad := mustRaw(t, weights, out.Shape())

	objective := func(x *tensor.RawTensor) float64 {
		y := backend.Conv2D(x, kernel, 1, 1)
		sum := 0.0
		for i, v := range y.Data() {
			sum += float64(v) * float64(weights[i])
		}
		return sum
	}

	analytic := backend.Conv2DInputBackward(input, kernel, grad, 1, 1)

	const eps = 1e-2
	for i := range inputData {
		plus := input.Clone()
		plus.Data()[i] += eps
		minus := input.Clone()
		minus.Data()[i] -= eps
		numeric := (objective(plus) - objective(minus)) / (2 * eps)
		assert.InDelta(t, numeric, analytic.Data()[i], 1e-3, "input gradient %d", i)
	}
}

func TestMaxPool2D(t *testing.T) {
	backend := New()
	input := mustRaw(t, seq(16), tensor.Shape{1, 1, 4, 4})

	output := backend.MaxPool2D(input, 2, 2)

	assert.True(t, output.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{6, 8, 14, 16}, output.Data())
}

func TestMaxPool2D_Negative(t *testing.T) {
	backend := New()
	input := mustRaw(t, []float32{-4, -3, -2, -1}, tensor.Shape{1, 1, 2, 2})

	output := backend.MaxPool2D(input, 2, 2)

	assert.Equal(t, []float32{-1}, output.Data())
}

func TestMaxPool2DBackward(t *testing.T) {
	backend := New()
	input := mustRaw(t, seq(16), tensor.Shape{1, 1, 4, 4})
	grad := mustRaw(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})

	inputGrad := backend.MaxPool2DBackward(input, grad, []int{5, 7, 13, 15}, 2, 2)

	expected := make([]float32, 16)
	expected[5], expected[7], expected[13], expected[15] = 1, 2, 3, 4
	assert.Equal(t, expected, inputGrad.Data())

	assert.Panics(t, func() { backend.MaxPool2DBackward(input, grad, []int{5}, 2, 2) })
}
