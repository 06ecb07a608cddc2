package ops_test

import (
	"testing"

	"github.com/born-ml/saliency/internal/autodiff/ops"
	"github.com/born-ml/saliency/internal/backend/cpu"
	"github.com/born-ml/saliency/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(t *testing.T, data []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(data, tensor.Shape(shape))
	require.NoError(t, err)
	return r
}

func TestKinds(t *testing.T) {
	x := tensor.Zeros(tensor.Shape{1, 1, 2, 2})
	m := tensor.Zeros(tensor.Shape{2, 2})

	tests := []struct {
		op   ops.Operation
		want ops.Kind
	}{
		{ops.NewAddOp(m, m, m), ops.KindAdd},
		{ops.NewMatMulOp(m, m, m), ops.KindMatMul},
		{ops.NewTransposeOp(m, m, []int{1, 0}), ops.KindTranspose},
		{ops.NewReshapeOp(m, m), ops.KindReshape},
		{ops.NewReLUOp(m, m), ops.KindReLU},
		{ops.NewConv2DOp(x, x, x, 1, 0), ops.KindConv2D},
		{ops.NewMaxPool2DOp(x, tensor.Zeros(tensor.Shape{1, 1, 1, 1}), 2, 2), ops.KindMaxPool2D},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.op.Kind())
	}
}

func TestReLUOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float32{-1, 0, 2, 3}, 4)
	op := ops.NewReLUOp(x, backend.ReLU(x))

	grads := op.Backward(raw(t, []float32{1, 1, -1, 4}, 4), backend)
	require.Len(t, grads, 1)

	// Negative gradients pass unchanged where the input is positive.
	assert.Equal(t, []float32{0, 0, -1, 4}, grads[0].Data())
}

func TestReLUOp_ShapeMismatchPanics(t *testing.T) {
	x := raw(t, []float32{1, 2}, 2)
	op := ops.NewReLUOp(x, x)
	assert.Panics(t, func() {
		op.Backward(tensor.Zeros(tensor.Shape{3}), cpu.New())
	})
}

func TestAddOp_BackwardBroadcast(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := raw(t, []float32{10, 20, 30}, 3)
	op := ops.NewAddOp(a, b, backend.Add(a, b))

	grads := op.Backward(raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3), backend)

	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, grads[0].Data())
	assert.Equal(t, []float32{5, 7, 9}, grads[1].Data())
	assert.True(t, grads[1].Shape().Equal(tensor.Shape{3}))
}

func TestMatMulOp_Backward(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float32{1, 2, 3, 4}, 2, 2)
	b := raw(t, []float32{5, 6, 7, 8}, 2, 2)
	op := ops.NewMatMulOp(a, b, backend.MatMul(a, b))

	grads := op.Backward(raw(t, []float32{1, 0, 0, 1}, 2, 2), backend)

	// dA = G @ B^T, dB = A^T @ G
	assert.Equal(t, []float32{5, 7, 6, 8}, grads[0].Data())
	assert.Equal(t, []float32{1, 3, 2, 4}, grads[1].Data())
}

func TestTransposeOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, 1, 2, 2, 2)
	axes := []int{0, 3, 1, 2}
	out := backend.Transpose(x, axes...)
	op := ops.NewTransposeOp(x, out, axes)

	grads := op.Backward(out, backend)

	// Transposing the forward result back recovers the input layout.
	assert.True(t, grads[0].Equal(x))
}

func TestReshapeOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	out := backend.Reshape(x, tensor.Shape{6})
	op := ops.NewReshapeOp(x, out)

	grads := op.Backward(out, backend)

	assert.True(t, grads[0].Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, x.Data(), grads[0].Data())
}

func TestMaxPool2DOp_MaxIndices(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float32{
		1, 5, 2, 2,
		3, 4, 2, 2,
		0, 0, 9, 1,
		0, 0, 1, 9,
	}, 1, 1, 4, 4)
	out := backend.MaxPool2D(x, 2, 2)
	op := ops.NewMaxPool2DOp(x, out, 2, 2)

	// Ties go to the first position in row-major order.
	assert.Equal(t, []int{1, 2, 8, 10}, op.MaxIndices())

	grads := op.Backward(raw(t, []float32{1, 2, 3, 4}, 1, 1, 2, 2), backend)
	want := make([]float32, 16)
	want[1], want[2], want[8], want[10] = 1, 2, 3, 4
	assert.Equal(t, want, grads[0].Data())
}

func TestConv2DOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, 1, 1, 3, 3)
	k := raw(t, []float32{1, 0, 0, 1}, 1, 1, 2, 2)
	out := backend.Conv2D(x, k, 1, 0)
	op := ops.NewConv2DOp(x, k, out, 1, 0)

	grads := op.Backward(raw(t, []float32{1, 1, 1, 1}, 1, 1, 2, 2), backend)
	require.Len(t, grads, 2)

	assert.Equal(t, []float32{1, 1, 0, 1, 2, 1, 0, 1, 1}, grads[0].Data())
	// dK[i,j] = sum of the 2x2 window of x at offset (i,j)
	assert.Equal(t, []float32{12, 16, 24, 28}, grads[1].Data())
}
