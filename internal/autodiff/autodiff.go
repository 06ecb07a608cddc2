// Package autodiff implements automatic differentiation using the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation and adds gradient tracking
// through a GradientTape.
//
// Architecture:
//   - Decorator pattern: AutodiffBackend wraps any tensor.Backend
//   - GradientTape: records operations during the forward pass
//   - Operation interface: each op implements its default backward rule
//   - Gradient registry: named replacement rules, bound to op kinds through
//     the tape's override scope
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x, _ := tensor.FromSliceOn([]float32{-1, 2}, tensor.Shape{2}, backend)
//	y := x.ReLU()
//	grads, _ := autodiff.Backward(y, nil, backend)
//	fmt.Println(grads[x.Raw()].Data()) // [0 1]
package autodiff

import (
	"github.com/born-ml/saliency/internal/autodiff/ops"
	"github.com/born-ml/saliency/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a GradientTape.
//
// An AutodiffBackend is not safe for concurrent use; create one per
// goroutine. The wrapped backend may be shared.
type AutodiffBackend struct {
	inner tensor.Backend // Wrapped backend
	tape  *GradientTape  // Records operations for backpropagation
}

// New creates a new AutodiffBackend wrapping the given backend.
func New(backend tensor.Backend) *AutodiffBackend {
	return &AutodiffBackend{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
func (b *AutodiffBackend) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend) Inner() tensor.Backend {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// OverrideGradients puts a gradient override map in scope on the tape.
// Models use it to bind their overridden op kinds while they run forward.
func (b *AutodiffBackend) OverrideGradients(overrides map[ops.Kind]string) (restore func()) {
	return b.tape.OverrideGradients(overrides)
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(a, c)
	b.tape.Record(ops.NewAddOp(a, c, result))
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(a, c)
	b.tape.Record(ops.NewMatMulOp(a, c, result))
	return result
}

// Reshape reshapes a tensor and records the operation.
//
// Reshape must be recorded: without it, gradients computed for the reshaped
// tensor never reach the original (e.g. a flattened conv feature map).
func (b *AutodiffBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Reshape(t, newShape)
	b.tape.Record(ops.NewReshapeOp(t, result))
	return result
}

// Transpose transposes a tensor and records the operation.
//
// The backend copies data, so the result is a NEW tensor. Without recording,
// a Linear layer's gradient would land on W^T and never reach W.
func (b *AutodiffBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	if len(axes) == 0 {
		axes = tensor.ReversedAxes(len(t.Shape()))
	}
	result := b.inner.Transpose(t, axes...)
	b.tape.Record(ops.NewTransposeOp(t, result, axes))
	return result
}

// ReLU applies max(0, x) and records the operation.
func (b *AutodiffBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.ReLU(x)
	b.tape.Record(ops.NewReLUOp(x, result))
	return result
}

// Conv2D performs 2D convolution and records the operation.
func (b *AutodiffBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	result := b.inner.Conv2D(input, kernel, stride, padding)
	b.tape.Record(ops.NewConv2DOp(input, kernel, result, stride, padding))
	return result
}

// MaxPool2D performs 2D max pooling and records the operation.
func (b *AutodiffBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	result := b.inner.MaxPool2D(input, kernelSize, stride)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMaxPool2DOp(input, result, kernelSize, stride))
	}
	return result
}

// SumTo delegates to the inner backend (gradient helper, not recorded).
func (b *AutodiffBackend) SumTo(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return b.inner.SumTo(x, shape)
}

// Conv2DInputBackward delegates to the inner backend (not recorded).
func (b *AutodiffBackend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(input, kernel, grad, stride, padding)
}

// Conv2DKernelBackward delegates to the inner backend (not recorded).
func (b *AutodiffBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(input, kernel, grad, stride, padding)
}

// MaxPool2DBackward delegates to the inner backend (not recorded).
func (b *AutodiffBackend) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *tensor.RawTensor {
	return b.inner.MaxPool2DBackward(input, grad, maxIndices, kernelSize, stride)
}
