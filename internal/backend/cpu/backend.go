// Package cpu implements the pure-Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/born-ml/saliency/internal/parallel"
	"github.com/born-ml/saliency/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	parallel parallel.Config
}

// New creates a new CPU backend using every available core for the
// convolution kernels.
func New() *CPUBackend {
	return &CPUBackend{
		parallel: parallel.DefaultConfig(),
	}
}

// NewWithConfig creates a CPU backend with an explicit parallelism config.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("add: %v", err))
	}

	result, err := tensor.NewRaw(outShape)
	if err != nil {
		panic(fmt.Sprintf("add: failed to create result tensor: %v", err))
	}

	dst := result.Data()
	if !needsBroadcast {
		// Fast path: same shape
		aData, bData := a.Data(), b.Data()
		for i := range dst {
			dst[i] = aData[i] + bData[i]
		}
		return result
	}

	aIdx := broadcastIndex(a.Shape(), outShape)
	bIdx := broadcastIndex(b.Shape(), outShape)
	aData, bData := a.Data(), b.Data()
	for i := range dst {
		dst[i] = aData[aIdx(i)] + bData[bIdx(i)]
	}
	return result
}

// SumTo reduces x to shape by summing over broadcast dimensions.
//
//	Forward:  a[3,1] + b[3,4] -> c[3,4]
//	Backward: SumTo(grad_c[3,4], [3,1]) -> grad_a[3,1]
func (cpu *CPUBackend) SumTo(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if x.Shape().Equal(shape) {
		return x.Clone()
	}

	outShape, _, err := tensor.BroadcastShapes(shape, x.Shape())
	if err != nil || !outShape.Equal(x.Shape()) {
		panic(fmt.Sprintf("sumto: cannot reduce %v to %v", x.Shape(), shape))
	}

	result, err := tensor.NewRaw(shape)
	if err != nil {
		panic(fmt.Sprintf("sumto: failed to create result tensor: %v", err))
	}

	idx := broadcastIndex(shape, x.Shape())
	src, dst := x.Data(), result.Data()
	for i, v := range src {
		dst[idx(i)] += v
	}
	return result
}

// broadcastIndex returns a function mapping a flat index in outShape to the
// flat index of the element of a tensor with shape `from` that broadcasts to it.
func broadcastIndex(from, outShape tensor.Shape) func(int) int {
	offset := len(outShape) - len(from)
	outStrides := outShape.ComputeStrides()
	fromStrides := from.ComputeStrides()

	return func(flat int) int {
		idx := 0
		remaining := flat
		for d := 0; d < len(outShape); d++ {
			coord := remaining / outStrides[d]
			remaining %= outStrides[d]
			fd := d - offset
			if fd < 0 || from[fd] == 1 {
				continue // Broadcast dimension
			}
			idx += coord * fromStrides[fd]
		}
		return idx
	}
}
