package cpu

import (
	"fmt"

	"github.com/born-ml/saliency/internal/tensor"
)

// Reshape returns a copy of t with a new shape and the same element count.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) into %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}

	result, err := tensor.NewRaw(newShape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes the dimensions of t.
// Without axes the dimension order is reversed.
//
//	Transpose(x[N,H,W,C], 0, 3, 1, 2) -> [N,C,H,W]
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = tensor.ReversedAxes(ndim)
	}
	if err := validatePermutation(axes, ndim); err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		outShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(outShape)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	src, dst := t.Data(), result.Data()

	// Stride of the input walked by each output dimension.
	walk := make([]int, ndim)
	for i, ax := range axes {
		walk[i] = inStrides[ax]
	}

	for outIdx := range dst {
		inIdx := 0
		remaining := outIdx
		for d := 0; d < ndim; d++ {
			coord := remaining / outStrides[d]
			remaining %= outStrides[d]
			inIdx += coord * walk[d]
		}
		dst[outIdx] = src[inIdx]
	}

	return result
}

func validatePermutation(axes []int, ndim int) error {
	if len(axes) != ndim {
		return fmt.Errorf("expected %d axes, got %d", ndim, len(axes))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			return fmt.Errorf("invalid permutation %v for rank %d", axes, ndim)
		}
		seen[ax] = true
	}
	return nil
}
