package cpu

import (
	"fmt"

	"github.com/born-ml/saliency/internal/tensor"
)

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N).
//
// Each output row depends only on the matching row of a, so splitting a
// batch into chunks does not change any value.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]

	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n})
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	matmulFloat32(result.Data(), a.Data(), b.Data(), m, k, n)
	return result
}

// matmulFloat32 computes C[i,j] = sum_k A[i,k] * B[k,j].
func matmulFloat32(c, a, b []float32, m, k, n int) {
	for i := 0; i < m; i++ {
		aRow := a[i*k : (i+1)*k]
		cRow := c[i*n : (i+1)*n]
		for j := 0; j < n; j++ {
			sum := float32(0)
			for kIdx, av := range aRow {
				sum += av * b[kIdx*n+j]
			}
			cRow[j] = sum
		}
	}
}
