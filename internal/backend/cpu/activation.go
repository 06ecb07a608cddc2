package cpu

import (
	"fmt"

	"github.com/born-ml/saliency/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape())
	if err != nil {
		panic(fmt.Sprintf("relu: %v", err))
	}

	dst := result.Data()
	for i, v := range x.Data() {
		if v > 0 {
			dst[i] = v
		}
	}
	return result
}
