package cpu

import (
	"fmt"

	"github.com/born-ml/saliency/internal/tensor"
)

// MaxPool2DBackward computes the gradient w.r.t. input for MaxPool2D.
//
// Gradients are routed to the max positions recorded during the forward
// pass. Every other position in a pooling window receives zero.
//
//	Input:  [[1, 2],  Output: [4]  Input Grad: [[0, 0],
//	         [3, 4]]                             [0, grad]]
//
// maxIndices holds, for every output element, the flat index into the input
// of the element that won the window.
func (cpu *CPUBackend) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int, _, _ int) *tensor.RawTensor {
	if len(maxIndices) != grad.NumElements() {
		panic(fmt.Sprintf("maxpool2d backward: maxIndices length %d != gradient size %d",
			len(maxIndices), grad.NumElements()))
	}

	inputGrad, err := tensor.NewRaw(input.Shape())
	if err != nil {
		panic(fmt.Sprintf("maxpool2d backward: failed to create gradient tensor: %v", err))
	}

	dst := inputGrad.Data()
	for i, g := range grad.Data() {
		dst[maxIndices[i]] += g
	}
	return inputGrad
}
