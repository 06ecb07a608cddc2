package ops

import (
	"fmt"

	"github.com/born-ml/saliency/internal/tensor"
)

// ReLUOp represents a ReLU (Rectified Linear Unit) activation: output = max(0, x).
//
// Backward pass:
//   - d(ReLU(x))/dx = 1 if x > 0, else 0
//
// The gradient is the output gradient masked by input > 0.
type ReLUOp struct {
	input  *tensor.RawTensor // x
	output *tensor.RawTensor // max(0, x)
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{
		input:  input,
		output: output,
	}
}

// Kind returns KindReLU.
func (op *ReLUOp) Kind() Kind {
	return KindReLU
}

// Backward computes input gradient for ReLU.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	if !outputGrad.Shape().Equal(op.input.Shape()) {
		panic(fmt.Sprintf("relu backward: gradient shape %v != input shape %v", outputGrad.Shape(), op.input.Shape()))
	}

	gradInput := tensor.ZerosLike(op.input)
	dst := gradInput.Data()
	g := outputGrad.Data()
	for i, x := range op.input.Data() {
		if x > 0 {
			dst[i] = g[i]
		}
	}

	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *ReLUOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor max(0, x).
func (op *ReLUOp) Output() *tensor.RawTensor {
	return op.output
}
