// Package ops defines operation interfaces and implementations for automatic differentiation.
//
// Each operation implements the Operation interface, which provides:
//   - Kind: the operator kind, used to look up gradient overrides
//   - Backward: the default gradient rule for the operator's inputs
//
// Supported operations:
//   - AddOp: element-wise addition with broadcasting
//   - MatMulOp: matrix multiplication (d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad)
//   - TransposeOp, ReshapeOp: layout changes
//   - ReLUOp: rectified linear unit (d(ReLU(x))/dx = 1 if x > 0, else 0)
//   - Conv2DOp, MaxPool2DOp: convolutional building blocks
package ops

import "github.com/born-ml/saliency/internal/tensor"

// Kind identifies an operator type. Gradient overrides are keyed by Kind,
// so every instance of an operator shares the same override.
type Kind string

// Operator kinds.
const (
	KindAdd       Kind = "Add"
	KindMatMul    Kind = "MatMul"
	KindTranspose Kind = "Transpose"
	KindReshape   Kind = "Reshape"
	KindReLU      Kind = "Relu"
	KindConv2D    Kind = "Conv2D"
	KindMaxPool2D Kind = "MaxPool2D"
)

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Kind returns the operator kind.
	Kind() Kind

	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	// A nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}
