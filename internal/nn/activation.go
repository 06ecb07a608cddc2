package nn

import (
	"github.com/born-ml/saliency/internal/autodiff/ops"
	"github.com/born-ml/saliency/internal/tensor"
)

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
//
// Each forward pass records one op of kind ops.KindReLU, which is the kind a
// Model's gradient override targets.
type ReLU struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU) Forward(input *tensor.Tensor) *tensor.Tensor {
	return input.ReLU()
}

// Parameters returns nil (ReLU has no weights).
func (r *ReLU) Parameters() []*Parameter {
	return nil
}

// ActivationKind returns ops.KindReLU.
func (r *ReLU) ActivationKind() ops.Kind {
	return ops.KindReLU
}

// String returns "ReLU()".
func (r *ReLU) String() string {
	return "ReLU()"
}
