// Package nn implements the neural network modules that saliency explains.
//
// This package provides building blocks for image classifiers:
//   - Module interface: base interface for all NN components
//   - Parameter: named weight tensors
//   - Layers: Linear, Conv2D, MaxPool2D, ReLU, Flatten, Permute
//   - Model: ordered layers with a gradient override map
//
// Modules hold backend-independent weights. The backend is taken from the
// input tensor, so the same model runs on a plain CPU backend for inference
// and on an autodiff backend when gradients are needed.
package nn

import (
	"github.com/born-ml/saliency/internal/autodiff/ops"
	"github.com/born-ml/saliency/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed into a Model:
//
//	model := nn.NewModel(
//	    nn.NewLinear(784, 128),
//	    nn.NewReLU(),
//	    nn.NewLinear(128, 10),
//	)
type Module interface {
	// Forward computes the output of the module given an input tensor.
	// Operations run on the input's backend.
	Forward(input *tensor.Tensor) *tensor.Tensor

	// Parameters returns the module's weights, or nil for stateless modules.
	Parameters() []*Parameter
}

// Activation is a Module whose forward pass is a single activation op.
type Activation interface {
	Module

	// ActivationKind returns the op kind the activation records.
	ActivationKind() ops.Kind
}

// GradientScope is implemented by backends that can bind recorded op kinds to
// named gradient rules (see autodiff.AutodiffBackend).
type GradientScope interface {
	OverrideGradients(overrides map[ops.Kind]string) (restore func())
}
