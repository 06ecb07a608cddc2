package nn

import (
	"fmt"

	"github.com/born-ml/saliency/internal/tensor"
)

// Parameter is a named weight tensor of a layer.
//
// The data is stored without a backend and wrapped with the backend of each
// forward input:
//
//	w := layer.Weight().On(input.Backend())
type Parameter struct {
	name string            // Parameter name (e.g., "weight", "bias")
	data *tensor.RawTensor // Parameter values
}

// NewParameter creates a new parameter.
func NewParameter(name string, data *tensor.RawTensor) *Parameter {
	return &Parameter{
		name: name,
		data: data,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Raw returns the parameter values.
func (p *Parameter) Raw() *tensor.RawTensor {
	return p.data
}

// Shape returns the parameter shape.
func (p *Parameter) Shape() tensor.Shape {
	return p.data.Shape()
}

// On wraps the parameter values for computation on backend b.
func (p *Parameter) On(b tensor.Backend) *tensor.Tensor {
	return tensor.New(p.data, b)
}

// Load copies src into the parameter after checking its shape.
func (p *Parameter) Load(src *tensor.RawTensor) error {
	if !src.Shape().Equal(p.data.Shape()) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", p.name, p.data.Shape(), src.Shape())
	}
	copy(p.data.Data(), src.Data())
	return nil
}
