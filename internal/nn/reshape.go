package nn

import (
	"fmt"

	"github.com/born-ml/saliency/internal/tensor"
)

// Flatten collapses all dimensions after the batch dimension:
// [batch, d1, d2, ...] -> [batch, d1*d2*...].
type Flatten struct{}

// NewFlatten creates a new Flatten module.
func NewFlatten() *Flatten {
	return &Flatten{}
}

// Forward reshapes input to [batch, -1].
func (f *Flatten) Forward(input *tensor.Tensor) *tensor.Tensor {
	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("flatten: expected at least 2D input, got shape %v", shape))
	}
	return input.Reshape(shape[0], -1)
}

// Parameters returns nil.
func (f *Flatten) Parameters() []*Parameter {
	return nil
}

// String returns "Flatten()".
func (f *Flatten) String() string {
	return "Flatten()"
}

// Permute reorders dimensions.
//
// Images arrive as [batch, width, height, channels] while Conv2D works in
// [batch, channels, height, width]; NewPermute(0, 3, 2, 1) converts between
// the two layouts.
type Permute struct {
	axes []int
}

// NewPermute creates a Permute module for the given axis order.
func NewPermute(axes ...int) *Permute {
	seen := make([]bool, len(axes))
	for _, a := range axes {
		if a < 0 || a >= len(axes) || seen[a] {
			panic(fmt.Sprintf("permute: invalid axes %v", axes))
		}
		seen[a] = true
	}
	return &Permute{axes: append([]int(nil), axes...)}
}

// Forward transposes input by the module's axis order.
func (p *Permute) Forward(input *tensor.Tensor) *tensor.Tensor {
	if len(input.Shape()) != len(p.axes) {
		panic(fmt.Sprintf("permute: input rank %d != %d axes", len(input.Shape()), len(p.axes)))
	}
	return input.Transpose(p.axes...)
}

// Parameters returns nil.
func (p *Permute) Parameters() []*Parameter {
	return nil
}

// Axes returns a copy of the axis order.
func (p *Permute) Axes() []int {
	return append([]int(nil), p.axes...)
}

// String returns a string representation of the module.
func (p *Permute) String() string {
	return fmt.Sprintf("Permute(axes=%v)", p.axes)
}
