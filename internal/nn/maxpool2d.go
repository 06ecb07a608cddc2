package nn

import (
	"fmt"

	"github.com/born-ml/saliency/internal/tensor"
)

// MaxPool2D is a 2D max pooling layer.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height - kernelSize) / stride + 1
//	out_width = (width - kernelSize) / stride + 1
//
// Gradients flow only to the position that held each window's maximum.
type MaxPool2D struct {
	kernelSize int
	stride     int
}

// NewMaxPool2D creates a new 2D max pooling layer.
func NewMaxPool2D(kernelSize, stride int) *MaxPool2D {
	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}

	return &MaxPool2D{
		kernelSize: kernelSize,
		stride:     stride,
	}
}

// Forward performs the forward pass.
func (m *MaxPool2D) Forward(input *tensor.Tensor) *tensor.Tensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}

	b := input.Backend()
	return tensor.New(b.MaxPool2D(input.Raw(), m.kernelSize, m.stride), b)
}

// Parameters returns nil (MaxPool2D has no weights).
func (m *MaxPool2D) Parameters() []*Parameter {
	return nil
}

// String returns a string representation of the layer.
func (m *MaxPool2D) String() string {
	return fmt.Sprintf("MaxPool2D(kernel_size=%d, stride=%d)", m.kernelSize, m.stride)
}

// KernelSize returns the pooling kernel size.
func (m *MaxPool2D) KernelSize() int {
	return m.kernelSize
}

// Stride returns the stride.
func (m *MaxPool2D) Stride() int {
	return m.stride
}
