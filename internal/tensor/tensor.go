package tensor

import "fmt"

// Tensor pairs a RawTensor with the backend that computes on it.
//
// Operations on a Tensor dispatch to its backend, so a model written against
// Tensor runs unchanged on a plain CPU backend or on an autodiff backend that
// records the operations for a backward pass.
//
// Example:
//
//	backend := cpu.New()
//	x, _ := tensor.FromSliceOn([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
//	y := x.MatMul(x.Transpose())
type Tensor struct {
	raw     *RawTensor
	backend Backend
}

// New creates a Tensor from a RawTensor and backend.
func New(raw *RawTensor, b Backend) *Tensor {
	return &Tensor{
		raw:     raw,
		backend: b,
	}
}

// FromSliceOn creates a tensor from a Go slice on the given backend.
// The slice is copied into the tensor's memory.
func FromSliceOn(data []float32, shape Shape, b Backend) (*Tensor, error) {
	raw, err := FromSlice(data, shape)
	if err != nil {
		return nil, err
	}
	return New(raw, b), nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.raw.Shape()
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
func (t *Tensor) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor) Backend() Backend {
	return t.backend
}

// Data returns the underlying buffer.
func (t *Tensor) Data() []float32 {
	return t.raw.Data()
}

// Add performs element-wise addition with broadcasting.
func (t *Tensor) Add(other *Tensor) *Tensor {
	return New(t.backend.Add(t.raw, other.raw), t.backend)
}

// MatMul performs matrix multiplication.
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	return New(t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Transpose permutes the tensor's dimensions.
// Without axes, the dimensions are reversed (a 2D transpose for matrices).
func (t *Tensor) Transpose(axes ...int) *Tensor {
	return New(t.backend.Transpose(t.raw, axes...), t.backend)
}

// Reshape returns a tensor with the same data and a new shape.
// One dimension may be -1 and is inferred from the others.
func (t *Tensor) Reshape(dims ...int) *Tensor {
	shape, err := inferShape(t.raw.NumElements(), dims)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return New(t.backend.Reshape(t.raw, shape), t.backend)
}

// ReLU applies max(0, x) element-wise.
func (t *Tensor) ReLU() *Tensor {
	return New(t.backend.ReLU(t.raw), t.backend)
}

// inferShape resolves a single -1 dimension against the element count.
func inferShape(numElements int, dims []int) (Shape, error) {
	shape := make(Shape, len(dims))
	inferred := -1
	known := 1
	for i, d := range dims {
		switch {
		case d == -1:
			if inferred >= 0 {
				return nil, fmt.Errorf("only one dimension can be -1, got %v", dims)
			}
			inferred = i
		case d <= 0:
			return nil, fmt.Errorf("invalid dimension %d in %v", d, dims)
		default:
			known *= d
		}
		shape[i] = d
	}

	if inferred >= 0 {
		if known == 0 || numElements%known != 0 {
			return nil, fmt.Errorf("cannot infer dimension for %d elements from %v", numElements, dims)
		}
		shape[inferred] = numElements / known
	}

	if shape.NumElements() != numElements {
		return nil, fmt.Errorf("cannot reshape %d elements into %v", numElements, shape)
	}
	return shape, nil
}
