package tensor

import (
	"fmt"
	"math"
)

// RawTensor is the low-level tensor representation: a row-major float32
// buffer plus its shape.
//
// Backends never modify the inputs they receive. Every kernel allocates its
// result, so a RawTensor recorded on a gradient tape keeps the values it had
// during the forward pass.
type RawTensor struct {
	data   []float32
	shape  Shape
	stride []int
}

// NewRaw creates a zero-filled RawTensor with the given shape.
func NewRaw(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]float32, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
	}, nil
}

// FromSlice creates a RawTensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float32, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	raw, err := NewRaw(shape)
	if err != nil {
		return nil, err
	}
	copy(raw.data, data)
	return raw, nil
}

// Zeros returns a zero-filled tensor. Panics on an invalid shape.
func Zeros(shape Shape) *RawTensor {
	raw, err := NewRaw(shape)
	if err != nil {
		panic(fmt.Sprintf("zeros: %v", err))
	}
	return raw
}

// ZerosLike returns a zero-filled tensor with the same shape as r.
func ZerosLike(r *RawTensor) *RawTensor {
	return Zeros(r.shape)
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// Rank returns the number of dimensions.
func (r *RawTensor) Rank() int {
	return len(r.shape)
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return len(r.data)
}

// Data returns the underlying buffer.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []float32 {
	return r.data
}

// At returns the element at the given multi-dimensional index.
func (r *RawTensor) At(idx ...int) float32 {
	if len(idx) != len(r.shape) {
		panic(fmt.Sprintf("at: expected %d indices, got %d", len(r.shape), len(idx)))
	}
	offset := 0
	for i, v := range idx {
		if v < 0 || v >= r.shape[i] {
			panic(fmt.Sprintf("at: index %d out of range for dimension %d (size %d)", v, i, r.shape[i]))
		}
		offset += v * r.stride[i]
	}
	return r.data[offset]
}

// Clone returns a deep copy of the tensor.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]float32, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
	}
}

// View returns a tensor sharing r's buffer under a new shape.
// The element count must be unchanged.
func (r *RawTensor) View(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(r.data) {
		return nil, fmt.Errorf("cannot view %v (%d elements) as %v (%d elements)",
			r.shape, len(r.data), shape, shape.NumElements())
	}
	return &RawTensor{
		data:   r.data,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
	}, nil
}

// Narrow copies rows [start, start+length) along dimension 0.
func (r *RawTensor) Narrow(start, length int) (*RawTensor, error) {
	if len(r.shape) == 0 {
		return nil, fmt.Errorf("narrow: scalar tensor has no batch dimension")
	}
	if start < 0 || length <= 0 || start+length > r.shape[0] {
		return nil, fmt.Errorf("narrow: range [%d, %d) out of bounds for dimension of size %d",
			start, start+length, r.shape[0])
	}

	rowSize := r.stride[0]
	out, err := NewRaw(r.shape.WithBatch(length))
	if err != nil {
		return nil, err
	}
	copy(out.data, r.data[start*rowSize:(start+length)*rowSize])
	return out, nil
}

// CopyRows writes src into r starting at row offset along dimension 0.
// src must match r in every dimension except the first.
func (r *RawTensor) CopyRows(offset int, src *RawTensor) error {
	if len(r.shape) == 0 {
		return fmt.Errorf("copy rows: scalar tensor has no batch dimension")
	}
	if len(src.shape) != len(r.shape) || !src.shape.WithBatch(r.shape[0]).Equal(r.shape) {
		return fmt.Errorf("copy rows: shape %v does not fit into %v", src.shape, r.shape)
	}
	if offset < 0 || offset+src.shape[0] > r.shape[0] {
		return fmt.Errorf("copy rows: rows [%d, %d) out of bounds for dimension of size %d",
			offset, offset+src.shape[0], r.shape[0])
	}
	rowSize := r.stride[0]
	copy(r.data[offset*rowSize:], src.data)
	return nil
}

// Equal reports whether both tensors have the same shape and bit-identical values.
func (r *RawTensor) Equal(other *RawTensor) bool {
	if !r.shape.Equal(other.shape) {
		return false
	}
	for i, v := range r.data {
		if math.Float32bits(v) != math.Float32bits(other.data[i]) {
			return false
		}
	}
	return true
}

// String returns a short description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor(shape=%v)", r.shape)
}
