// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/saliency/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is contiguous row-major float32 storage with a shape.
type RawTensor = tensor.RawTensor

// Tensor is a RawTensor bound to a compute backend.
type Tensor = tensor.Tensor

// Backend is the interface implemented by compute backends.
type Backend = tensor.Backend

// FromSlice copies data into a new RawTensor of the given shape.
func FromSlice(data []float32, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros returns a zero-filled RawTensor. It panics on an invalid shape.
func Zeros(shape Shape) *RawTensor {
	return tensor.Zeros(shape)
}

// New binds raw to backend b without copying.
func New(raw *RawTensor, b Backend) *Tensor {
	return tensor.New(raw, b)
}

// FromSliceOn copies data into a new Tensor bound to backend b.
//
// Example:
//
//	backend := cpu.New()
//	x, err := tensor.FromSliceOn([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
func FromSliceOn(data []float32, shape Shape, b Backend) (*Tensor, error) {
	return tensor.FromSliceOn(data, shape, b)
}
