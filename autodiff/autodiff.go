// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation using a
// gradient tape. It wraps any backend to add autodiff capabilities, and lets
// callers replace the backward rule of an operator kind with a named rule
// from a process-wide registry.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	x, _ := tensor.FromSliceOn([]float32{-1, 2}, tensor.Shape{1, 2}, backend)
//	y := x.ReLU()
//
//	grads, err := autodiff.Backward(y, nil, backend)
//	dx := autodiff.GradientOf(grads, x.Raw())
package autodiff

import (
	"github.com/born-ml/saliency/internal/autodiff"
	"github.com/born-ml/saliency/internal/autodiff/ops"
	"github.com/born-ml/saliency/tensor"
)

// Registry errors.
var (
	ErrGradientExists   = autodiff.ErrGradientExists
	ErrGradientNotFound = autodiff.ErrGradientNotFound
)

// Backend is the autodiff-enabled backend.
type Backend = autodiff.AutodiffBackend

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// Operation is a recorded operation, as passed to a GradientFunc.
type Operation = ops.Operation

// Kind identifies an operator type.
type Kind = ops.Kind

// Operator kinds that can carry a gradient override.
const (
	KindAdd       = ops.KindAdd
	KindMatMul    = ops.KindMatMul
	KindTranspose = ops.KindTranspose
	KindReshape   = ops.KindReshape
	KindReLU      = ops.KindReLU
	KindConv2D    = ops.KindConv2D
	KindMaxPool2D = ops.KindMaxPool2D
)

// GradientFunc is a replacement backward rule.
type GradientFunc = autodiff.GradientFunc

// New creates a new autodiff backend wrapping the given backend.
func New(backend tensor.Backend) *Backend {
	return autodiff.New(backend)
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// Backward computes gradients of t seeded with seed (nil means ones).
func Backward(t *tensor.Tensor, seed *tensor.RawTensor, backend *Backend) (map[*tensor.RawTensor]*tensor.RawTensor, error) {
	return autodiff.Backward(t, seed, backend)
}

// GradientOf returns the gradient for x, or zeros if none flowed to it.
func GradientOf(grads map[*tensor.RawTensor]*tensor.RawTensor, x *tensor.RawTensor) *tensor.RawTensor {
	return autodiff.GradientOf(grads, x)
}

// RegisterGradient registers fn under a process-wide unique name.
func RegisterGradient(name string, fn GradientFunc) error {
	return autodiff.RegisterGradient(name, fn)
}

// UnregisterGradient removes name from the registry and reports whether it existed.
func UnregisterGradient(name string) bool {
	return autodiff.UnregisterGradient(name)
}

// RegisteredGradients returns the registered rule names, sorted.
func RegisteredGradients() []string {
	return autodiff.RegisteredGradients()
}
