// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/saliency/internal/backend/cpu"
	"github.com/born-ml/saliency/internal/parallel"
	"github.com/born-ml/saliency/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend that parallelizes over the batch with one worker per CPU.
//
// Example:
//
//	backend := cpu.New()
//	x, _ := tensor.FromSliceOn([]float32{1, 2}, tensor.Shape{1, 2}, backend)
func New() *Backend {
	return internalcpu.New()
}

// NewWithWorkers creates a CPU backend limited to n workers.
// n <= 1 runs every kernel sequentially.
func NewWithWorkers(n int) *Backend {
	return internalcpu.NewWithConfig(parallel.Workers(n))
}
