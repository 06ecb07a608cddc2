// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// The backend implements the kernels a convolutional classifier needs:
// broadcast addition, 2D matrix multiplication, ReLU, direct NCHW
// convolution, max pooling, and the matching backward kernels.
//
// # Basic Usage
//
//	backend := cpu.New()
//	model := nn.NewModel(nn.NewLinear(784, 10))
//	x, _ := tensor.FromSliceOn(pixels, tensor.Shape{1, 784}, backend)
//	logits := model.Forward(x)
//
// # Thread Safety
//
// The CPU backend holds no mutable state and is safe for concurrent use.
package cpu
