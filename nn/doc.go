// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and the Model container.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Conv2D, MaxPool2D
//   - Activations: ReLU
//   - Shape layers: Flatten, Permute
//   - Model: an ordered layer stack with per-kind gradient overrides
//
// # Basic Usage
//
//	model := nn.NewModel(
//	    nn.NewConv2D(1, 8, 3, 3, 1, 1, true),
//	    nn.NewReLU(),
//	    nn.NewMaxPool2D(2, 2),
//	    nn.NewFlatten(),
//	    nn.NewLinear(8*14*14, 10),
//	)
//
//	logits := model.Forward(x) // x bound to any tensor.Backend
//
// # Gradient Overrides
//
// OverrideGradient swaps the backward rule of every operation of a given
// kind for a rule registered with autodiff.RegisterGradient. The override
// is applied while the model records its forward pass, so it affects only
// gradients computed through this model.
package nn
