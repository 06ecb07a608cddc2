// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/saliency/internal/nn"
	"github.com/born-ml/saliency/tensor"
)

// Model errors.
var (
	ErrFrozen            = nn.ErrFrozen
	ErrAlreadyOverridden = nn.ErrAlreadyOverridden
	ErrLayerIndex        = nn.ErrLayerIndex
)

// Module is the interface implemented by every layer and by Model.
type Module = nn.Module

// Activation is a Module that reports the operator kind it applies.
type Activation = nn.Activation

// Parameter is a named weight tensor owned by a layer.
type Parameter = nn.Parameter

// NewParameter creates a parameter holding data.
func NewParameter(name string, data *tensor.RawTensor) *Parameter {
	return nn.NewParameter(name, data)
}

// Model is an ordered stack of layers.
type Model = nn.Model

// NewModel creates a model from layers applied in order.
func NewModel(layers ...Module) *Model {
	return nn.NewModel(layers...)
}

// Layers

// Linear represents a fully connected layer: y = x @ W^T + b.
type Linear = nn.Linear

// NewLinear creates a linear layer with Xavier initialization.
//
// Example:
//
//	layer := nn.NewLinear(784, 128)
func NewLinear(inFeatures, outFeatures int) *Linear {
	return nn.NewLinear(inFeatures, outFeatures)
}

// Conv2D represents a 2D convolution over NCHW input.
type Conv2D = nn.Conv2D

// NewConv2D creates a 2D convolutional layer.
//
// Example:
//
//	conv := nn.NewConv2D(1, 32, 3, 3, 1, 1, true) // 1->32 channels, 3x3, stride 1, padding 1
func NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding int, useBias bool) *Conv2D {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias)
}

// MaxPool2D represents a 2D max pooling layer.
type MaxPool2D = nn.MaxPool2D

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D(kernelSize, stride int) *MaxPool2D {
	return nn.NewMaxPool2D(kernelSize, stride)
}

// ReLU is the rectified linear activation.
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// Flatten reshapes (N, ...) to (N, -1).
type Flatten = nn.Flatten

// NewFlatten creates a Flatten layer.
func NewFlatten() *Flatten {
	return nn.NewFlatten()
}

// Permute reorders tensor axes.
type Permute = nn.Permute

// NewPermute creates a Permute layer. It panics if axes is not a permutation.
//
// Example:
//
//	toNCHW := nn.NewPermute(0, 3, 2, 1) // (N, W, H, C) -> (N, C, H, W)
func NewPermute(axes ...int) *Permute {
	return nn.NewPermute(axes...)
}
