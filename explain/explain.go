// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package explain computes Guided Backpropagation saliency maps for models
// built with the nn package.
//
// Example:
//
//	explainer, err := explain.New(model, explain.DefaultConfig(), zap.NewNop())
//	if err != nil {
//	    return err
//	}
//	defer explainer.Close()
//
//	// images: (N, W, H, C), labels: one-hot (N, classes)
//	maps, err := explainer.Explain(images, labels) // (N, W, H)
package explain

import (
	"go.uber.org/zap"

	"github.com/born-ml/saliency/autodiff"
	"github.com/born-ml/saliency/internal/explain"
	"github.com/born-ml/saliency/nn"
	"github.com/born-ml/saliency/tensor"
)

// Error sentinels, matched with errors.Is.
var (
	ErrConfiguration = explain.ErrConfiguration
	ErrValidation    = explain.ErrValidation
	ErrComputation   = explain.ErrComputation
	ErrClosed        = explain.ErrClosed
)

// Error types, matched with errors.As.
type (
	ConfigurationError = explain.ConfigurationError
	ValidationError    = explain.ValidationError
	ComputationError   = explain.ComputationError
)

// Reduction selects how gradients are collapsed over the channel axis.
type Reduction = explain.Reduction

// Channel reductions.
const (
	ReduceSum  = explain.ReduceSum
	ReduceMean = explain.ReduceMean
	ReduceMax  = explain.ReduceMax
)

// Config controls an Explainer.
type Config = explain.Config

// DefaultConfig returns the default explainer configuration.
func DefaultConfig() Config {
	return explain.DefaultConfig()
}

// Explainer produces saliency maps for a model.
type Explainer = explain.Explainer

// New creates an Explainer over model. A nil logger discards log output.
func New(model *nn.Model, cfg Config, logger *zap.Logger) (*Explainer, error) {
	return explain.New(model, cfg, logger)
}

// GuidedReLUName prefixes the registry name of every guided rule.
const GuidedReLUName = explain.GuidedReLUName

// GuidedReLUGradient is the guided backward rule for a ReLU operation.
func GuidedReLUGradient(op autodiff.Operation, outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return explain.GuidedReLUGradient(op, outputGrad, backend)
}

// BatchOptions controls BatchGradient.
type BatchOptions = explain.BatchOptions

// BatchGradient computes d(sum(labels * model(inputs)))/d(inputs) chunk by chunk.
func BatchGradient(model nn.Module, inputs, labels *tensor.RawTensor, opts BatchOptions) (*tensor.RawTensor, error) {
	return explain.BatchGradient(model, inputs, labels, opts)
}
