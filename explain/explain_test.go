// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package explain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/saliency/explain"
	"github.com/born-ml/saliency/nn"
	"github.com/born-ml/saliency/tensor"
)

func TestExplainerFacade(t *testing.T) {
	// (N, W, H, C) = (1, 2, 1, 1) -> (N, C, H, W) -> flatten -> relu -> linear
	lin := nn.NewLinear(2, 2)
	require.NoError(t, lin.Weight().Load(mustRaw(t, []float32{1, -1, -1, 1}, 2, 2)))
	require.NoError(t, lin.Bias().Load(mustRaw(t, []float32{0, 0}, 2)))
	model := nn.NewModel(nn.NewPermute(0, 3, 2, 1), nn.NewFlatten(), nn.NewReLU(), lin)

	explainer, err := explain.New(model, explain.DefaultConfig(), nil)
	require.NoError(t, err)
	defer explainer.Close()

	images := mustRaw(t, []float32{2, -3}, 1, 2, 1, 1)
	maps, err := explainer.ExplainClasses(images, []int{0})
	require.NoError(t, err)

	assert.True(t, tensor.Shape{1, 2, 1}.Equal(maps.Shape()))
	// Class 0 score = relu(x0) - relu(x1); x1 is inactive.
	assert.Equal(t, []float32{1, 0}, maps.Data())
}

func TestExplainerFacadeErrors(t *testing.T) {
	cfg := explain.DefaultConfig()
	cfg.BatchSize = -1
	_, err := explain.New(nn.NewModel(nn.NewReLU()), cfg, nil)
	assert.ErrorIs(t, err, explain.ErrConfiguration)

	var cfgErr *explain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestExplainerFacadeRejectsNonBinaryLabels(t *testing.T) {
	model := nn.NewModel(nn.NewPermute(0, 3, 2, 1), nn.NewFlatten(), nn.NewReLU(), nn.NewLinear(2, 2))
	explainer, err := explain.New(model, explain.DefaultConfig(), nil)
	require.NoError(t, err)
	defer explainer.Close()

	images := mustRaw(t, []float32{2, -3}, 1, 2, 1, 1)
	for _, row := range [][]float32{
		{float32(math.NaN()), 0},
		{0, 2},
		{-1, 0},
	} {
		_, err := explainer.Explain(images, mustRaw(t, row, 1, 2))
		assert.ErrorIs(t, err, explain.ErrValidation, "row %v", row)
	}
}

func mustRaw(t *testing.T, data []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return r
}
