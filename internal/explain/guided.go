package explain

import (
	"fmt"
	"sync/atomic"

	"github.com/born-ml/saliency/internal/autodiff/ops"
	"github.com/born-ml/saliency/internal/tensor"
)

// GuidedReLUName is the prefix of the names under which explainers register
// GuidedReLUGradient.
const GuidedReLUName = "GuidedReLU"

var ruleCounter atomic.Uint64

// nextRuleName returns a process-wide unique rule name.
func nextRuleName() string {
	return fmt.Sprintf("%s_%d", GuidedReLUName, ruleCounter.Add(1))
}

// GuidedReLUGradient is the Guided Backpropagation rule for a ReLU op.
//
// For y = relu(x) and incoming gradient g:
//
//	dx = g * (x > 0) * (g > 0)
//
// The gradient passes only where the unit was active in the forward pass and
// the incoming gradient is positive.
func GuidedReLUGradient(op ops.Operation, outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.Inputs()[0]
	if !outputGrad.Shape().Equal(x.Shape()) {
		panic(fmt.Sprintf("guided relu: gradient shape %v != input shape %v", outputGrad.Shape(), x.Shape()))
	}

	gradInput := tensor.ZerosLike(x)
	dst := gradInput.Data()
	g := outputGrad.Data()
	for i, v := range x.Data() {
		if v > 0 && g[i] > 0 {
			dst[i] = g[i]
		}
	}

	return []*tensor.RawTensor{gradInput}
}
