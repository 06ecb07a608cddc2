package autodiff

import (
	"fmt"

	"github.com/born-ml/saliency/internal/tensor"
)

// Backward computes gradients of t using the backend's tape.
//
// seed is the gradient of the final objective with respect to t. A nil seed
// means ones, i.e. the gradient of sum(t). Seeding with a one-hot row per
// sample differentiates the score of the selected class.
//
// Gradient computations run on the wrapped backend and are not recorded.
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	y := model.Forward(x)
//	grads, err := autodiff.Backward(y, labels, backend)
//	dx := grads[x.Raw()]
func Backward(t *tensor.Tensor, seed *tensor.RawTensor, backend *AutodiffBackend) (map[*tensor.RawTensor]*tensor.RawTensor, error) {
	if seed == nil {
		seed = tensor.ZerosLike(t.Raw())
		data := seed.Data()
		for i := range data {
			data[i] = 1
		}
	}

	grads, err := backend.Tape().Backward(t.Raw(), seed, backend.Inner())
	if err != nil {
		return nil, fmt.Errorf("autodiff: %w", err)
	}
	return grads, nil
}

// GradientOf returns the gradient recorded for x, or zeros if the output
// does not depend on x.
func GradientOf(grads map[*tensor.RawTensor]*tensor.RawTensor, x *tensor.RawTensor) *tensor.RawTensor {
	if g, ok := grads[x]; ok {
		return g
	}
	return tensor.ZerosLike(x)
}
