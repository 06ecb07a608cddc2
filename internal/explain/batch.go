package explain

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/born-ml/saliency/internal/autodiff"
	"github.com/born-ml/saliency/internal/backend/cpu"
	"github.com/born-ml/saliency/internal/nn"
	"github.com/born-ml/saliency/internal/parallel"
	"github.com/born-ml/saliency/internal/tensor"
)

// BatchOptions controls BatchGradient.
type BatchOptions struct {
	BatchSize int            // Samples per chunk; 0 means all at once
	Workers   int            // Chunks computed concurrently
	Backend   tensor.Backend // Compute backend; nil means cpu.New()
	Logger    *zap.Logger    // nil means no logging
}

// BatchGradient computes, for every sample i, the gradient of
// dot(model(x)[i], labels[i]) with respect to x[i].
//
// The gradient of that score with respect to the model output is the label
// row itself, so each chunk's labels seed its backward pass. Samples are
// split into consecutive chunks of at most opts.BatchSize; each chunk runs on
// its own tape and its gradient is copied into the result at the chunk's
// offset. Results do not depend on the chunk size or on opts.Workers.
//
// inputs has shape (N, ...) and labels (N, L). The result has the shape of
// inputs.
func BatchGradient(model nn.Module, inputs, labels *tensor.RawTensor, opts BatchOptions) (*tensor.RawTensor, error) {
	if inputs.Rank() == 0 {
		return nil, validationErrorf("inputs", "expected a batch, got a scalar")
	}
	if labels.Rank() != 2 {
		return nil, validationErrorf("labels", "expected (N, L), got shape %v", labels.Shape())
	}

	n := inputs.Shape()[0]
	if labels.Shape()[0] != n {
		return nil, validationErrorf("labels", "%d rows for %d inputs", labels.Shape()[0], n)
	}
	if n == 0 {
		return nil, validationErrorf("inputs", "empty batch")
	}

	backend := opts.Backend
	if backend == nil {
		backend = cpu.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	size := opts.BatchSize
	if size <= 0 || size > n {
		size = n
	}
	numChunks := (n + size - 1) / size

	result := tensor.ZerosLike(inputs)

	err := parallel.ForErr(numChunks, func(c int) error {
		offset := c * size
		length := min(size, n-offset)

		x, err := inputs.Narrow(offset, length)
		if err != nil {
			return err
		}
		seed, err := labels.Narrow(offset, length)
		if err != nil {
			return err
		}

		logger.Debug("computing chunk gradient",
			zap.Int("chunk", c),
			zap.Int("offset", offset),
			zap.Int("size", length))

		grad, err := chunkGradient(model, x, seed, backend)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return err
			}
			return &ComputationError{Offset: offset, Size: length, Err: err}
		}

		return result.CopyRows(offset, grad)
	}, parallel.Workers(opts.Workers))
	if err != nil {
		return nil, err
	}

	return result, nil
}

// chunkGradient runs one chunk forward and backward on a fresh tape.
// Panics raised by kernels or gradient rules are returned as errors.
func chunkGradient(model nn.Module, x, seed *tensor.RawTensor, inner tensor.Backend) (grad *tensor.RawTensor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	backend := autodiff.New(inner)
	backend.Tape().StartRecording()

	out := model.Forward(tensor.New(x, backend))
	if !out.Shape().Equal(seed.Shape()) {
		return nil, validationErrorf("model output", "shape %v does not match labels %v", out.Shape(), seed.Shape())
	}

	grads, err := autodiff.Backward(out, seed, backend)
	if err != nil {
		return nil, err
	}

	return autodiff.GradientOf(grads, x), nil
}
