package explain

import (
	"math"

	"github.com/born-ml/saliency/internal/tensor"
)

// sanitizeInputs returns inputs as a (N, W, H, C) batch.
// A single (W, H, C) sample gets a batch dimension.
func sanitizeInputs(inputs *tensor.RawTensor) (*tensor.RawTensor, error) {
	if inputs == nil {
		return nil, validationErrorf("inputs", "nil tensor")
	}

	switch inputs.Rank() {
	case 4:
	case 3:
		batched, err := inputs.View(inputs.Shape().WithBatch(1))
		if err != nil {
			return nil, validationErrorf("inputs", "%v", err)
		}
		inputs = batched
	default:
		return nil, validationErrorf("inputs", "expected (N, W, H, C) or (W, H, C), got shape %v", inputs.Shape())
	}

	if inputs.Shape()[0] == 0 {
		return nil, validationErrorf("inputs", "empty batch")
	}
	return inputs, nil
}

// checkLabelRows checks the label rank and row count against n inputs. It
// needs no model output, so it runs before any forward pass.
func checkLabelRows(labels *tensor.RawTensor, n int) error {
	if labels == nil {
		return validationErrorf("labels", "nil tensor")
	}
	rank := labels.Rank()
	if rank != 1 && rank != 2 {
		return validationErrorf("labels", "expected (N, L) one-hot rows or (N) class indices, got shape %v", labels.Shape())
	}
	if rows := labels.Shape()[0]; rows != n {
		return validationErrorf("labels", "%d label rows for %d inputs", rows, n)
	}
	return nil
}

// sanitizeLabels returns labels as (n, numClasses) one-hot rows.
//
// Rank 2 labels must already be one-hot: one entry equal to 1 per row, all
// others 0. Rank 1 labels are class indices and are converted.
func sanitizeLabels(labels *tensor.RawTensor, n, numClasses int) (*tensor.RawTensor, error) {
	if labels == nil {
		return nil, validationErrorf("labels", "nil tensor")
	}

	shape := labels.Shape()
	switch labels.Rank() {
	case 2:
		if shape[0] != n {
			return nil, validationErrorf("labels", "%d rows for %d inputs", shape[0], n)
		}
		if shape[1] != numClasses {
			return nil, validationErrorf("labels", "%d classes, model outputs %d", shape[1], numClasses)
		}
		if err := checkOneHot(labels); err != nil {
			return nil, err
		}
		return labels, nil

	case 1:
		if shape[0] != n {
			return nil, validationErrorf("labels", "%d class indices for %d inputs", shape[0], n)
		}
		return oneHot(labels.Data(), numClasses)

	default:
		return nil, validationErrorf("labels", "expected (N, L) one-hot rows or (N) class indices, got shape %v", shape)
	}
}

// checkOneHot verifies that every row holds exactly one 1 and zeros elsewhere.
func checkOneHot(labels *tensor.RawTensor) error {
	rows, cols := labels.Shape()[0], labels.Shape()[1]
	data := labels.Data()
	for i := 0; i < rows; i++ {
		ones := 0
		for j, v := range data[i*cols : (i+1)*cols] {
			switch v {
			case 0:
			case 1:
				ones++
			default:
				return validationErrorf("labels", "row %d has entry %v at column %d, want 0 or 1", i, v, j)
			}
		}
		if ones != 1 {
			return validationErrorf("labels", "row %d has %d entries equal to 1, want exactly 1", i, ones)
		}
	}
	return nil
}

// oneHot converts class indices to one-hot rows.
func oneHot(classes []float32, numClasses int) (*tensor.RawTensor, error) {
	out := tensor.Zeros(tensor.Shape{len(classes), numClasses})
	data := out.Data()
	for i, c := range classes {
		idx := float64(c)
		if idx != math.Trunc(idx) || idx < 0 || idx >= float64(numClasses) {
			return nil, validationErrorf("labels", "class index %v at row %d is not in [0, %d)", c, i, numClasses)
		}
		data[i*numClasses+int(idx)] = 1
	}
	return out, nil
}

// reduceChannels reduces a (N, W, H, C) gradient to (N, W, H).
func reduceChannels(grad *tensor.RawTensor, reduction Reduction) *tensor.RawTensor {
	shape := grad.Shape()
	channels := shape[3]
	out := tensor.Zeros(shape[:3].Clone())

	src := grad.Data()
	dst := out.Data()
	for p := range dst {
		pixel := src[p*channels : (p+1)*channels]
		switch reduction {
		case ReduceMax:
			var best float32
			for _, v := range pixel {
				best = max(best, float32(math.Abs(float64(v))))
			}
			dst[p] = best
		case ReduceMean:
			var sum float32
			for _, v := range pixel {
				sum += v
			}
			dst[p] = sum / float32(channels)
		default:
			var sum float32
			for _, v := range pixel {
				sum += v
			}
			dst[p] = sum
		}
	}
	return out
}
