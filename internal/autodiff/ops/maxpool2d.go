package ops

import (
	"math"

	"github.com/born-ml/saliency/internal/tensor"
)

// MaxPool2DOp records a max pooling operation for autodiff.
//
// Forward:
//
//	output[n,c,h,w] = max(input[n,c,h*stride+kh,w*stride+kw] for kh,kw in kernel)
//
// Backward: gradients flow only to the position that held the window maximum.
// Ties go to the first position in row-major order.
type MaxPool2DOp struct {
	input      *tensor.RawTensor
	output     *tensor.RawTensor
	maxIndices []int // Flat input index of the max for each output element
	kernelSize int
	stride     int
}

// NewMaxPool2DOp creates a new MaxPool2D operation.
// Max indices are computed here, while the forward input is known.
func NewMaxPool2DOp(input, output *tensor.RawTensor, kernelSize, stride int) *MaxPool2DOp {
	return &MaxPool2DOp{
		input:      input,
		output:     output,
		maxIndices: computeMaxIndices(input, output, kernelSize, stride),
		kernelSize: kernelSize,
		stride:     stride,
	}
}

// Kind returns KindMaxPool2D.
func (op *MaxPool2DOp) Kind() Kind {
	return KindMaxPool2D
}

// Inputs returns the input tensor.
func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the pooled tensor.
func (op *MaxPool2DOp) Output() *tensor.RawTensor {
	return op.output
}

// MaxIndices returns the recorded max positions.
func (op *MaxPool2DOp) MaxIndices() []int {
	return op.maxIndices
}

// Backward routes the output gradient to the max positions.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.MaxPool2DBackward(op.input, outputGrad, op.maxIndices, op.kernelSize, op.stride),
	}
}

// computeMaxIndices finds which input position had max value for each output position.
func computeMaxIndices(input, output *tensor.RawTensor, kernelSize, stride int) []int {
	inShape := input.Shape()
	outShape := output.Shape()

	N, C, H, W := inShape[0], inShape[1], inShape[2], inShape[3]
	HOut, WOut := outShape[2], outShape[3]

	data := input.Data()
	maxIndices := make([]int, N*C*HOut*WOut)

	for plane := 0; plane < N*C; plane++ {
		base := plane * H * W
		for outH := 0; outH < HOut; outH++ {
			for outW := 0; outW < WOut; outW++ {
				best := -1
				maxVal := float32(math.Inf(-1))
				for kh := 0; kh < kernelSize; kh++ {
					for kw := 0; kw < kernelSize; kw++ {
						idx := base + (outH*stride+kh)*W + outW*stride + kw
						if best < 0 || data[idx] > maxVal {
							best = idx
							maxVal = data[idx]
						}
					}
				}
				maxIndices[(plane*HOut+outH)*WOut+outW] = best
			}
		}
	}

	return maxIndices
}
