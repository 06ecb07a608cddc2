package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/saliency/internal/tensor"
)

// MaxPool2D performs 2D max pooling.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
//	out_height = (height - kernelSize) / stride + 1
//	out_width = (width - kernelSize) / stride + 1
//
// Example (2x2 pool, stride=2):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}

	N, C, H, W := inputShape[0], inputShape[1], inputShape[2], inputShape[3]

	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}
	if kernelSize > H || kernelSize > W {
		panic(fmt.Sprintf("maxpool2d: kernel size %d too large for input %dx%d", kernelSize, H, W))
	}

	HOut := (H-kernelSize)/stride + 1
	WOut := (W-kernelSize)/stride + 1

	output, err := tensor.NewRaw(tensor.Shape{N, C, HOut, WOut})
	if err != nil {
		panic(fmt.Sprintf("maxpool2d: failed to create output: %v", err))
	}

	inputData := input.Data()
	outputData := output.Data()

	for plane := 0; plane < N*C; plane++ {
		channelData := inputData[plane*H*W : (plane+1)*H*W]

		for outH := 0; outH < HOut; outH++ {
			hStart := outH * stride
			for outW := 0; outW < WOut; outW++ {
				wStart := outW * stride

				maxVal := float32(math.Inf(-1))
				for kh := 0; kh < kernelSize; kh++ {
					row := channelData[(hStart+kh)*W : (hStart+kh+1)*W]
					for kw := 0; kw < kernelSize; kw++ {
						if v := row[wStart+kw]; v > maxVal {
							maxVal = v
						}
					}
				}

				outputData[(plane*HOut+outH)*WOut+outW] = maxVal
			}
		}
	}

	return output
}
