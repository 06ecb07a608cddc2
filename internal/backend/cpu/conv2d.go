package cpu

import (
	"fmt"

	"github.com/born-ml/saliency/internal/parallel"
	"github.com/born-ml/saliency/internal/tensor"
)

// conv2dDims holds the dimensions shared by the forward and backward kernels.
type conv2dDims struct {
	n, cIn, h, w    int
	cOut, kH, kW    int
	hOut, wOut      int
	stride, padding int
}

// newConv2DDims validates shapes and computes output dimensions.
func newConv2DDims(op string, inputShape, kernelShape tensor.Shape, stride, padding int) conv2dDims {
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: input must be 4D [N,C,H,W], got %dD", op, len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("%s: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", op, len(kernelShape)))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("%s: invalid stride %d / padding %d", op, stride, padding))
	}
	if inputShape[1] != kernelShape[1] {
		panic(fmt.Sprintf("%s: input channels %d != kernel channels %d", op, inputShape[1], kernelShape[1]))
	}

	d := conv2dDims{
		n: inputShape[0], cIn: inputShape[1], h: inputShape[2], w: inputShape[3],
		cOut: kernelShape[0], kH: kernelShape[2], kW: kernelShape[3],
		stride: stride, padding: padding,
	}
	d.hOut = (d.h+2*padding-d.kH)/stride + 1
	d.wOut = (d.w+2*padding-d.kW)/stride + 1

	if d.hOut <= 0 || d.wOut <= 0 {
		panic(fmt.Sprintf("%s: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", op, d.hOut, d.wOut))
	}
	return d
}

// Conv2D performs a direct 2D convolution.
//
// Input shape:  [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
//	out_h = (height + 2*padding - kernel_h) / stride + 1
//	out_w = (width + 2*padding - kernel_w) / stride + 1
//
// Each (batch, out_channel) plane is computed independently and in parallel.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	d := newConv2DDims("conv2d", input.Shape(), kernel.Shape(), stride, padding)

	output, err := tensor.NewRaw(tensor.Shape{d.n, d.cOut, d.hOut, d.wOut})
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	inputData := input.Data()
	kernelData := kernel.Data()
	outputData := output.Data()

	parallel.ForBatch(d.n, d.cOut, func(b, co int) {
		inBatch := inputData[b*d.cIn*d.h*d.w : (b+1)*d.cIn*d.h*d.w]
		kOut := kernelData[co*d.cIn*d.kH*d.kW : (co+1)*d.cIn*d.kH*d.kW]
		plane := outputData[(b*d.cOut+co)*d.hOut*d.wOut : (b*d.cOut+co+1)*d.hOut*d.wOut]

		for oh := 0; oh < d.hOut; oh++ {
			for ow := 0; ow < d.wOut; ow++ {
				sum := float32(0)
				for ci := 0; ci < d.cIn; ci++ {
					inChan := inBatch[ci*d.h*d.w : (ci+1)*d.h*d.w]
					kChan := kOut[ci*d.kH*d.kW : (ci+1)*d.kH*d.kW]
					for kh := 0; kh < d.kH; kh++ {
						ih := oh*d.stride - d.padding + kh
						if ih < 0 || ih >= d.h {
							continue
						}
						for kw := 0; kw < d.kW; kw++ {
							iw := ow*d.stride - d.padding + kw
							if iw < 0 || iw >= d.w {
								continue
							}
							sum += inChan[ih*d.w+iw] * kChan[kh*d.kW+kw]
						}
					}
				}
				plane[oh*d.wOut+ow] = sum
			}
		}
	}, cpu.parallel)

	return output
}
