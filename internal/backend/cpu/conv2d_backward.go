package cpu

import (
	"fmt"

	"github.com/born-ml/saliency/internal/parallel"
	"github.com/born-ml/saliency/internal/tensor"
)

// Conv2DInputBackward computes the gradient w.r.t. input using transposed convolution.
//
// For each input position (n, c_in, h, w), it sums the contributions of every
// output position that read it:
//
//	grad[n, c_out, h_out, w_out] * kernel[c_out, c_in, kh, kw]
//
// Work is split over (batch, in_channel) planes, so every sample's gradient
// is computed independently of the rest of the batch.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	d := newConv2DDims("conv2d input backward", input.Shape(), kernel.Shape(), stride, padding)
	checkConvGrad(grad, d)

	inputGrad, err := tensor.NewRaw(input.Shape())
	if err != nil {
		panic(fmt.Sprintf("conv2d input backward: failed to create gradient tensor: %v", err))
	}

	gradData := grad.Data()
	kernelData := kernel.Data()
	inputGradData := inputGrad.Data()

	parallel.ForBatch(d.n, d.cIn, func(b, ci int) {
		plane := inputGradData[(b*d.cIn+ci)*d.h*d.w : (b*d.cIn+ci+1)*d.h*d.w]
		gradBatch := gradData[b*d.cOut*d.hOut*d.wOut : (b+1)*d.cOut*d.hOut*d.wOut]

		for co := 0; co < d.cOut; co++ {
			gradChan := gradBatch[co*d.hOut*d.wOut : (co+1)*d.hOut*d.wOut]
			kOff := (co*d.cIn + ci) * d.kH * d.kW
			kChan := kernelData[kOff : kOff+d.kH*d.kW]

			for oh := 0; oh < d.hOut; oh++ {
				for ow := 0; ow < d.wOut; ow++ {
					g := gradChan[oh*d.wOut+ow]
					if g == 0 {
						continue
					}
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
							plane[ih*d.w+iw] += g * kChan[kh*d.kW+kw]
						}
					}
				}
			}
		}
	}, cpu.parallel)

	return inputGrad
}

// Conv2DKernelBackward computes the gradient w.r.t. the kernel:
//
//	dK[c_out, c_in, kh, kw] = sum over n, h_out, w_out of
//	    grad[n, c_out, h_out, w_out] * input[n, c_in, h_out*stride-padding+kh, w_out*stride-padding+kw]
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	d := newConv2DDims("conv2d kernel backward", input.Shape(), kernel.Shape(), stride, padding)
	checkConvGrad(grad, d)

	kernelGrad, err := tensor.NewRaw(kernel.Shape())
	if err != nil {
		panic(fmt.Sprintf("conv2d kernel backward: failed to create gradient tensor: %v", err))
	}

	inputData := input.Data()
	gradData := grad.Data()
	kernelGradData := kernelGrad.Data()

	parallel.ForBatch(d.cOut, d.cIn, func(co, ci int) {
		kOff := (co*d.cIn + ci) * d.kH * d.kW
		kChan := kernelGradData[kOff : kOff+d.kH*d.kW]

		for b := 0; b < d.n; b++ {
			inChan := inputData[(b*d.cIn+ci)*d.h*d.w : (b*d.cIn+ci+1)*d.h*d.w]
			gradChan := gradData[(b*d.cOut+co)*d.hOut*d.wOut : (b*d.cOut+co+1)*d.hOut*d.wOut]

			for kh := 0; kh < d.kH; kh++ {
				for kw := 0; kw < d.kW; kw++ {
					sum := float32(0)
					for oh := 0; oh < d.hOut; oh++ {
						ih := oh*d.stride - d.padding + kh
						if ih < 0 || ih >= d.h {
							continue
						}
						for ow := 0; ow < d.wOut; ow++ {
							iw := ow*d.stride - d.padding + kw
							if iw < 0 || iw >= d.w {
								continue
							}
							sum += gradChan[oh*d.wOut+ow] * inChan[ih*d.w+iw]
						}
					}
					kChan[kh*d.kW+kw] += sum
				}
			}
		}
	}, cpu.parallel)

	return kernelGrad
}

func checkConvGrad(grad *tensor.RawTensor, d conv2dDims) {
	want := tensor.Shape{d.n, d.cOut, d.hOut, d.wOut}
	if !grad.Shape().Equal(want) {
		panic(fmt.Sprintf("conv2d backward: gradient shape %v != expected %v", grad.Shape(), want))
	}
}
