// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import "github.com/born-ml/bifpn/internal/tensor"

// Conv2DOp represents a grouped 2D convolution.
type Conv2DOp struct {
	input   *tensor.RawTensor
	kernel  *tensor.RawTensor
	output  *tensor.RawTensor
	stride  int
	padding int
	groups  int
}

// NewConv2DOp creates a new convolution operation record.
func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding, groups int) *Conv2DOp {
	return &Conv2DOp{
		input:   input,
		kernel:  kernel,
		output:  output,
		stride:  stride,
		padding: padding,
		groups:  groups,
	}
}

// Inputs returns the input tensors (input feature map, then kernel).
func (op *Conv2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.kernel}
}

// Output returns the output tensor.
func (op *Conv2DOp) Output() *tensor.RawTensor { return op.output }

// Backward computes input and kernel gradients by scattering each output
// gradient back through the positions its window read, honoring groups.
func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := op.input.Shape()
	kShape := op.kernel.Shape()
	outShape := op.output.Shape()

	N, CIn, H, W := inShape[0], inShape[1], inShape[2], inShape[3]
	COut, CInG, KH, KW := kShape[0], kShape[1], kShape[2], kShape[3]
	HOut, WOut := outShape[2], outShape[3]
	outPerGroup := COut / op.groups

	gradInput := tensor.MustNewRaw(inShape, outputGrad.Device())
	gradKernel := tensor.MustNewRaw(kShape, outputGrad.Device())

	inData := op.input.Data()
	kData := op.kernel.Data()
	giData := gradInput.Data()
	gkData := gradKernel.Data()
	ogData := outputGrad.Data()

	for n := 0; n < N; n++ {
		for oc := 0; oc < COut; oc++ {
			g := oc / outPerGroup
			icBase := g * CInG
			for oh := 0; oh < HOut; oh++ {
				hStart := oh*op.stride - op.padding
				for ow := 0; ow < WOut; ow++ {
					wStart := ow*op.stride - op.padding
					og := ogData[((n*COut+oc)*HOut+oh)*WOut+ow]
					if og == 0 {
						continue
					}

					for ic := 0; ic < CInG; ic++ {
						inPlane := ((n*CIn + icBase + ic) * H) * W
						kPlane := ((oc*CInG + ic) * KH) * KW
						for kh := 0; kh < KH; kh++ {
							h := hStart + kh
							if h < 0 || h >= H {
								continue
							}
							for kw := 0; kw < KW; kw++ {
								w := wStart + kw
								if w < 0 || w >= W {
									continue
								}
								giData[inPlane+h*W+w] += kData[kPlane+kh*KW+kw] * og
								gkData[kPlane+kh*KW+kw] += inData[inPlane+h*W+w] * og
							}
						}
					}
				}
			}
		}
	}

	return []*tensor.RawTensor{gradInput, gradKernel}
}
