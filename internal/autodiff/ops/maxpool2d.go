// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import "github.com/born-ml/bifpn/internal/tensor"

// MaxPool2DOp represents 2D max pooling with border padding.
type MaxPool2DOp struct {
	input      *tensor.RawTensor
	output     *tensor.RawTensor
	kernelSize int
	stride     int
	padding    int
}

// NewMaxPool2DOp creates a new max-pooling operation record.
func NewMaxPool2DOp(input, output *tensor.RawTensor, kernelSize, stride, padding int) *MaxPool2DOp {
	return &MaxPool2DOp{
		input:      input,
		output:     output,
		kernelSize: kernelSize,
		stride:     stride,
		padding:    padding,
	}
}

// Inputs returns the input tensors.
func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor.
func (op *MaxPool2DOp) Output() *tensor.RawTensor { return op.output }

// Backward routes each window's gradient to the position that held the
// maximum, recomputing the argmax from the stored input. Padded positions
// never receive gradient.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := op.input.Shape()
	outShape := op.output.Shape()
	N, C, H, W := inShape[0], inShape[1], inShape[2], inShape[3]
	HOut, WOut := outShape[2], outShape[3]

	grad := tensor.MustNewRaw(inShape, outputGrad.Device())
	inData := op.input.Data()
	gradData := grad.Data()
	ogData := outputGrad.Data()

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			channelOffset := (n*C + c) * H * W
			for outH := 0; outH < HOut; outH++ {
				hStart := outH*op.stride - op.padding
				for outW := 0; outW < WOut; outW++ {
					wStart := outW*op.stride - op.padding

					maxVal := float32(-1e38)
					maxIdx := -1
					for kh := 0; kh < op.kernelSize; kh++ {
						h := hStart + kh
						if h < 0 || h >= H {
							continue
						}
						for kw := 0; kw < op.kernelSize; kw++ {
							w := wStart + kw
							if w < 0 || w >= W {
								continue
							}
							idx := channelOffset + h*W + w
							if inData[idx] > maxVal {
								maxVal = inData[idx]
								maxIdx = idx
							}
						}
					}
					if maxIdx >= 0 {
						gradData[maxIdx] += ogData[((n*C+c)*HOut+outH)*WOut+outW]
					}
				}
			}
		}
	}

	return []*tensor.RawTensor{grad}
}
