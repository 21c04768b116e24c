// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import "github.com/born-ml/bifpn/internal/tensor"

// UpsampleNearestOp represents nearest-neighbor spatial upsampling.
type UpsampleNearestOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewUpsampleNearestOp creates a new upsampling operation record.
func NewUpsampleNearestOp(input, output *tensor.RawTensor) *UpsampleNearestOp {
	return &UpsampleNearestOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *UpsampleNearestOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor.
func (op *UpsampleNearestOp) Output() *tensor.RawTensor { return op.output }

// Backward accumulates each output position's gradient into the input
// pixel it was copied from, using the same floor mapping as the forward
// pass.
func (op *UpsampleNearestOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := op.input.Shape()
	outShape := op.output.Shape()
	N, C, H, W := inShape[0], inShape[1], inShape[2], inShape[3]
	HOut, WOut := outShape[2], outShape[3]

	grad := tensor.MustNewRaw(inShape, outputGrad.Device())
	gradData := grad.Data()
	ogData := outputGrad.Data()

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			inPlane := (n*C + c) * H * W
			outPlane := (n*C + c) * HOut * WOut
			for oh := 0; oh < HOut; oh++ {
				srcRow := inPlane + (oh*H/HOut)*W
				outRow := outPlane + oh*WOut
				for ow := 0; ow < WOut; ow++ {
					gradData[srcRow+ow*W/WOut] += ogData[outRow+ow]
				}
			}
		}
	}

	return []*tensor.RawTensor{grad}
}
