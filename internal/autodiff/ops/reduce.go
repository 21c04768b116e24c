// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import "github.com/born-ml/bifpn/internal/tensor"

// SumOp represents a total-sum reduction to shape [1].
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a new sum operation record.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *SumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor.
func (op *SumOp) Output() *tensor.RawTensor { return op.output }

// Backward broadcasts the scalar gradient to every input element.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := tensor.MustNewRaw(op.input.Shape(), outputGrad.Device())
	g := outputGrad.Data()[0]
	gradData := grad.Data()
	for i := range gradData {
		gradData[i] = g
	}
	return []*tensor.RawTensor{grad}
}

// ChannelMeanOp represents the per-channel mean of an NCHW tensor over the
// batch and spatial dimensions, producing shape [C].
type ChannelMeanOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewChannelMeanOp creates a new channel-mean operation record.
func NewChannelMeanOp(input, output *tensor.RawTensor) *ChannelMeanOp {
	return &ChannelMeanOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *ChannelMeanOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor.
func (op *ChannelMeanOp) Output() *tensor.RawTensor { return op.output }

// Backward distributes each channel's gradient uniformly over the N*H*W
// positions that contributed to its mean.
func (op *ChannelMeanOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	N, C, H, W := shape[0], shape[1], shape[2], shape[3]
	plane := H * W
	count := float32(N * plane)

	grad := tensor.MustNewRaw(shape, outputGrad.Device())
	gradData := grad.Data()
	outGradData := outputGrad.Data()

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			g := outGradData[c] / count
			base := (n*C + c) * plane
			for i := 0; i < plane; i++ {
				gradData[base+i] = g
			}
		}
	}
	return []*tensor.RawTensor{grad}
}
