// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/bifpn/internal/tensor"
)

// SeparableConv2d is a depthwise-separable convolution block: a depthwise
// spatial convolution (one filter per input channel, no cross-channel
// mixing) followed by a pointwise 1x1 convolution that mixes channels and
// maps to the output channel count, with batch normalization after the
// pointwise step. No bias, no activation.
type SeparableConv2d[B tensor.Backend] struct {
	depthwise *Conv2D[B]
	pointwise *Conv2D[B]
	norm      *BatchNorm2d[B]
}

// NewSeparableConv2d creates a separable convolution block.
//
// kernelSize/padding apply to the depthwise step; the pointwise step is
// always 1x1. The normalization uses momentum 0.003 and eps 1e-4, the
// convention of the fusion stack.
func NewSeparableConv2d[B tensor.Backend](inChannels, outChannels, kernelSize, padding int, backend B) *SeparableConv2d[B] {
	return &SeparableConv2d[B]{
		depthwise: NewConv2D(inChannels, inChannels, kernelSize, kernelSize, 1, padding, inChannels, false, backend),
		pointwise: NewConv2D(inChannels, outChannels, 1, 1, 1, 0, 1, false, backend),
		norm:      NewBatchNorm2d(outChannels, 0.003, 1e-4, backend),
	}
}

// Forward applies depthwise, pointwise, then normalization.
func (s *SeparableConv2d[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	x := s.depthwise.Forward(input)
	x = s.pointwise.Forward(x)
	return s.norm.Forward(x)
}

// Parameters returns all trainable parameters.
func (s *SeparableConv2d[B]) Parameters() []*Parameter[B] {
	params := s.depthwise.Parameters()
	params = append(params, s.pointwise.Parameters()...)
	params = append(params, s.norm.Parameters()...)
	return params
}

// InitWeights re-initializes both convolutions and the normalization.
func (s *SeparableConv2d[B]) InitWeights() {
	s.depthwise.InitWeights()
	s.pointwise.InitWeights()
	s.norm.InitWeights()
}

// SetTraining propagates the training flag to the normalization layer.
func (s *SeparableConv2d[B]) SetTraining(training bool) {
	s.norm.SetTraining(training)
}

// Norm returns the normalization layer.
func (s *SeparableConv2d[B]) Norm() *BatchNorm2d[B] {
	return s.norm
}
