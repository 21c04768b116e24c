// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for neural network building blocks.
//
// The package exposes the layers the fusion neck is assembled from:
// convolutions (plain, grouped, depthwise-separable), batch
// normalization, and stateless activation functions.
package nn

import (
	"github.com/born-ml/bifpn/internal/nn"
	"github.com/born-ml/bifpn/internal/tensor"
)

// Module is the interface all layers implement.
type Module[B tensor.Backend] = nn.Module[B]

// Initializable is implemented by modules whose parameters can be
// re-initialized in place.
type Initializable = nn.Initializable

// Parameter is a named trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a named parameter wrapping the given tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Conv2D is a 2D convolution layer with optional grouping and bias.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a convolution layer. groups == inChannels gives a
// depthwise convolution.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelH, kernelW, stride, padding, groups int, useBias bool, backend B) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, groups, useBias, backend)
}

// BatchNorm2d applies per-channel batch normalization over NCHW tensors.
type BatchNorm2d[B tensor.Backend] = nn.BatchNorm2d[B]

// NewBatchNorm2d creates a batch normalization layer.
func NewBatchNorm2d[B tensor.Backend](numFeatures int, momentum, epsilon float32, backend B) *BatchNorm2d[B] {
	return nn.NewBatchNorm2d(numFeatures, momentum, epsilon, backend)
}

// SeparableConv2d is a depthwise-separable convolution block with batch
// normalization.
type SeparableConv2d[B tensor.Backend] = nn.SeparableConv2d[B]

// NewSeparableConv2d creates a separable convolution block.
func NewSeparableConv2d[B tensor.Backend](inChannels, outChannels, kernelSize, padding int, backend B) *SeparableConv2d[B] {
	return nn.NewSeparableConv2d(inChannels, outChannels, kernelSize, padding, backend)
}

// ReLUFunc applies the rectified linear activation max(0, x).
func ReLUFunc[B tensor.Backend](x *tensor.Tensor[B]) *tensor.Tensor[B] {
	return nn.ReLUFunc(x)
}

// SigmoidFunc applies the sigmoid activation.
func SigmoidFunc[B tensor.Backend](x *tensor.Tensor[B]) *tensor.Tensor[B] {
	return nn.SigmoidFunc(x)
}

// SwishFunc applies the swish activation x * sigmoid(x).
func SwishFunc[B tensor.Backend](x *tensor.Tensor[B]) *tensor.Tensor[B] {
	return nn.SwishFunc(x)
}

// Kaiming creates a tensor initialized with Kaiming-normal draws for the
// given fan-in.
func Kaiming[B tensor.Backend](fanIn int, shape tensor.Shape, backend B) *tensor.Tensor[B] {
	return nn.Kaiming(fanIn, shape, backend)
}
