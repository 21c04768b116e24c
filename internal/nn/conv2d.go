// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"fmt"

	"github.com/born-ml/bifpn/internal/tensor"
)

// Conv2D is a 2D convolutional layer with optional channel groups.
//
// Input shape:  [batch, in_channels, height, width]
// Weight shape: [out_channels, in_channels/groups, kernel_h, kernel_w]
// Bias shape:   [out_channels]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Where:
//
//	out_h = (height + 2*padding - kernel_h) / stride + 1
//	out_w = (width + 2*padding - kernel_w) / stride + 1
//
// groups == 1 is a standard convolution; groups == inChannels is a
// depthwise convolution (one spatial filter per channel, no cross-channel
// mixing).
type Conv2D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	kernelSize  [2]int
	stride      int
	padding     int
	groups      int
	useBias     bool

	weight *Parameter[B]
	bias   *Parameter[B] // nil when useBias is false

	backend B
}

// NewConv2D creates a new 2D convolutional layer with Kaiming
// initialization.
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding, groups int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelH <= 0 || kernelW <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size h=%d, w=%d", kernelH, kernelW))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %d", padding))
	}
	if groups <= 0 || inChannels%groups != 0 || outChannels%groups != 0 {
		panic(fmt.Sprintf("conv2d: groups %d must divide in_channels %d and out_channels %d",
			groups, inChannels, outChannels))
	}

	weightShape := tensor.Shape{outChannels, inChannels / groups, kernelH, kernelW}
	fanIn := (inChannels / groups) * kernelH * kernelW
	weight := Kaiming(fanIn, weightShape, backend)

	var biasParam *Parameter[B]
	if useBias {
		biasParam = NewParameter("conv2d.bias", Zeros(tensor.Shape{outChannels}, backend))
	}

	return &Conv2D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  [2]int{kernelH, kernelW},
		stride:      stride,
		padding:     padding,
		groups:      groups,
		useBias:     useBias,
		weight:      NewParameter("conv2d.weight", weight),
		bias:        biasParam,
		backend:     backend,
	}
}

// Forward performs the forward pass.
//
// Input: [batch, in_channels, height, width]
// Output: [batch, out_channels, out_h, out_w].
func (c *Conv2D[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if inputShape[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: input channels %d != expected %d", inputShape[1], c.inChannels))
	}

	outputRaw := c.backend.Conv2D(
		input.Raw(),
		c.weight.Tensor().Raw(),
		c.stride,
		c.padding,
		c.groups,
	)
	output := tensor.New(outputRaw, c.backend)

	if c.useBias {
		// Reshape bias to [1, out_channels, 1, 1] for broadcasting.
		biasReshaped := c.bias.Tensor().Reshape(1, c.outChannels, 1, 1)
		output = output.Add(biasReshaped)
	}

	return output
}

// Parameters returns all trainable parameters.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	if c.useBias {
		return []*Parameter[B]{c.weight, c.bias}
	}
	return []*Parameter[B]{c.weight}
}

// InitWeights re-draws the kernel from the Kaiming distribution and zeros
// the bias. Each call produces fresh random values.
func (c *Conv2D[B]) InitWeights() {
	fanIn := (c.inChannels / c.groups) * c.kernelSize[0] * c.kernelSize[1]
	KaimingFill(c.weight.Tensor(), fanIn)
	if c.useBias {
		ConstantFill(c.bias.Tensor(), 0)
	}
}

// String returns a string representation of the layer.
func (c *Conv2D[B]) String() string {
	return fmt.Sprintf("Conv2D(in_channels=%d, out_channels=%d, kernel_size=(%d, %d), stride=%d, padding=%d, groups=%d, bias=%v)",
		c.inChannels, c.outChannels,
		c.kernelSize[0], c.kernelSize[1],
		c.stride, c.padding, c.groups, c.useBias)
}

// OutChannels returns the number of output channels.
func (c *Conv2D[B]) OutChannels() int {
	return c.outChannels
}

// InChannels returns the number of input channels.
func (c *Conv2D[B]) InChannels() int {
	return c.inChannels
}

// Groups returns the channel group count.
func (c *Conv2D[B]) Groups() int {
	return c.groups
}

// KernelSize returns the kernel size [height, width].
func (c *Conv2D[B]) KernelSize() [2]int {
	return c.kernelSize
}

// Weight returns the kernel parameter.
func (c *Conv2D[B]) Weight() *Parameter[B] {
	return c.weight
}
