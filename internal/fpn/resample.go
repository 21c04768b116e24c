// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package fpn

import (
	"fmt"

	"github.com/born-ml/bifpn/internal/nn"
	"github.com/born-ml/bifpn/internal/tensor"
)

// Resample brings a feature map to a given channel count and square
// spatial size. Channels are reconciled by a 1x1 convolution; the spatial
// size by nearest-neighbor upsampling (when the input is smaller than the
// target in both dimensions) or max pooling (when it is larger in both).
//
// Downsampling requires both input dimensions to be divisible by the
// target size; the pooling stride is input/target and the kernel is
// stride+1 with padding 1, so neighboring windows overlap by one row and
// column. Inputs that are larger in one dimension and smaller in the
// other cannot be resolved and cause a panic.
type Resample[B tensor.Backend] struct {
	conv *nn.Conv2D[B]
	norm *nn.BatchNorm2d[B] // nil unless withNorm

	outChannels   int
	targetSize    int
	normTrainable bool
	backend       B
}

// NewResample creates a resampling block projecting inChannels to
// outChannels at the square spatial size target. When withNorm is true a
// batch normalization configured by norm follows the projection; the
// fusion layers leave it off because normalization already happens inside
// their separable convolutions.
func NewResample[B tensor.Backend](inChannels, outChannels, target int, withNorm bool, norm NormConfig, backend B) *Resample[B] {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("resample: invalid channel counts in=%d out=%d", inChannels, outChannels))
	}
	if target <= 0 {
		panic(fmt.Sprintf("resample: invalid target size %d", target))
	}

	r := &Resample[B]{
		conv:          nn.NewConv2D(inChannels, outChannels, 1, 1, 1, 0, 1, true, backend),
		outChannels:   outChannels,
		targetSize:    target,
		normTrainable: norm.RequiresGrad,
		backend:       backend,
	}
	if withNorm {
		r.norm = nn.NewBatchNorm2d(outChannels, norm.Momentum, norm.Epsilon, backend)
	}
	return r
}

// Forward projects the input and resizes it to the target spatial size.
func (r *Resample[B]) Forward(x *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("resample: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}

	out := r.conv.Forward(x)
	if r.norm != nil {
		out = r.norm.Forward(out)
	}

	h, w := shape[2], shape[3]
	t := r.targetSize
	switch {
	case h == t && w == t:
		return out
	case h < t && w < t:
		return tensor.New(r.backend.UpsampleNearest(out.Raw(), t, t), r.backend)
	case h > t && w > t:
		if h%t != 0 || w%t != 0 {
			panic(fmt.Sprintf("resample: input size %dx%d not divisible by target %d", h, w, t))
		}
		stride := w / t
		return tensor.New(r.backend.MaxPool2D(out.Raw(), stride+1, stride, 1), r.backend)
	default:
		panic(fmt.Sprintf("resample: asymmetric resize from %dx%d to %dx%d is not supported", h, w, t, t))
	}
}

// Parameters returns the trainable parameters of the block.
func (r *Resample[B]) Parameters() []*nn.Parameter[B] {
	params := r.conv.Parameters()
	if r.norm != nil && r.normTrainable {
		params = append(params, r.norm.Parameters()...)
	}
	return params
}

// InitWeights re-initializes the projection convolution and, if present,
// the normalization layer.
func (r *Resample[B]) InitWeights() {
	r.conv.InitWeights()
	if r.norm != nil {
		r.norm.InitWeights()
	}
}

// SetTraining propagates the training flag.
func (r *Resample[B]) SetTraining(training bool) {
	if r.norm != nil {
		r.norm.SetTraining(training)
	}
}

// OutChannels returns the channel count the block produces.
func (r *Resample[B]) OutChannels() int {
	return r.outChannels
}

// TargetSize returns the square spatial size the block produces.
func (r *Resample[B]) TargetSize() int {
	return r.targetSize
}

// String returns a string representation of the block.
func (r *Resample[B]) String() string {
	return fmt.Sprintf("Resample(out_channels=%d, target_size=%d, norm=%v)",
		r.outChannels, r.targetSize, r.norm != nil)
}
