// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"fmt"

	"github.com/born-ml/bifpn/internal/tensor"
)

// BatchNorm2d applies per-channel batch normalization over an NCHW tensor.
//
// Formula: Y = gamma * (X - mean) / sqrt(var + eps) + beta
//
// In training mode the statistics come from the current batch (over the
// batch and spatial dimensions) and the running statistics are updated with
//
//	running = (1 - momentum) * running + momentum * batch
//
// In eval mode the running statistics are used as constants. The fusion
// stack configures momentum = 0.003 and eps = 1e-4 (near-frozen running
// statistics, the EfficientDet convention).
type BatchNorm2d[B tensor.Backend] struct {
	Gamma    *Parameter[B] // learnable scale [C]
	Beta     *Parameter[B] // learnable shift [C]
	Momentum float32
	Epsilon  float32

	numFeatures int
	training    bool
	runningMean []float32 // [C], updated outside the op graph
	runningVar  []float32 // [C]
	backend     B
}

// NewBatchNorm2d creates a new BatchNorm2d layer.
//
// gamma is initialized to ones, beta to zeros, running mean to zero and
// running variance to one. The layer starts in training mode.
func NewBatchNorm2d[B tensor.Backend](numFeatures int, momentum, epsilon float32, backend B) *BatchNorm2d[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid feature count %d", numFeatures))
	}

	runningVar := make([]float32, numFeatures)
	for i := range runningVar {
		runningVar[i] = 1
	}

	return &BatchNorm2d[B]{
		Gamma:       NewParameter("gamma", Ones(tensor.Shape{numFeatures}, backend)),
		Beta:        NewParameter("beta", Zeros(tensor.Shape{numFeatures}, backend)),
		Momentum:    momentum,
		Epsilon:     epsilon,
		numFeatures: numFeatures,
		training:    true,
		runningMean: make([]float32, numFeatures),
		runningVar:  runningVar,
		backend:     backend,
	}
}

// SetTraining switches between batch statistics (true) and running
// statistics (false).
func (bn *BatchNorm2d[B]) SetTraining(training bool) {
	bn.training = training
}

// Forward applies batch normalization to an NCHW tensor.
func (bn *BatchNorm2d[B]) Forward(x *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("batchnorm2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != bn.numFeatures {
		panic(fmt.Sprintf("batchnorm2d: input channels %d != expected %d", shape[1], bn.numFeatures))
	}

	var mean, variance *tensor.Tensor[B]
	if bn.training {
		// Batch statistics, computed through the op graph so gradients
		// flow through the normalization.
		mean = tensor.New(bn.backend.ChannelMean(x.Raw()), bn.backend)
		centered := x.Sub(mean.Reshape(1, bn.numFeatures, 1, 1))
		variance = tensor.New(bn.backend.ChannelMean(centered.Mul(centered).Raw()), bn.backend)
		bn.updateRunningStats(mean.Data(), variance.Data())
	} else {
		mean = bn.constant(bn.runningMean)
		variance = bn.constant(bn.runningVar)
	}

	std := tensor.New(bn.backend.Sqrt(variance.AddScalar(bn.Epsilon).Raw()), bn.backend)

	xNorm := x.Sub(mean.Reshape(1, bn.numFeatures, 1, 1)).
		Div(std.Reshape(1, bn.numFeatures, 1, 1))

	gamma := bn.Gamma.Tensor().Reshape(1, bn.numFeatures, 1, 1)
	beta := bn.Beta.Tensor().Reshape(1, bn.numFeatures, 1, 1)
	return xNorm.Mul(gamma).Add(beta)
}

// updateRunningStats folds the batch statistics into the running buffers.
// This is plain state mutation, never part of the gradient graph.
func (bn *BatchNorm2d[B]) updateRunningStats(batchMean, batchVar []float32) {
	m := bn.Momentum
	for i := range bn.runningMean {
		bn.runningMean[i] = (1-m)*bn.runningMean[i] + m*batchMean[i]
		bn.runningVar[i] = (1-m)*bn.runningVar[i] + m*batchVar[i]
	}
}

func (bn *BatchNorm2d[B]) constant(values []float32) *tensor.Tensor[B] {
	t := tensor.Zeros(tensor.Shape{bn.numFeatures}, bn.backend)
	copy(t.Data(), values)
	return t
}

// Parameters returns the learnable parameters (gamma and beta).
func (bn *BatchNorm2d[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.Gamma, bn.Beta}
}

// InitWeights resets gamma to 1, beta to 0, and the running statistics to
// their initial values.
func (bn *BatchNorm2d[B]) InitWeights() {
	ConstantFill(bn.Gamma.Tensor(), 1)
	ConstantFill(bn.Beta.Tensor(), 0)
	for i := range bn.runningMean {
		bn.runningMean[i] = 0
		bn.runningVar[i] = 1
	}
}

// RunningMean returns the running mean buffer (read-only use).
func (bn *BatchNorm2d[B]) RunningMean() []float32 {
	return bn.runningMean
}

// RunningVar returns the running variance buffer (read-only use).
func (bn *BatchNorm2d[B]) RunningVar() []float32 {
	return bn.runningVar
}

// String returns a string representation of the layer.
func (bn *BatchNorm2d[B]) String() string {
	return fmt.Sprintf("BatchNorm2d(num_features=%d, momentum=%g, eps=%g)",
		bn.numFeatures, bn.Momentum, bn.Epsilon)
}
