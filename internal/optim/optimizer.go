// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim implements optimization algorithms for training the
// fusion neck.
//
// Gradients are produced by the autodiff tape as a map from parameter
// raw tensors to gradient raw tensors; optimizers consume that map and
// update parameters in place.
//
// Example usage:
//
//	optimizer := optim.NewSGD(neck.Parameters(), optim.SGDConfig{LR: 0.01}, backend)
//
//	backend.Tape().StartRecording()
//	outs := neck.Forward(inputs)
//	loss := computeLoss(outs)
//	grads := backend.Tape().Backward(seed, backend.Inner())
//	backend.Tape().StopRecording()
//	backend.Tape().Clear()
//
//	optimizer.Step(grads)
package optim

import (
	"github.com/born-ml/bifpn/internal/nn"
	"github.com/born-ml/bifpn/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters. Parameters absent
	// from the gradient map are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// GetLR returns the current learning rate.
	GetLR() float32
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // learning rate
}

// getGradient retrieves the gradient recorded for a parameter, or nil if
// the parameter did not participate in the forward pass.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
