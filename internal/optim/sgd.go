// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"fmt"

	"github.com/born-ml/bifpn/internal/nn"
	"github.com/born-ml/bifpn/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter[B]]*tensor.Tensor[B]
	backend    B
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float32 // learning rate (default 0.01)
	Momentum float32 // momentum factor in [0, 1), default 0
}

// NewSGD creates a new SGD optimizer over the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]]*tensor.Tensor[B]),
		backend:    backend,
	}
}

// Step performs a single optimization step. Parameters with no gradient
// in the map are skipped.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		gradTensor := tensor.New(grad, s.backend)
		if s.momentum == 0 {
			s.updateParameter(param, gradTensor)
		} else {
			s.updateParameterWithMomentum(param, gradTensor)
		}
	}
}

// updateParameter performs the plain SGD update.
func (s *SGD[B]) updateParameter(param *nn.Parameter[B], grad *tensor.Tensor[B]) {
	updated := param.Tensor().Sub(grad.MulScalar(s.lr))
	copy(param.Tensor().Data(), updated.Data())
}

// updateParameterWithMomentum performs the momentum update, lazily
// initializing the velocity buffer on first use.
func (s *SGD[B]) updateParameterWithMomentum(param *nn.Parameter[B], grad *tensor.Tensor[B]) {
	velocity, exists := s.velocities[param]
	if !exists {
		velocity = tensor.Zeros(param.Tensor().Shape(), s.backend)
		s.velocities[param] = velocity
	}

	newVelocity := velocity.MulScalar(s.momentum).Add(grad)
	copy(velocity.Data(), newVelocity.Data())

	updated := param.Tensor().Sub(velocity.MulScalar(s.lr))
	copy(param.Tensor().Data(), updated.Data())
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate, for scheduling during training.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}

// StateDict exports the velocity buffers for serialization. Without
// momentum the map is empty.
//
// State keys: "velocity.{param_index}" -> velocity tensor.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	if s.momentum == 0 {
		return stateDict
	}

	for i, param := range s.params {
		velocity, exists := s.velocities[param]
		if !exists {
			continue
		}
		stateDict[fmt.Sprintf("velocity.%d", i)] = velocity.Raw()
	}
	return stateDict
}

// LoadStateDict restores velocity buffers exported by StateDict. With
// momentum disabled the state is ignored.
func (s *SGD[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if s.momentum == 0 {
		return nil
	}

	s.velocities = make(map[*nn.Parameter[B]]*tensor.Tensor[B])
	for i, param := range s.params {
		velocityRaw, exists := stateDict[fmt.Sprintf("velocity.%d", i)]
		if !exists {
			continue
		}
		if !velocityRaw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("velocity shape mismatch for parameter %d: expected %v, got %v",
				i, param.Tensor().Shape(), velocityRaw.Shape())
		}
		s.velocities[param] = tensor.New(velocityRaw, s.backend)
	}
	return nil
}
