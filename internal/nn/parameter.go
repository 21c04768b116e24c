// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/bifpn/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters are tensors whose gradients the backward pass produces and
// the optimizer consumes. They are read-only during a forward evaluation;
// only the optimizer mutates them, between evaluations.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[B]
}

// NewParameter creates a new trainable parameter.
// The tensor should be initialized before creating the Parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[B] {
	return p.tensor
}
