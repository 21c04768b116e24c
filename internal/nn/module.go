// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn implements the neural-network building blocks used by the
// BiFPN neck:
//   - Module interface and Parameter: trainable state with gradient lookup
//   - Conv2D: grouped 2D convolution (depthwise when groups == in channels)
//   - BatchNorm2d: per-channel batch normalization with running statistics
//   - SeparableConv2d: depthwise + pointwise convolution with normalization
//   - activation helpers and weight initializers
package nn

import (
	"github.com/born-ml/bifpn/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[B]) *tensor.Tensor[B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Modules without trainable
	// parameters return an empty slice.
	Parameters() []*Parameter[B]
}

// Initializable is implemented by modules whose parameters can be
// re-initialized in place after construction. Initialization is an
// explicit call, separate from construction, so a caller can build a
// model, load weights, or re-draw them before training from scratch.
type Initializable interface {
	InitWeights()
}
