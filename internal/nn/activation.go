// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/bifpn/internal/tensor"
)

// Activations are stateless; they are exposed as pure functions rather
// than module instances.

// ReLUFunc applies the rectified linear activation max(0, x).
func ReLUFunc[B tensor.Backend](x *tensor.Tensor[B]) *tensor.Tensor[B] {
	return tensor.New(x.Backend().ReLU(x.Raw()), x.Backend())
}

// SigmoidFunc applies the sigmoid activation 1 / (1 + exp(-x)).
func SigmoidFunc[B tensor.Backend](x *tensor.Tensor[B]) *tensor.Tensor[B] {
	return tensor.New(x.Backend().Sigmoid(x.Raw()), x.Backend())
}

// SwishFunc applies the swish activation x * sigmoid(x).
func SwishFunc[B tensor.Backend](x *tensor.Tensor[B]) *tensor.Tensor[B] {
	return tensor.New(x.Backend().Silu(x.Raw()), x.Backend())
}
