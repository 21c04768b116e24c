// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/bifpn/internal/tensor"
)

// KaimingFill fills a tensor in place with values drawn from the Kaiming
// (He) normal distribution N(0, sqrt(2 / fan_in)).
//
// This fan-in-aware variance scaling keeps activation variance stable
// through layers with rectified nonlinearities, which is what the fusion
// stack uses for every convolution kernel.
func KaimingFill[B tensor.Backend](t *tensor.Tensor[B], fanIn int) {
	std := math.Sqrt(2.0 / float64(fanIn))
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand for weight initialization (not security-critical)
		data[i] = float32(rand.NormFloat64() * std)
	}
}

// Kaiming creates a tensor initialized with the Kaiming normal
// distribution.
func Kaiming[B tensor.Backend](fanIn int, shape tensor.Shape, backend B) *tensor.Tensor[B] {
	t := tensor.Zeros(shape, backend)
	KaimingFill(t, fanIn)
	return t
}

// ConstantFill fills a tensor in place with a single value. Used for
// normalization-layer scale (1) and bias (0) initialization.
func ConstantFill[B tensor.Backend](t *tensor.Tensor[B], value float32) {
	data := t.Data()
	for i := range data {
		data[i] = value
	}
}

// Zeros creates a tensor filled with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[B] {
	return tensor.Zeros(shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[B] {
	return tensor.Ones(shape, backend)
}
