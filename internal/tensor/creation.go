// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[B Backend](shape Shape, b B) *Tensor[B] {
	raw, err := NewRaw(shape, b.Device())
	if err != nil {
		panic(err)
	}
	return New(raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[B Backend](shape Shape, b B) *Tensor[B] {
	return Full(shape, 1, b)
}

// Full creates a tensor filled with a specific value.
func Full[B Backend](shape Shape, value float32, b B) *Tensor[B] {
	t := Zeros(shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with random values from a normal distribution
// (mean=0, std=1) using the Box-Muller transform.
// Note: uses math/rand, appropriate for weight initialization.
func Randn[B Backend](shape Shape, b B) *Tensor[B] {
	t := Zeros(shape, b)
	data := t.Data()
	for i := 0; i < len(data); i += 2 {
		u1 := rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally
		u2 := rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally
		z0 := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
		z1 := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
		data[i] = float32(z0)
		if i+1 < len(data) {
			data[i+1] = float32(z1)
		}
	}
	return t
}

// Rand creates a tensor with random values uniformly distributed in [0, 1).
func Rand[B Backend](shape Shape, b B) *Tensor[B] {
	t := Zeros(shape, b)
	data := t.Data()
	for i := range data {
		data[i] = rand.Float32() //nolint:gosec // G404: ML uses math/rand intentionally
	}
	return t
}
