// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

// Add performs element-wise addition with broadcasting.
func (t *Tensor[B]) Add(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[B]) Sub(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[B]) Mul(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[B]) Div(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.Div(t.raw, other.raw), t.backend)
}

// AddScalar adds a scalar to every element.
func (t *Tensor[B]) AddScalar(s float32) *Tensor[B] {
	return New(t.backend.AddScalar(t.raw, s), t.backend)
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[B]) MulScalar(s float32) *Tensor[B] {
	return New(t.backend.MulScalar(t.raw, s), t.backend)
}

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements.
func (t *Tensor[B]) Reshape(newShape ...int) *Tensor[B] {
	return New(t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Slice returns elements [start, start+length) of a 1-D tensor.
func (t *Tensor[B]) Slice(start, length int) *Tensor[B] {
	return New(t.backend.Slice(t.raw, start, length), t.backend)
}

// Sum reduces the tensor to its total sum, shape [1].
func (t *Tensor[B]) Sum() *Tensor[B] {
	return New(t.backend.Sum(t.raw), t.backend)
}
