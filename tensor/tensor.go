// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor operations.
//
// The package defines the core types of the fusion stack:
//   - Tensor[B]: typed float32 tensor bound to a compute backend
//   - RawTensor: low-level flat buffer plus shape and strides
//   - Backend: interface for device-specific compute implementations
//   - Shape, Device: core type definitions
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros(tensor.Shape{2, 3}, backend)
//	y := tensor.Ones(tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
package tensor

import (
	"github.com/born-ml/bifpn/internal/tensor"
)

// Type aliases for the public API.

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU Device = tensor.CPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{1, 64, 32, 32} is an NCHW feature map.
type Shape = tensor.Shape

// Backend is the compute-backend interface.
type Backend = tensor.Backend

// Tensor is a typed float32 tensor bound to a backend B.
type Tensor[B Backend] = tensor.Tensor[B]

// RawTensor is the low-level tensor representation backends operate on.
type RawTensor = tensor.RawTensor

// BroadcastShapes computes the result shape of broadcasting a with b,
// following NumPy rules. The boolean reports whether any broadcasting is
// actually needed.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}

// New creates a Tensor from a RawTensor and backend.
func New[B Backend](raw *RawTensor, b B) *Tensor[B] {
	return tensor.New(raw, b)
}

// NewRaw creates a new zero-filled RawTensor with the given shape.
func NewRaw(shape Shape, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, device)
}

// FromSlice creates a tensor from a Go slice. The slice is copied.
func FromSlice[B Backend](data []float32, shape Shape, b B) (*Tensor[B], error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[B Backend](shape Shape, b B) *Tensor[B] {
	return tensor.Zeros(shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[B Backend](shape Shape, b B) *Tensor[B] {
	return tensor.Ones(shape, b)
}

// Full creates a tensor filled with a specific value.
func Full[B Backend](shape Shape, value float32, b B) *Tensor[B] {
	return tensor.Full(shape, value, b)
}

// Randn creates a tensor with standard-normal random values.
func Randn[B Backend](shape Shape, b B) *Tensor[B] {
	return tensor.Randn(shape, b)
}

// Rand creates a tensor with uniform random values in [0, 1).
func Rand[B Backend](shape Shape, b B) *Tensor[B] {
	return tensor.Rand(shape, b)
}

// RoundTripFloat16 returns a copy of the tensor with every element
// rounded through IEEE 754 half precision.
func RoundTripFloat16(r *RawTensor) *RawTensor {
	return tensor.RoundTripFloat16(r)
}
