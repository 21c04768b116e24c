// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "fmt"

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices. Only CPU is implemented; the Backend
// interface leaves room for accelerator backends.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level tensor representation: a flat float32 buffer
// plus shape and row-major strides. Backends operate on RawTensors; the
// typed Tensor wrapper and the autodiff tape are layered on top.
type RawTensor struct {
	data   []float32
	shape  Shape
	stride []int
	device Device
}

// NewRaw creates a new zero-filled RawTensor with the given shape.
func NewRaw(shape Shape, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &RawTensor{
		data:   make([]float32, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		device: device,
	}, nil
}

// MustNewRaw is NewRaw panicking on invalid shapes. Backends use it for
// result allocation where the shape is computed, not caller-supplied.
func MustNewRaw(shape Shape, device Device) *RawTensor {
	r, err := NewRaw(shape, device)
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// Data returns the underlying float32 slice.
// Modifications to the returned slice modify the tensor.
func (r *RawTensor) Data() []float32 {
	return r.data
}

// Clone creates a deep copy of the RawTensor.
func (r *RawTensor) Clone() *RawTensor {
	c := MustNewRaw(r.shape, r.device)
	copy(c.data, r.data)
	return c
}

// String returns a short description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor%v on %s", r.shape, r.device)
}
