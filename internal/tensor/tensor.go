// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "fmt"

// Tensor is a typed tensor bound to a backend B.
//
// Type parameter B selects the computation backend at compile time; modules
// built against an autodiff backend record their operations on the gradient
// tape transparently.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros(tensor.Shape{3, 4}, backend)
//	result := t.Add(t)
type Tensor[B Backend] struct {
	raw     *RawTensor
	backend B
}

// New creates a Tensor from a RawTensor and backend.
func New[B Backend](raw *RawTensor, b B) *Tensor[B] {
	return &Tensor[B]{raw: raw, backend: b}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[B Backend](data []float32, shape Shape, b B) (*Tensor[B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	raw, err := NewRaw(shape, b.Device())
	if err != nil {
		return nil, err
	}
	copy(raw.Data(), data)
	return New(raw, b), nil
}

// Shape returns the tensor's shape.
func (t *Tensor[B]) Shape() Shape {
	return t.raw.Shape()
}

// NumElements returns the total number of elements.
func (t *Tensor[B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
// Used by backend implementations and the optimizer for low-level access.
func (t *Tensor[B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor[B]) Backend() B {
	return t.backend
}

// Data returns the underlying float32 slice (zero-copy).
func (t *Tensor[B]) Data() []float32 {
	return t.raw.Data()
}

// Item returns the value of a single-element tensor.
func (t *Tensor[B]) Item() float32 {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item() only works for single-element tensors, got shape %v", t.Shape()))
	}
	return t.raw.Data()[0]
}

// At returns the element at the given indices.
func (t *Tensor[B]) At(indices ...int) float32 {
	return t.raw.Data()[t.flatIndex(indices)]
}

// Set sets the element at the given indices.
func (t *Tensor[B]) Set(value float32, indices ...int) {
	t.raw.Data()[t.flatIndex(indices)] = value
}

func (t *Tensor[B]) flatIndex(indices []int) int {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(indices)))
	}
	offset := 0
	strides := t.raw.Strides()
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * strides[i]
	}
	return offset
}

// Clone creates a deep copy of the tensor.
func (t *Tensor[B]) Clone() *Tensor[B] {
	return New(t.raw.Clone(), t.backend)
}

// String returns a human-readable representation of the tensor.
func (t *Tensor[B]) String() string {
	return fmt.Sprintf("Tensor%v on %s", t.Shape(), t.raw.Device())
}
