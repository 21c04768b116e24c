// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import "github.com/born-ml/bifpn/internal/tensor"

// AddOp represents element-wise addition a + b (with broadcasting).
type AddOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// NewAddOp creates a new addition operation record.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *AddOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }

// Output returns the output tensor.
func (op *AddOp) Output() *tensor.RawTensor { return op.output }

// Backward: d(a+b)/da = 1, d(a+b)/db = 1. Broadcast dimensions are summed
// back to each operand's shape.
func (op *AddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceTo(outputGrad, op.a.Shape()),
		reduceTo(outputGrad, op.b.Shape()),
	}
}

// SubOp represents element-wise subtraction a - b (with broadcasting).
type SubOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSubOp creates a new subtraction operation record.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *SubOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }

// Output returns the output tensor.
func (op *SubOp) Output() *tensor.RawTensor { return op.output }

// Backward: d(a-b)/da = 1, d(a-b)/db = -1.
func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceTo(outputGrad, op.a.Shape()),
		reduceTo(backend.MulScalar(outputGrad, -1), op.b.Shape()),
	}
}

// MulOp represents element-wise multiplication a * b (with broadcasting).
type MulOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// NewMulOp creates a new multiplication operation record.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *MulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }

// Output returns the output tensor.
func (op *MulOp) Output() *tensor.RawTensor { return op.output }

// Backward: d(a*b)/da = b, d(a*b)/db = a.
func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceTo(backend.Mul(outputGrad, op.b), op.a.Shape()),
		reduceTo(backend.Mul(outputGrad, op.a), op.b.Shape()),
	}
}

// DivOp represents element-wise division a / b (with broadcasting).
type DivOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// NewDivOp creates a new division operation record.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *DivOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }

// Output returns the output tensor.
func (op *DivOp) Output() *tensor.RawTensor { return op.output }

// Backward: d(a/b)/da = 1/b, d(a/b)/db = -a/b².
func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradA := backend.Div(outputGrad, op.b)
	bSquared := backend.Mul(op.b, op.b)
	gradB := backend.MulScalar(backend.Div(backend.Mul(outputGrad, op.a), bSquared), -1)
	return []*tensor.RawTensor{
		reduceTo(gradA, op.a.Shape()),
		reduceTo(gradB, op.b.Shape()),
	}
}
