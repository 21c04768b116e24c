// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import "github.com/born-ml/bifpn/internal/tensor"

// ReshapeOp represents a shape change with unchanged data.
//
// Reshape must be recorded even though it only rearranges metadata: the
// backend copies data into a new tensor, and without a record gradients
// would stop at the reshaped copy instead of flowing back to the original
// parameter (e.g. a [C] batch-norm scale reshaped to [1,C,1,1]).
type ReshapeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReshapeOp creates a new reshape operation record.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor.
func (op *ReshapeOp) Output() *tensor.RawTensor { return op.output }

// Backward reshapes the gradient back to the input's shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := tensor.MustNewRaw(op.input.Shape(), outputGrad.Device())
	copy(grad.Data(), outputGrad.Data())
	return []*tensor.RawTensor{grad}
}

// SliceOp represents a 1-D narrow: elements [start, start+length).
type SliceOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	start  int
}

// NewSliceOp creates a new slice operation record.
func NewSliceOp(input, output *tensor.RawTensor, start int) *SliceOp {
	return &SliceOp{input: input, output: output, start: start}
}

// Inputs returns the input tensors.
func (op *SliceOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor.
func (op *SliceOp) Output() *tensor.RawTensor { return op.output }

// Backward scatters the gradient into a zero tensor of the input's shape.
func (op *SliceOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := tensor.MustNewRaw(op.input.Shape(), outputGrad.Device())
	copy(grad.Data()[op.start:op.start+outputGrad.NumElements()], outputGrad.Data())
	return []*tensor.RawTensor{grad}
}
