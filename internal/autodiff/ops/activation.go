// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import (
	"math"

	"github.com/born-ml/bifpn/internal/tensor"
)

// ReLUOp represents the rectified linear activation max(0, x).
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLU operation record.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor.
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }

// Backward: gradient passes where the input was positive, zero elsewhere.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := tensor.MustNewRaw(op.input.Shape(), outputGrad.Device())
	inData := op.input.Data()
	gradData := grad.Data()
	outGradData := outputGrad.Data()
	for i, v := range inData {
		if v > 0 {
			gradData[i] = outGradData[i]
		}
	}
	return []*tensor.RawTensor{grad}
}

// SigmoidOp represents the sigmoid activation σ(x) = 1 / (1 + exp(-x)).
type SigmoidOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSigmoidOp creates a new sigmoid operation record.
func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor.
func (op *SigmoidOp) Output() *tensor.RawTensor { return op.output }

// Backward: dσ/dx = σ(x) * (1 - σ(x)), reusing the stored output.
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := tensor.MustNewRaw(op.input.Shape(), outputGrad.Device())
	outData := op.output.Data()
	gradData := grad.Data()
	outGradData := outputGrad.Data()
	for i, s := range outData {
		gradData[i] = outGradData[i] * s * (1 - s)
	}
	return []*tensor.RawTensor{grad}
}

// SiluOp represents the swish activation x * σ(x).
type SiluOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSiluOp creates a new silu operation record.
func NewSiluOp(input, output *tensor.RawTensor) *SiluOp {
	return &SiluOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *SiluOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor.
func (op *SiluOp) Output() *tensor.RawTensor { return op.output }

// Backward: d(x·σ(x))/dx = σ(x) * (1 + x * (1 - σ(x))).
func (op *SiluOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := tensor.MustNewRaw(op.input.Shape(), outputGrad.Device())
	inData := op.input.Data()
	gradData := grad.Data()
	outGradData := outputGrad.Data()
	for i, x := range inData {
		s := float32(1.0 / (1.0 + math.Exp(float64(-x))))
		gradData[i] = outGradData[i] * s * (1 + x*(1-s))
	}
	return []*tensor.RawTensor{grad}
}

// SqrtOp represents the element-wise square root.
type SqrtOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSqrtOp creates a new square-root operation record.
func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *SqrtOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor.
func (op *SqrtOp) Output() *tensor.RawTensor { return op.output }

// Backward: d(√x)/dx = 1 / (2√x), reusing the stored output.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := tensor.MustNewRaw(op.input.Shape(), outputGrad.Device())
	outData := op.output.Data()
	gradData := grad.Data()
	outGradData := outputGrad.Data()
	for i, s := range outData {
		gradData[i] = outGradData[i] / (2 * s)
	}
	return []*tensor.RawTensor{grad}
}
