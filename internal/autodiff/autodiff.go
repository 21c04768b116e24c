// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff implements automatic differentiation using the
// decorator pattern.
//
// AutodiffBackend wraps any Backend implementation and adds gradient
// tracking through a GradientTape:
//   - operations executed through the wrapper are recorded on the tape
//   - each op knows its backward pass (internal/autodiff/ops)
//   - GradientTape.Backward walks the tape in reverse and returns a map
//     from RawTensor to accumulated gradient
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	// ... forward pass ...
//	grads := backend.Tape().Backward(seed, backend)
package autodiff

import (
	"github.com/born-ml/bifpn/internal/autodiff/ops"
	"github.com/born-ml/bifpn/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface itself, so modules built
// against a generic backend record gradients transparently.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control (start/stop recording,
// clearing between iterations, running the backward pass).
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(x, y)
	b.tape.Record(ops.NewAddOp(x, y, result))
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sub(x, y)
	b.tape.Record(ops.NewSubOp(x, y, result))
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mul(x, y)
	b.tape.Record(ops.NewMulOp(x, y, result))
	return result
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Div(x, y)
	b.tape.Record(ops.NewDivOp(x, y, result))
	return result
}

// AddScalar adds a scalar and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	result := b.inner.AddScalar(x, scalar)
	b.tape.Record(ops.NewAddScalarOp(x, result))
	return result
}

// MulScalar multiplies by a scalar and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	result := b.inner.MulScalar(x, scalar)
	b.tape.Record(ops.NewMulScalarOp(x, result, scalar))
	return result
}

// Conv2D performs grouped 2D convolution and records the operation.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding, groups int) *tensor.RawTensor {
	result := b.inner.Conv2D(input, kernel, stride, padding, groups)
	b.tape.Record(ops.NewConv2DOp(input, kernel, result, stride, padding, groups))
	return result
}

// MaxPool2D performs 2D max pooling and records the operation.
func (b *AutodiffBackend[B]) MaxPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	result := b.inner.MaxPool2D(input, kernelSize, stride, padding)
	b.tape.Record(ops.NewMaxPool2DOp(input, result, kernelSize, stride, padding))
	return result
}

// UpsampleNearest performs nearest-neighbor upsampling and records the
// operation.
func (b *AutodiffBackend[B]) UpsampleNearest(input *tensor.RawTensor, outH, outW int) *tensor.RawTensor {
	result := b.inner.UpsampleNearest(input, outH, outW)
	b.tape.Record(ops.NewUpsampleNearestOp(input, result))
	return result
}

// Reshape reshapes a tensor and records the operation.
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Reshape(t, newShape)
	b.tape.Record(ops.NewReshapeOp(t, result))
	return result
}

// Slice narrows a 1-D tensor and records the operation.
func (b *AutodiffBackend[B]) Slice(x *tensor.RawTensor, start, length int) *tensor.RawTensor {
	result := b.inner.Slice(x, start, length)
	b.tape.Record(ops.NewSliceOp(x, result, start))
	return result
}

// Sum reduces to the total sum and records the operation.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sum(x)
	b.tape.Record(ops.NewSumOp(x, result))
	return result
}

// ChannelMean computes per-channel means and records the operation.
func (b *AutodiffBackend[B]) ChannelMean(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.ChannelMean(x)
	b.tape.Record(ops.NewChannelMeanOp(x, result))
	return result
}

// Sqrt computes the element-wise square root and records the operation.
func (b *AutodiffBackend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sqrt(x)
	b.tape.Record(ops.NewSqrtOp(x, result))
	return result
}

// ReLU applies the rectified linear activation and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.ReLU(x)
	b.tape.Record(ops.NewReLUOp(x, result))
	return result
}

// Sigmoid applies the sigmoid activation and records the operation.
func (b *AutodiffBackend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sigmoid(x)
	b.tape.Record(ops.NewSigmoidOp(x, result))
	return result
}

// Silu applies the swish activation and records the operation.
func (b *AutodiffBackend[B]) Silu(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Silu(x)
	b.tape.Record(ops.NewSiluOp(x, result))
	return result
}
