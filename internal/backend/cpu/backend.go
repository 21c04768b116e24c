// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/bifpn/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{device: tensor.CPU}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b, func(x, y float32) float32 { return x / y })
}

// binary applies f element-wise, broadcasting a and b to a common shape.
// The fast path handles equal shapes with a flat loop; the slow path walks
// output indices and maps them to input offsets with stride-0 broadcasting.
func (cpu *CPUBackend) binary(name string, a, b *tensor.RawTensor, f func(x, y float32) float32) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result := tensor.MustNewRaw(outShape, cpu.device)
	outData := result.Data()
	aData := a.Data()
	bData := b.Data()

	if !needsBroadcast {
		for i := range outData {
			outData[i] = f(aData[i], bData[i])
		}
		return result
	}

	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	idx := make([]int, len(outShape))
	for i := range outData {
		aOff, bOff := 0, 0
		for d := range idx {
			aOff += idx[d] * aStrides[d]
			bOff += idx[d] * bStrides[d]
		}
		outData[i] = f(aData[aOff], bData[bOff])

		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return result
}

// broadcastStrides maps an input shape onto the (right-aligned) output
// shape, returning per-output-dimension strides into the input buffer.
// Broadcast dimensions get stride 0.
func broadcastStrides(in, out tensor.Shape) []int {
	inStrides := in.ComputeStrides()
	strides := make([]int, len(out))
	offset := len(out) - len(in)
	for d := range out {
		if d < offset {
			continue // missing leading dimension, stride 0
		}
		if in[d-offset] == 1 && out[d] != 1 {
			continue // broadcast dimension, stride 0
		}
		strides[d] = inStrides[d-offset]
	}
	return strides
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unary(x, func(v float32) float32 { return v + scalar })
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unary(x, func(v float32) float32 { return v * scalar })
}

// Sqrt computes the element-wise square root.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, func(v float32) float32 { return float32(math.Sqrt(float64(v))) })
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// Sigmoid computes 1 / (1 + exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, sigmoid)
}

// Silu computes x * sigmoid(x) element-wise (the swish nonlinearity).
func (cpu *CPUBackend) Silu(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, func(v float32) float32 { return v * sigmoid(v) })
}

func sigmoid(v float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(float64(-v))))
}

func (cpu *CPUBackend) unary(x *tensor.RawTensor, f func(v float32) float32) *tensor.RawTensor {
	result := tensor.MustNewRaw(x.Shape(), cpu.device)
	xData := x.Data()
	outData := result.Data()
	for i, v := range xData {
		outData[i] = f(v)
	}
	return result
}

// Reshape returns a tensor with the same data but a different shape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shapes: %v -> %v (different number of elements)",
			t.Shape(), newShape))
	}
	result := tensor.MustNewRaw(newShape, cpu.device)
	copy(result.Data(), t.Data())
	return result
}

// Slice returns elements [start, start+length) of a 1-D tensor.
func (cpu *CPUBackend) Slice(x *tensor.RawTensor, start, length int) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 1 {
		panic(fmt.Sprintf("slice: expected 1D tensor, got %dD", len(shape)))
	}
	if start < 0 || length <= 0 || start+length > shape[0] {
		panic(fmt.Sprintf("slice: range [%d, %d) out of bounds for size %d", start, start+length, shape[0]))
	}
	result := tensor.MustNewRaw(tensor.Shape{length}, cpu.device)
	copy(result.Data(), x.Data()[start:start+length])
	return result
}

// Sum reduces the tensor to its total sum, shape [1].
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := tensor.MustNewRaw(tensor.Shape{1}, cpu.device)
	var sum float32
	for _, v := range x.Data() {
		sum += v
	}
	result.Data()[0] = sum
	return result
}

// ChannelMean computes the per-channel mean of an NCHW tensor over the
// batch and spatial dimensions, returning shape [C].
func (cpu *CPUBackend) ChannelMean(x *tensor.RawTensor) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("channelmean: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	N, C, H, W := shape[0], shape[1], shape[2], shape[3]

	result := tensor.MustNewRaw(tensor.Shape{C}, cpu.device)
	outData := result.Data()
	xData := x.Data()
	plane := H * W

	for c := 0; c < C; c++ {
		var sum float32
		for n := 0; n < N; n++ {
			base := (n*C + c) * plane
			for i := 0; i < plane; i++ {
				sum += xData[base+i]
			}
		}
		outData[c] = sum / float32(N*plane)
	}
	return result
}
