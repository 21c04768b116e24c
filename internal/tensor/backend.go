// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations; the set of
// operations is scoped to what the feature-fusion neck needs.
//
// Implementations:
//   - cpu.CPUBackend: pure-Go float32 kernels
//   - autodiff.AutodiffBackend: decorator adding gradient recording to any
//     inner backend
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations (element-wise with a scalar).
	AddScalar(x *RawTensor, scalar float32) *RawTensor
	MulScalar(x *RawTensor, scalar float32) *RawTensor

	// Convolutional operations on NCHW tensors.
	//
	// Conv2D supports grouped convolution: groups must divide both the
	// input and output channel counts; groups == in_channels gives a
	// depthwise convolution. Kernel layout is
	// [out_channels, in_channels/groups, k_h, k_w].
	Conv2D(input, kernel *RawTensor, stride, padding, groups int) *RawTensor

	// MaxPool2D pools with implicit negative-infinity padding around the
	// spatial borders.
	MaxPool2D(input *RawTensor, kernelSize, stride, padding int) *RawTensor

	// UpsampleNearest resizes the spatial dimensions to (outH, outW) using
	// nearest-neighbor interpolation.
	UpsampleNearest(input *RawTensor, outH, outW int) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor

	// Slice returns elements [start, start+length) of a 1-D tensor.
	Slice(x *RawTensor, start, length int) *RawTensor

	// Reductions. Sum reduces everything to shape [1]; ChannelMean
	// reduces NCHW over N, H and W to shape [C].
	Sum(x *RawTensor) *RawTensor
	ChannelMean(x *RawTensor) *RawTensor

	// Math operations (element-wise).
	Sqrt(x *RawTensor) *RawTensor

	// Activation functions.
	ReLU(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Silu(x *RawTensor) *RawTensor // x * sigmoid(x), the swish nonlinearity

	// Metadata.
	Name() string
	Device() Device
}
