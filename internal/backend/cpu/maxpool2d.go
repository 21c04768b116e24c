// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"

	"github.com/born-ml/bifpn/internal/tensor"
)

// MaxPool2D performs 2D max pooling with implicit border padding.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height + 2*padding - kernelSize) / stride + 1
//	out_width = (width + 2*padding - kernelSize) / stride + 1
//
// Padded positions act as negative infinity: they never win the max. The
// resample path of the neck relies on the overlapping configuration
// kernel = stride+1, padding = 1, which halves (or quarters, ...) the
// spatial size while letting adjacent windows share a one-pixel border.
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("maxpool2d: invalid padding %d", padding))
	}

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]

	HOut := (H+2*padding-kernelSize)/stride + 1
	WOut := (W+2*padding-kernelSize)/stride + 1
	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid output dimensions %dx%d (kernel=%d, stride=%d, input=%dx%d)",
			HOut, WOut, kernelSize, stride, H, W))
	}

	output := tensor.MustNewRaw(tensor.Shape{N, C, HOut, WOut}, cpu.device)
	inData := input.Data()
	outData := output.Data()

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			channelOffset := (n*C + c) * H * W
			channelData := inData[channelOffset : channelOffset+H*W]

			for outH := 0; outH < HOut; outH++ {
				hStart := outH*stride - padding
				for outW := 0; outW < WOut; outW++ {
					wStart := outW*stride - padding

					maxVal := float32(-1e38)
					for kh := 0; kh < kernelSize; kh++ {
						h := hStart + kh
						if h < 0 || h >= H {
							continue
						}
						rowData := channelData[h*W : h*W+W]
						for kw := 0; kw < kernelSize; kw++ {
							w := wStart + kw
							if w < 0 || w >= W {
								continue
							}
							if rowData[w] > maxVal {
								maxVal = rowData[w]
							}
						}
					}
					outData[((n*C+c)*HOut+outH)*WOut+outW] = maxVal
				}
			}
		}
	}

	return output
}
