// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"

	"github.com/born-ml/bifpn/internal/tensor"
)

// Conv2D performs 2D convolution with optional channel groups.
//
// Input shape:  [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels/groups, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Where:
//
//	out_h = (height + 2*padding - kernel_h) / stride + 1
//	out_w = (width + 2*padding - kernel_w) / stride + 1
//
// groups partitions channels: output channel oc reads only the input
// channels of its group. groups == in_channels gives a depthwise
// convolution (one spatial filter per channel, no cross-channel mixing).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding, groups int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in/groups,K_h,K_w], got %dD", len(kernelShape)))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %d", padding))
	}

	N := inputShape[0]
	CIn := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	COut := kernelShape[0]
	CInG := kernelShape[1] // input channels per group
	KH := kernelShape[2]
	KW := kernelShape[3]

	if groups <= 0 || CIn%groups != 0 || COut%groups != 0 {
		panic(fmt.Sprintf("conv2d: groups %d must divide in_channels %d and out_channels %d", groups, CIn, COut))
	}
	if CIn/groups != CInG {
		panic(fmt.Sprintf("conv2d: kernel expects %d channels per group, input has %d", CInG, CIn/groups))
	}

	HOut := (H+2*padding-KH)/stride + 1
	WOut := (W+2*padding-KW)/stride + 1
	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions %dx%d (check stride/padding)", HOut, WOut))
	}

	output := tensor.MustNewRaw(tensor.Shape{N, COut, HOut, WOut}, cpu.device)
	inData := input.Data()
	kData := kernel.Data()
	outData := output.Data()

	outPerGroup := COut / groups

	for n := 0; n < N; n++ {
		for oc := 0; oc < COut; oc++ {
			g := oc / outPerGroup
			icBase := g * CInG
			for oh := 0; oh < HOut; oh++ {
				hStart := oh*stride - padding
				for ow := 0; ow < WOut; ow++ {
					wStart := ow*stride - padding

					var sum float32
					for ic := 0; ic < CInG; ic++ {
						inPlane := ((n*CIn + icBase + ic) * H) * W
						kPlane := ((oc*CInG + ic) * KH) * KW
						for kh := 0; kh < KH; kh++ {
							h := hStart + kh
							if h < 0 || h >= H {
								continue
							}
							rowBase := inPlane + h*W
							kRow := kPlane + kh*KW
							for kw := 0; kw < KW; kw++ {
								w := wStart + kw
								if w < 0 || w >= W {
									continue
								}
								sum += inData[rowBase+w] * kData[kRow+kw]
							}
						}
					}
					outData[((n*COut+oc)*HOut+oh)*WOut+ow] = sum
				}
			}
		}
	}

	return output
}
