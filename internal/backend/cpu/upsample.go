// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"

	"github.com/born-ml/bifpn/internal/tensor"
)

// UpsampleNearest resizes the spatial dimensions of an NCHW tensor to
// (outH, outW) using nearest-neighbor interpolation.
//
// Source coordinates follow the standard floor mapping
// src = dst * in_size / out_size, which for integer scale factors repeats
// each input pixel scale times along each axis.
func (cpu *CPUBackend) UpsampleNearest(input *tensor.RawTensor, outH, outW int) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("upsample: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("upsample: invalid target size %dx%d", outH, outW))
	}

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]

	output := tensor.MustNewRaw(tensor.Shape{N, C, outH, outW}, cpu.device)
	inData := input.Data()
	outData := output.Data()

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			inPlane := (n*C + c) * H * W
			outPlane := (n*C + c) * outH * outW
			for oh := 0; oh < outH; oh++ {
				srcH := oh * H / outH
				inRow := inPlane + srcH*W
				outRow := outPlane + oh*outW
				for ow := 0; ow < outW; ow++ {
					outData[outRow+ow] = inData[inRow+ow*W/outW]
				}
			}
		}
	}

	return output
}
