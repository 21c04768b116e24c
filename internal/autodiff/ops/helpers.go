// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import "github.com/born-ml/bifpn/internal/tensor"

// reduceTo sums a gradient over broadcast dimensions so it matches the
// shape of the original (pre-broadcast) operand.
//
// Broadcasting during the forward pass replicates an operand across
// dimensions of size 1 (or missing leading dimensions); the chain rule
// requires the corresponding gradient entries to be accumulated back.
func reduceTo(grad *tensor.RawTensor, target tensor.Shape) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(target) {
		return grad
	}

	result := tensor.MustNewRaw(target, grad.Device())
	outData := result.Data()
	gradData := grad.Data()

	// Per-gradient-dimension strides into the target buffer; broadcast
	// dimensions map to stride 0 so their contributions accumulate.
	targetStrides := tensor.Shape(target).ComputeStrides()
	strides := make([]int, len(gradShape))
	offset := len(gradShape) - len(target)
	for d := range gradShape {
		if d < offset {
			continue
		}
		if target[d-offset] == 1 && gradShape[d] != 1 {
			continue
		}
		strides[d] = targetStrides[d-offset]
	}

	idx := make([]int, len(gradShape))
	for i := range gradData {
		off := 0
		for d := range idx {
			off += idx[d] * strides[d]
		}
		outData[off] += gradData[i]

		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < gradShape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return result
}
