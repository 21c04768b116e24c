// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/x448/float16"

// RoundTripFloat16 returns a copy of the tensor with every element rounded
// through IEEE 754 half precision. This simulates reduced-precision
// execution: values pick up fp16 rounding, computation stays float32.
func RoundTripFloat16(r *RawTensor) *RawTensor {
	out := MustNewRaw(r.Shape(), r.Device())
	src := r.Data()
	dst := out.Data()
	for i, v := range src {
		dst[i] = float16.Fromfloat32(v).Float32()
	}
	return out
}
