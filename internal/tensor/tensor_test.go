// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bifpn/internal/backend/cpu"
	"github.com/born-ml/bifpn/internal/tensor"
)

func TestShape_NumElements(t *testing.T) {
	assert.Equal(t, 24, tensor.Shape{2, 3, 4}.NumElements())
	assert.Equal(t, 1, tensor.Shape{1}.NumElements())
}

func TestShape_ComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, tensor.Shape{2, 3, 4}.ComputeStrides())
}

func TestShape_Equal(t *testing.T) {
	assert.True(t, tensor.Shape{2, 3}.Equal(tensor.Shape{2, 3}))
	assert.False(t, tensor.Shape{2, 3}.Equal(tensor.Shape{3, 2}))
	assert.False(t, tensor.Shape{2, 3}.Equal(tensor.Shape{2, 3, 1}))
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    tensor.Shape
		want    tensor.Shape
		needs   bool
		wantErr bool
	}{
		{"equal", tensor.Shape{2, 3}, tensor.Shape{2, 3}, tensor.Shape{2, 3}, false, false},
		{"scalar", tensor.Shape{2, 3}, tensor.Shape{1}, tensor.Shape{2, 3}, true, false},
		{"channel bias", tensor.Shape{1, 4, 8, 8}, tensor.Shape{1, 4, 1, 1}, tensor.Shape{1, 4, 8, 8}, true, false},
		{"mismatch", tensor.Shape{2, 3}, tensor.Shape{4}, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, needs, err := tensor.BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			assert.Equal(t, tt.needs, needs)
		})
	}
}

func TestFromSlice(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	assert.Equal(t, float32(6), x.At(1, 2))
	assert.Equal(t, float32(4), x.At(1, 0))

	_, err = tensor.FromSlice([]float32{1, 2}, tensor.Shape{3}, backend)
	require.Error(t, err)
}

func TestCreation(t *testing.T) {
	backend := cpu.New()

	zeros := tensor.Zeros(tensor.Shape{2, 2}, backend)
	for _, v := range zeros.Data() {
		assert.Equal(t, float32(0), v)
	}

	ones := tensor.Ones(tensor.Shape{3}, backend)
	for _, v := range ones.Data() {
		assert.Equal(t, float32(1), v)
	}

	full := tensor.Full(tensor.Shape{2}, 7.5, backend)
	assert.Equal(t, []float32{7.5, 7.5}, full.Data())
}

func TestRandn_FillsEveryElement(t *testing.T) {
	backend := cpu.New()

	x := tensor.Randn(tensor.Shape{64}, backend)
	var nonzero int
	for _, v := range x.Data() {
		if v != 0 {
			nonzero++
		}
	}
	// All 64 draws being exactly zero is not a thing.
	assert.Greater(t, nonzero, 0)
}

func TestTensor_Ops(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	y, err := tensor.FromSlice([]float32{10, 20, 30, 40}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	assert.Equal(t, []float32{11, 22, 33, 44}, x.Add(y).Data())
	assert.Equal(t, []float32{9, 18, 27, 36}, y.Sub(x).Data())
	assert.Equal(t, []float32{10, 40, 90, 160}, x.Mul(y).Data())
	assert.Equal(t, []float32{10, 10, 10, 10}, y.Div(x).Data())
	assert.Equal(t, []float32{2, 4, 6, 8}, x.MulScalar(2).Data())
	assert.Equal(t, []float32{2, 3, 4, 5}, x.AddScalar(1).Data())
	assert.Equal(t, float32(10), x.Sum().Item())
}

func TestTensor_Reshape(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	y := x.Reshape(2, 2)
	assert.True(t, y.Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, x.Data(), y.Data())
}

func TestTensor_Slice(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{5, 6, 7}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	s := x.Slice(1, 1)
	assert.True(t, s.Shape().Equal(tensor.Shape{1}))
	assert.Equal(t, float32(6), s.Item())
}

func TestTensor_Clone(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	y := x.Clone()
	y.Data()[0] = 99
	assert.Equal(t, float32(1), x.Data()[0], "clone must not share memory")
}

func TestRoundTripFloat16(t *testing.T) {
	r, err := tensor.NewRaw(tensor.Shape{3}, tensor.CPU)
	require.NoError(t, err)
	// 0.1 is not representable in fp16; 1.0 and 0.5 are.
	copy(r.Data(), []float32{1.0, 0.5, 0.1})

	out := tensor.RoundTripFloat16(r)

	assert.Equal(t, float32(1.0), out.Data()[0])
	assert.Equal(t, float32(0.5), out.Data()[1])
	assert.NotEqual(t, float32(0.1), out.Data()[2])
	assert.InDelta(t, 0.1, out.Data()[2], 1e-3)
}
