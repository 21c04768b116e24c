// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package fpn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bifpn/internal/autodiff"
	"github.com/born-ml/bifpn/internal/backend/cpu"
	"github.com/born-ml/bifpn/internal/nn"
	"github.com/born-ml/bifpn/internal/optim"
	"github.com/born-ml/bifpn/internal/tensor"
)

// identityResample builds a 1-channel resample whose projection is the
// identity, so spatial resizing can be checked against exact values.
func identityResample(target int, backend *cpu.CPUBackend) *Resample[*cpu.CPUBackend] {
	r := NewResample(1, 1, target, false, DefaultNormConfig(), backend)
	nn.ConstantFill(r.conv.Weight().Tensor(), 1)
	return r
}

func TestResample_PassthroughAtTargetSize(t *testing.T) {
	backend := cpu.New()
	r := identityResample(2, backend)

	input, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)

	out := r.Forward(input)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{1, 2, 3, 4}, out.Data())
}

func TestResample_Upsample(t *testing.T) {
	backend := cpu.New()
	r := identityResample(4, backend)

	input, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)

	out := r.Forward(input)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 1, 4, 4}))
	want := []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	assert.Equal(t, want, out.Data())
}

func TestResample_DownsampleByPooling(t *testing.T) {
	backend := cpu.New()
	r := identityResample(2, backend)

	input, err := tensor.FromSlice([]float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, tensor.Shape{1, 1, 4, 4}, backend)
	require.NoError(t, err)

	// stride = 4/2 = 2, kernel = 3, padding = 1: overlapping max pooling.
	out := r.Forward(input)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{6, 8, 14, 16}, out.Data())
}

func TestResample_ProjectsChannels(t *testing.T) {
	backend := cpu.New()
	r := NewResample(6, 3, 4, false, DefaultNormConfig(), backend)

	input := tensor.Randn(tensor.Shape{1, 6, 4, 4}, backend)
	out := r.Forward(input)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 3, 4, 4}))
}

func TestResample_IndivisiblePanics(t *testing.T) {
	backend := cpu.New()
	r := NewResample(1, 1, 8, false, DefaultNormConfig(), backend)

	input := tensor.Zeros(tensor.Shape{1, 1, 15, 15}, backend)
	assert.Panics(t, func() { r.Forward(input) })
}

func TestResample_AsymmetricPanics(t *testing.T) {
	backend := cpu.New()
	r := NewResample(1, 1, 8, false, DefaultNormConfig(), backend)

	// Height matches the target, width does not.
	input := tensor.Zeros(tensor.Shape{1, 1, 8, 16}, backend)
	assert.Panics(t, func() { r.Forward(input) })
}

func TestResample_WithNorm(t *testing.T) {
	backend := cpu.New()
	r := NewResample(2, 2, 4, true, DefaultNormConfig(), backend)

	// conv weight+bias, gamma, beta
	assert.Len(t, r.Parameters(), 4)

	out := r.Forward(tensor.Randn(tensor.Shape{1, 2, 4, 4}, backend))
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 2, 4, 4}))
}

func TestResample_NormNotTrainable(t *testing.T) {
	backend := cpu.New()
	norm := DefaultNormConfig()
	norm.RequiresGrad = false
	r := NewResample(2, 2, 4, true, norm, backend)

	// gamma/beta excluded from the parameter list.
	assert.Len(t, r.Parameters(), 2)
}

func TestWeightedMerge_NormalizedWeightsSimplex(t *testing.T) {
	backend := cpu.New()
	m := NewWeightedMerge([]int{2, 3}, 4, 8, DefaultNormConfig(), backend)

	// Raw weights start at 1: equal shares just below 0.5 due to eps.
	w := m.NormalizedWeights()
	require.Len(t, w, 2)
	assert.InDelta(t, 0.5, w[0], 1e-4)
	assert.InDelta(t, 0.5, w[1], 1e-4)

	var sum float32
	for _, v := range w {
		assert.GreaterOrEqual(t, v, float32(0))
		sum += v
	}
	assert.LessOrEqual(t, sum, float32(1))
}

func TestWeightedMerge_NegativeWeightClamped(t *testing.T) {
	backend := cpu.New()
	m := NewWeightedMerge([]int{2, 3}, 4, 8, DefaultNormConfig(), backend)

	copy(m.weight.Tensor().Data(), []float32{2, -5})

	w := m.NormalizedWeights()
	assert.InDelta(t, 1.0, w[0], 1e-4)
	assert.Equal(t, float32(0), w[1])
}

func TestWeightedMerge_ForwardShape(t *testing.T) {
	backend := cpu.New()
	m := NewWeightedMerge([]int{3, 5}, 4, 8, DefaultNormConfig(), backend)

	inputs := []*tensor.Tensor[*cpu.CPUBackend]{
		tensor.Randn(tensor.Shape{1, 3, 8, 8}, backend),
		tensor.Randn(tensor.Shape{1, 5, 4, 4}, backend),
	}
	out := m.Forward(inputs)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 4, 8, 8}))
}

func TestWeightedMerge_ArityMismatchPanics(t *testing.T) {
	backend := cpu.New()
	m := NewWeightedMerge([]int{2, 3}, 4, 8, DefaultNormConfig(), backend)

	inputs := []*tensor.Tensor[*cpu.CPUBackend]{
		tensor.Randn(tensor.Shape{1, 2, 8, 8}, backend),
	}
	assert.Panics(t, func() { m.Forward(inputs) })
}

func TestWeightedMerge_ForwardDoesNotMutateRawWeights(t *testing.T) {
	backend := cpu.New()
	m := NewWeightedMerge([]int{2, 3}, 4, 8, DefaultNormConfig(), backend)
	copy(m.weight.Tensor().Data(), []float32{2, -1})

	inputs := []*tensor.Tensor[*cpu.CPUBackend]{
		tensor.Randn(tensor.Shape{1, 2, 8, 8}, backend),
		tensor.Randn(tensor.Shape{1, 3, 8, 8}, backend),
	}
	m.Forward(inputs)

	// Normalization happens in the computation, never in the parameter.
	assert.Equal(t, []float32{2, -1}, m.weight.Tensor().Data())
}

func TestWeightedMerge_InitWeightsKeepsFusionWeights(t *testing.T) {
	backend := cpu.New()
	m := NewWeightedMerge([]int{2, 3}, 4, 8, DefaultNormConfig(), backend)
	copy(m.weight.Tensor().Data(), []float32{3, 7})

	m.InitWeights()

	// Only convolutions and norms are re-initialized.
	assert.Equal(t, []float32{3, 7}, m.weight.Tensor().Data())
}

func TestFusionLayer_OutputPyramid(t *testing.T) {
	backend := cpu.New()
	layer := NewFusionLayer([]int{2, 3, 4}, 5, []int{8, 4, 2}, 3, DefaultNormConfig(), backend)

	inputs := []*tensor.Tensor[*cpu.CPUBackend]{
		tensor.Randn(tensor.Shape{1, 2, 8, 8}, backend),
		tensor.Randn(tensor.Shape{1, 3, 4, 4}, backend),
		tensor.Randn(tensor.Shape{1, 4, 2, 2}, backend),
	}
	outs := layer.Forward(inputs)

	require.Len(t, outs, 3)
	assert.True(t, outs[0].Shape().Equal(tensor.Shape{1, 5, 8, 8}))
	assert.True(t, outs[1].Shape().Equal(tensor.Shape{1, 5, 4, 4}))
	assert.True(t, outs[2].Shape().Equal(tensor.Shape{1, 5, 2, 2}))
}

func TestFusionLayer_WrongInputCountPanics(t *testing.T) {
	backend := cpu.New()
	layer := NewFusionLayer([]int{2, 3, 4}, 5, []int{8, 4, 2}, 3, DefaultNormConfig(), backend)

	assert.Panics(t, func() {
		layer.Forward([]*tensor.Tensor[*cpu.CPUBackend]{
			tensor.Randn(tensor.Shape{1, 2, 8, 8}, backend),
		})
	})
}

func TestFusionLayer_TooFewLevelsPanics(t *testing.T) {
	backend := cpu.New()
	assert.Panics(t, func() {
		NewFusionLayer([]int{4}, 5, []int{8}, 1, DefaultNormConfig(), backend)
	})
}

func TestBiFPN_SynthesizesExtraLevels(t *testing.T) {
	backend := cpu.New()
	neck := New(Config{
		InChannels:  []int{2, 3, 4},
		OutChannels: 5,
		TargetSizes: []int{16, 8, 4, 2, 1},
		NumOuts:     5,
		StartLevel:  0,
		EndLevel:    -1,
		Stack:       1,
		Norm:        DefaultNormConfig(),
	}, backend)

	inputs := []*tensor.Tensor[*cpu.CPUBackend]{
		tensor.Randn(tensor.Shape{1, 2, 16, 16}, backend),
		tensor.Randn(tensor.Shape{1, 3, 8, 8}, backend),
		tensor.Randn(tensor.Shape{1, 4, 4, 4}, backend),
	}
	outs := neck.Forward(inputs)

	require.Len(t, outs, 5)
	sizes := []int{16, 8, 4, 2, 1}
	for i, out := range outs {
		assert.True(t, out.Shape().Equal(tensor.Shape{1, 5, sizes[i], sizes[i]}),
			"level %d: got %v", i, out.Shape())
	}
}

func TestBiFPN_Stacked(t *testing.T) {
	backend := cpu.New()
	neck := New(Config{
		InChannels:  []int{2, 3, 4},
		OutChannels: 5,
		TargetSizes: []int{8, 4, 2},
		NumOuts:     3,
		StartLevel:  0,
		EndLevel:    -1,
		Stack:       3,
		Norm:        DefaultNormConfig(),
	}, backend)

	inputs := []*tensor.Tensor[*cpu.CPUBackend]{
		tensor.Randn(tensor.Shape{1, 2, 8, 8}, backend),
		tensor.Randn(tensor.Shape{1, 3, 4, 4}, backend),
		tensor.Randn(tensor.Shape{1, 4, 2, 2}, backend),
	}
	outs := neck.Forward(inputs)

	require.Len(t, outs, 3)
	assert.True(t, outs[0].Shape().Equal(tensor.Shape{1, 5, 8, 8}))
}

func TestBiFPN_ExplicitEndLevel(t *testing.T) {
	backend := cpu.New()
	neck := New(Config{
		InChannels:  []int{2, 3, 4, 6},
		OutChannels: 5,
		TargetSizes: []int{8, 4, 2},
		NumOuts:     3,
		StartLevel:  1,
		EndLevel:    4,
		Stack:       1,
		Norm:        DefaultNormConfig(),
	}, backend)

	inputs := []*tensor.Tensor[*cpu.CPUBackend]{
		tensor.Randn(tensor.Shape{1, 3, 8, 8}, backend),
		tensor.Randn(tensor.Shape{1, 4, 4, 4}, backend),
		tensor.Randn(tensor.Shape{1, 6, 2, 2}, backend),
	}
	outs := neck.Forward(inputs)
	require.Len(t, outs, 3)
}

func TestBiFPN_ConfigValidation(t *testing.T) {
	backend := cpu.New()
	base := Config{
		InChannels:  []int{2, 3, 4},
		OutChannels: 5,
		TargetSizes: []int{8, 4, 2},
		NumOuts:     3,
		StartLevel:  0,
		EndLevel:    -1,
		Stack:       1,
		Norm:        DefaultNormConfig(),
	}

	t.Run("too few backbone levels", func(t *testing.T) {
		cfg := base
		cfg.InChannels = []int{2, 3}
		assert.Panics(t, func() { New(cfg, backend) })
	})

	t.Run("num outs below backbone supply", func(t *testing.T) {
		cfg := base
		cfg.NumOuts = 2
		cfg.TargetSizes = []int{8, 4}
		assert.Panics(t, func() { New(cfg, backend) })
	})

	t.Run("explicit end level arity", func(t *testing.T) {
		cfg := base
		cfg.EndLevel = 3
		cfg.NumOuts = 2
		assert.Panics(t, func() { New(cfg, backend) })
	})

	t.Run("end level beyond backbone", func(t *testing.T) {
		cfg := base
		cfg.EndLevel = 4
		cfg.NumOuts = 4
		cfg.TargetSizes = []int{8, 4, 2, 1}
		assert.Panics(t, func() { New(cfg, backend) })
	})

	t.Run("missing target sizes", func(t *testing.T) {
		cfg := base
		cfg.TargetSizes = []int{8, 4}
		assert.Panics(t, func() { New(cfg, backend) })
	})

	t.Run("zero stack", func(t *testing.T) {
		cfg := base
		cfg.Stack = 0
		assert.Panics(t, func() { New(cfg, backend) })
	})

	t.Run("wrong input count", func(t *testing.T) {
		neck := New(base, backend)
		assert.Panics(t, func() {
			neck.Forward([]*tensor.Tensor[*cpu.CPUBackend]{
				tensor.Randn(tensor.Shape{1, 2, 8, 8}, backend),
			})
		})
	})
}

func TestBiFPN_HalfPrecision(t *testing.T) {
	backend := cpu.New()
	cfg := Config{
		InChannels:    []int{2, 3, 4},
		OutChannels:   5,
		TargetSizes:   []int{8, 4, 2},
		NumOuts:       3,
		StartLevel:    0,
		EndLevel:      -1,
		Stack:         1,
		Norm:          DefaultNormConfig(),
		HalfPrecision: true,
	}
	neck := New(cfg, backend)
	neck.SetTraining(false)

	inputs := []*tensor.Tensor[*cpu.CPUBackend]{
		tensor.Randn(tensor.Shape{1, 2, 8, 8}, backend),
		tensor.Randn(tensor.Shape{1, 3, 4, 4}, backend),
		tensor.Randn(tensor.Shape{1, 4, 2, 2}, backend),
	}
	outs := neck.Forward(inputs)

	require.Len(t, outs, 3)
	// Every output value must be exactly representable in fp16.
	for _, out := range outs {
		rounded := tensor.RoundTripFloat16(out.Raw())
		assert.Equal(t, rounded.Data(), out.Raw().Data())
	}
}

func TestBiFPN_InitWeightsRedraws(t *testing.T) {
	backend := cpu.New()
	neck := New(Config{
		InChannels:  []int{2, 3, 4},
		OutChannels: 5,
		TargetSizes: []int{8, 4, 2},
		NumOuts:     3,
		StartLevel:  0,
		EndLevel:    -1,
		Stack:       1,
		Norm:        DefaultNormConfig(),
	}, backend)

	params := neck.Parameters()
	require.NotEmpty(t, params)

	var convWeight *nn.Parameter[*cpu.CPUBackend]
	for _, p := range params {
		if len(p.Tensor().Shape()) == 4 {
			convWeight = p
			break
		}
	}
	require.NotNil(t, convWeight)

	before := append([]float32(nil), convWeight.Tensor().Data()...)
	neck.InitWeights()
	assert.NotEqual(t, before, convWeight.Tensor().Data())
}

func TestBiFPN_ParametersIncludeFusionWeights(t *testing.T) {
	backend := cpu.New()
	neck := New(Config{
		InChannels:  []int{2, 3, 4},
		OutChannels: 5,
		TargetSizes: []int{8, 4, 2},
		NumOuts:     3,
		StartLevel:  0,
		EndLevel:    -1,
		Stack:       1,
		Norm:        DefaultNormConfig(),
	}, backend)

	var fusionWeights int
	for _, p := range neck.Parameters() {
		if p.Name() == "fusion_weight" {
			fusionWeights++
		}
	}
	// One per merge node: (numOuts-1) top-down + (numOuts-1) bottom-up.
	assert.Equal(t, 4, fusionWeights)
}

func TestBiFPN_TrainingStepUpdatesFusionWeights(t *testing.T) {
	backend := autodiff.New(cpu.New())
	neck := New(Config{
		InChannels:  []int{2, 3, 4},
		OutChannels: 5,
		TargetSizes: []int{8, 4, 2},
		NumOuts:     3,
		StartLevel:  0,
		EndLevel:    -1,
		Stack:       1,
		Norm:        DefaultNormConfig(),
	}, backend)

	inputs := []*tensor.Tensor[*autodiff.AutodiffBackend[*cpu.CPUBackend]]{
		tensor.Randn(tensor.Shape{1, 2, 8, 8}, backend),
		tensor.Randn(tensor.Shape{1, 3, 4, 4}, backend),
		tensor.Randn(tensor.Shape{1, 4, 2, 2}, backend),
	}

	var fusionWeight *nn.Parameter[*autodiff.AutodiffBackend[*cpu.CPUBackend]]
	for _, p := range neck.Parameters() {
		if p.Name() == "fusion_weight" {
			fusionWeight = p
			break
		}
	}
	require.NotNil(t, fusionWeight)
	before := append([]float32(nil), fusionWeight.Tensor().Data()...)

	optimizer := optim.NewSGD(neck.Parameters(), optim.SGDConfig{LR: 0.1}, backend)

	backend.Tape().StartRecording()
	outs := neck.Forward(inputs)
	loss := outs[0].Sum()
	for _, out := range outs[1:] {
		loss = loss.Add(out.Sum())
	}

	seed := tensor.MustNewRaw(tensor.Shape{1}, tensor.CPU)
	seed.Data()[0] = 1
	grads := backend.Tape().Backward(seed, backend)
	backend.Tape().StopRecording()
	backend.Tape().Clear()

	require.NotNil(t, grads[fusionWeight.Tensor().Raw()],
		"gradient must reach the fusion weights")

	optimizer.Step(grads)
	assert.NotEqual(t, before, fusionWeight.Tensor().Data())
}
