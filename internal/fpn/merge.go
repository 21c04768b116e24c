// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package fpn

import (
	"fmt"

	"github.com/born-ml/bifpn/internal/nn"
	"github.com/born-ml/bifpn/internal/tensor"
)

// weightEpsilon stabilizes the fusion-weight normalization denominator.
const weightEpsilon = 1e-4

// WeightedMerge fuses several feature maps into one. Each input is first
// resampled to a common channel count and spatial size, then the maps are
// combined as a weighted sum with learned non-negative weights:
//
//	w'_i = relu(w_i) / (sum_j relu(w_j) + eps)
//	out  = SeparableConv2d(swish(sum_i w'_i * x_i))
//
// The relu keeps every contribution non-negative and the normalization
// keeps the weights on a simplex, so no single input can dominate by
// growing its raw weight. Raw weights are never mutated by the forward
// pass; normalization is part of the computation graph.
type WeightedMerge[B tensor.Backend] struct {
	weight    *nn.Parameter[B] // raw fusion weights, one per input
	resamples []*Resample[B]
	conv      *nn.SeparableConv2d[B]

	numIns  int
	backend B
}

// NewWeightedMerge creates a merge node taking len(inChannels) inputs and
// producing an outChannels map at the square spatial size target. Raw
// fusion weights start at 1, giving every input an equal share.
func NewWeightedMerge[B tensor.Backend](inChannels []int, outChannels, target int, norm NormConfig, backend B) *WeightedMerge[B] {
	if len(inChannels) < 2 {
		panic(fmt.Sprintf("weighted merge: need at least 2 inputs, got %d", len(inChannels)))
	}

	resamples := make([]*Resample[B], len(inChannels))
	for i, c := range inChannels {
		resamples[i] = NewResample(c, outChannels, target, false, norm, backend)
	}

	return &WeightedMerge[B]{
		weight:    nn.NewParameter("fusion_weight", nn.Ones(tensor.Shape{len(inChannels)}, backend)),
		resamples: resamples,
		conv:      nn.NewSeparableConv2d(outChannels, outChannels, 3, 1, backend),
		numIns:    len(inChannels),
		backend:   backend,
	}
}

// Forward fuses the inputs. The input count must match the merge arity.
func (m *WeightedMerge[B]) Forward(inputs []*tensor.Tensor[B]) *tensor.Tensor[B] {
	if len(inputs) != m.numIns {
		panic(fmt.Sprintf("weighted merge: expected %d inputs, got %d", m.numIns, len(inputs)))
	}

	relu := nn.ReLUFunc(m.weight.Tensor())
	norm := relu.Div(relu.Sum().AddScalar(weightEpsilon))

	var fused *tensor.Tensor[B]
	for i, in := range inputs {
		term := m.resamples[i].Forward(in).Mul(norm.Slice(i, 1))
		if fused == nil {
			fused = term
		} else {
			fused = fused.Add(term)
		}
	}

	return m.conv.Forward(nn.SwishFunc(fused))
}

// NormalizedWeights returns the current normalized fusion weights. They
// are non-negative and sum to at most 1 (slightly below due to eps).
func (m *WeightedMerge[B]) NormalizedWeights() []float32 {
	raw := m.weight.Tensor().Data()
	var sum float32
	relu := make([]float32, len(raw))
	for i, v := range raw {
		if v > 0 {
			relu[i] = v
		}
		sum += relu[i]
	}
	for i := range relu {
		relu[i] /= sum + weightEpsilon
	}
	return relu
}

// Parameters returns the fusion weights plus the parameters of every
// resample block and the output convolution.
func (m *WeightedMerge[B]) Parameters() []*nn.Parameter[B] {
	params := []*nn.Parameter[B]{m.weight}
	for _, r := range m.resamples {
		params = append(params, r.Parameters()...)
	}
	return append(params, m.conv.Parameters()...)
}

// InitWeights re-initializes the convolution and normalization
// sub-modules. Raw fusion weights are left untouched.
func (m *WeightedMerge[B]) InitWeights() {
	for _, r := range m.resamples {
		r.InitWeights()
	}
	m.conv.InitWeights()
}

// SetTraining propagates the training flag to all sub-modules.
func (m *WeightedMerge[B]) SetTraining(training bool) {
	for _, r := range m.resamples {
		r.SetTraining(training)
	}
	m.conv.SetTraining(training)
}

// NumInputs returns the merge arity.
func (m *WeightedMerge[B]) NumInputs() int {
	return m.numIns
}
