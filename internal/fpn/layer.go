// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package fpn

import (
	"fmt"

	"github.com/born-ml/bifpn/internal/nn"
	"github.com/born-ml/bifpn/internal/tensor"
)

// FusionLayer runs one full bidirectional pass over a pyramid of feature
// maps: a top-down pass propagating coarse context into finer levels,
// then a bottom-up pass propagating fine detail back up. Every output
// level has the same channel count.
type FusionLayer[B tensor.Backend] struct {
	// topDown[k] merges level numOuts-1-k into level numOuts-2-k, so the
	// slice is ordered from the coarsest pair to the finest.
	topDown []*WeightedMerge[B]
	// bottomUp[k] produces output level k+1. All but the last take three
	// inputs (intermediate, original, previous output); the last takes
	// two (original coarsest, previous output).
	bottomUp []*WeightedMerge[B]

	numOuts int
}

// NewFusionLayer builds a fusion layer over numOuts levels.
//
// inChannels and targetSizes describe the incoming pyramid per level and
// must have at least numOuts entries; outChannels is the uniform output
// width. numOuts must be at least 2.
func NewFusionLayer[B tensor.Backend](inChannels []int, outChannels int, targetSizes []int, numOuts int, norm NormConfig, backend B) *FusionLayer[B] {
	if numOuts < 2 {
		panic(fmt.Sprintf("fusion layer: need at least 2 levels, got %d", numOuts))
	}
	if len(inChannels) < numOuts {
		panic(fmt.Sprintf("fusion layer: %d input channel counts for %d levels", len(inChannels), numOuts))
	}
	if len(targetSizes) < numOuts {
		panic(fmt.Sprintf("fusion layer: %d target sizes for %d levels", len(targetSizes), numOuts))
	}

	l := &FusionLayer[B]{numOuts: numOuts}

	for i := numOuts - 1; i >= 1; i-- {
		l.topDown = append(l.topDown, NewWeightedMerge(
			[]int{inChannels[i], inChannels[i-1]},
			outChannels, targetSizes[i-1], norm, backend))
	}

	for i := 0; i < numOuts-1; i++ {
		var ins []int
		if i < numOuts-2 {
			ins = []int{outChannels, inChannels[i+1], outChannels}
		} else {
			ins = []int{inChannels[numOuts-1], outChannels}
		}
		l.bottomUp = append(l.bottomUp, NewWeightedMerge(
			ins, outChannels, targetSizes[i+1], norm, backend))
	}

	return l
}

// Forward fuses the pyramid. inputs must hold exactly numOuts levels,
// finest first; the result holds numOuts levels at the same sizes with
// the uniform output channel count.
func (l *FusionLayer[B]) Forward(inputs []*tensor.Tensor[B]) []*tensor.Tensor[B] {
	if len(inputs) != l.numOuts {
		panic(fmt.Sprintf("fusion layer: expected %d inputs, got %d", l.numOuts, len(inputs)))
	}

	// Top-down: coarsest to finest. mdX stays in pass order, coarsest
	// merge first.
	mdX := make([]*tensor.Tensor[B], 0, l.numOuts-1)
	for i := l.numOuts - 1; i >= 1; i-- {
		mdX = append(mdX, l.topDown[l.numOuts-1-i].Forward([]*tensor.Tensor[B]{inputs[i], inputs[i-1]}))
	}

	// Bottom-up: outputs[0] is the finest intermediate (the last merge of
	// the top-down pass), then each level fuses upward.
	outputs := make([]*tensor.Tensor[B], l.numOuts-1, l.numOuts)
	for i := range outputs {
		outputs[i] = mdX[l.numOuts-2-i]
	}
	for i := 1; i < l.numOuts-1; i++ {
		outputs[i] = l.bottomUp[i-1].Forward([]*tensor.Tensor[B]{mdX[i], inputs[i], outputs[i-1]})
	}
	outputs = append(outputs, l.bottomUp[l.numOuts-2].Forward(
		[]*tensor.Tensor[B]{inputs[l.numOuts-1], outputs[l.numOuts-2]}))

	return outputs
}

// Parameters returns the parameters of every merge node.
func (l *FusionLayer[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, m := range l.topDown {
		params = append(params, m.Parameters()...)
	}
	for _, m := range l.bottomUp {
		params = append(params, m.Parameters()...)
	}
	return params
}

// InitWeights re-initializes every merge node.
func (l *FusionLayer[B]) InitWeights() {
	for _, m := range l.topDown {
		m.InitWeights()
	}
	for _, m := range l.bottomUp {
		m.InitWeights()
	}
}

// SetTraining propagates the training flag to every merge node.
func (l *FusionLayer[B]) SetTraining(training bool) {
	for _, m := range l.topDown {
		m.SetTraining(training)
	}
	for _, m := range l.bottomUp {
		m.SetTraining(training)
	}
}

// NumOuts returns the number of pyramid levels the layer handles.
func (l *FusionLayer[B]) NumOuts() int {
	return l.numOuts
}
