// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package fpn

import (
	"fmt"

	"github.com/born-ml/bifpn/internal/nn"
	"github.com/born-ml/bifpn/internal/tensor"
)

// BiFPN is the full feature-fusion neck: it optionally synthesizes extra
// pyramid levels beyond what the backbone supplies, then applies a stack
// of fusion layers.
type BiFPN[B tensor.Backend] struct {
	cfg Config

	// extraOps synthesize levels beyond the backbone output, each
	// chained onto the previous coarsest level.
	extraOps []*Resample[B]
	layers   []*FusionLayer[B]

	backboneLevels int // number of levels consumed from the backbone
	backend        B
}

// New validates cfg and builds the neck.
func New[B tensor.Backend](cfg Config, backend B) *BiFPN[B] {
	if len(cfg.InChannels) < 3 {
		panic(fmt.Sprintf("bifpn: need at least 3 backbone levels, got %d", len(cfg.InChannels)))
	}
	if cfg.OutChannels <= 0 {
		panic(fmt.Sprintf("bifpn: invalid output channel count %d", cfg.OutChannels))
	}
	if cfg.Stack < 1 {
		panic(fmt.Sprintf("bifpn: stack must be >= 1, got %d", cfg.Stack))
	}
	if cfg.StartLevel < 0 || cfg.StartLevel >= len(cfg.InChannels) {
		panic(fmt.Sprintf("bifpn: start level %d out of range for %d backbone levels",
			cfg.StartLevel, len(cfg.InChannels)))
	}

	numIns := len(cfg.InChannels)
	var backboneEnd int
	if cfg.EndLevel == -1 {
		backboneEnd = numIns
		if cfg.NumOuts < numIns-cfg.StartLevel {
			panic(fmt.Sprintf("bifpn: num outs %d < supplied backbone levels %d",
				cfg.NumOuts, numIns-cfg.StartLevel))
		}
	} else {
		if cfg.EndLevel > numIns {
			panic(fmt.Sprintf("bifpn: end level %d beyond %d backbone levels", cfg.EndLevel, numIns))
		}
		backboneEnd = cfg.EndLevel
		// An explicit end level forbids synthesized extra levels.
		if cfg.NumOuts != cfg.EndLevel-cfg.StartLevel {
			panic(fmt.Sprintf("bifpn: num outs %d != end level %d - start level %d",
				cfg.NumOuts, cfg.EndLevel, cfg.StartLevel))
		}
	}
	if len(cfg.TargetSizes) < cfg.NumOuts {
		panic(fmt.Sprintf("bifpn: %d target sizes for %d output levels",
			len(cfg.TargetSizes), cfg.NumOuts))
	}

	b := &BiFPN[B]{
		cfg:            cfg,
		backboneLevels: backboneEnd - cfg.StartLevel,
		backend:        backend,
	}

	// Channel counts of the levels entering the first fusion layer,
	// extended as extra levels are synthesized.
	levels := append([]int(nil), cfg.InChannels[cfg.StartLevel:backboneEnd]...)
	for i := backboneEnd - cfg.StartLevel; i < cfg.NumOuts; i++ {
		inC := levels[len(levels)-1]
		b.extraOps = append(b.extraOps, NewResample(
			inC, cfg.OutChannels, cfg.TargetSizes[i], false, cfg.Norm, backend))
		levels = append(levels, cfg.OutChannels)
	}

	for s := 0; s < cfg.Stack; s++ {
		b.layers = append(b.layers, NewFusionLayer(
			levels, cfg.OutChannels, cfg.TargetSizes, cfg.NumOuts, cfg.Norm, backend))
		if s == 0 {
			levels = make([]int, cfg.NumOuts)
			for i := range levels {
				levels[i] = cfg.OutChannels
			}
		}
	}

	return b
}

// Forward runs the neck over the backbone feature maps (finest first).
// The input count must equal the number of backbone levels consumed; the
// result holds exactly NumOuts levels of OutChannels each.
func (b *BiFPN[B]) Forward(inputs []*tensor.Tensor[B]) []*tensor.Tensor[B] {
	if len(inputs) != b.backboneLevels {
		panic(fmt.Sprintf("bifpn: expected %d backbone inputs, got %d", b.backboneLevels, len(inputs)))
	}

	outs := make([]*tensor.Tensor[B], len(inputs), b.cfg.NumOuts)
	copy(outs, inputs)
	if b.cfg.HalfPrecision {
		for i, t := range outs {
			outs[i] = tensor.New(tensor.RoundTripFloat16(t.Raw()), b.backend)
		}
	}

	for _, extra := range b.extraOps {
		outs = append(outs, extra.Forward(outs[len(outs)-1]))
	}

	for _, layer := range b.layers {
		outs = layer.Forward(outs)
	}

	outs = outs[:b.cfg.NumOuts]
	if b.cfg.HalfPrecision {
		for i, t := range outs {
			outs[i] = tensor.New(tensor.RoundTripFloat16(t.Raw()), b.backend)
		}
	}
	return outs
}

// Parameters returns every trainable parameter of the neck.
func (b *BiFPN[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, extra := range b.extraOps {
		params = append(params, extra.Parameters()...)
	}
	for _, layer := range b.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// InitWeights re-initializes every convolution with Kaiming-normal draws
// and resets every normalization layer.
func (b *BiFPN[B]) InitWeights() {
	for _, extra := range b.extraOps {
		extra.InitWeights()
	}
	for _, layer := range b.layers {
		layer.InitWeights()
	}
}

// SetTraining propagates the training flag through the whole neck.
func (b *BiFPN[B]) SetTraining(training bool) {
	for _, extra := range b.extraOps {
		extra.SetTraining(training)
	}
	for _, layer := range b.layers {
		layer.SetTraining(training)
	}
}

// Config returns the configuration the neck was built with.
func (b *BiFPN[B]) Config() Config {
	return b.cfg
}

// NumOuts returns the number of output levels.
func (b *BiFPN[B]) NumOuts() int {
	return b.cfg.NumOuts
}

// String returns a string representation of the neck.
func (b *BiFPN[B]) String() string {
	return fmt.Sprintf("BiFPN(out_channels=%d, num_outs=%d, stack=%d, extra_levels=%d)",
		b.cfg.OutChannels, b.cfg.NumOuts, b.cfg.Stack, len(b.extraOps))
}
