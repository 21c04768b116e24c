// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package fpn provides the public API for the BiFPN feature-fusion neck.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	neck := fpn.New(fpn.Config{
//	    InChannels:  []int{40, 112, 320},
//	    OutChannels: 64,
//	    TargetSizes: []int{32, 16, 8, 4, 2},
//	    NumOuts:     5,
//	    EndLevel:    -1,
//	    Stack:       1,
//	    Norm:        fpn.DefaultNormConfig(),
//	}, backend)
//	outs := neck.Forward(features)
package fpn

import (
	"github.com/born-ml/bifpn/internal/fpn"
	"github.com/born-ml/bifpn/internal/tensor"
)

// Config is the construction-time configuration of a BiFPN.
type Config = fpn.Config

// NormConfig holds the batch-normalization parameters of the neck.
type NormConfig = fpn.NormConfig

// DefaultNormConfig returns the normalization defaults used by
// EfficientDet-style necks (momentum 0.003, epsilon 1e-4).
func DefaultNormConfig() NormConfig {
	return fpn.DefaultNormConfig()
}

// BiFPN is the full feature-fusion neck.
type BiFPN[B tensor.Backend] = fpn.BiFPN[B]

// FusionLayer runs one bidirectional fusion pass over a pyramid.
type FusionLayer[B tensor.Backend] = fpn.FusionLayer[B]

// WeightedMerge fuses resampled feature maps with learned normalized
// weights.
type WeightedMerge[B tensor.Backend] = fpn.WeightedMerge[B]

// Resample brings a feature map to a given channel count and spatial
// size.
type Resample[B tensor.Backend] = fpn.Resample[B]

// New validates cfg and builds the neck.
func New[B tensor.Backend](cfg Config, backend B) *BiFPN[B] {
	return fpn.New(cfg, backend)
}

// NewFusionLayer builds a single fusion layer over numOuts levels.
func NewFusionLayer[B tensor.Backend](inChannels []int, outChannels int, targetSizes []int, numOuts int, norm NormConfig, backend B) *FusionLayer[B] {
	return fpn.NewFusionLayer(inChannels, outChannels, targetSizes, numOuts, norm, backend)
}

// NewWeightedMerge creates a merge node over len(inChannels) inputs.
func NewWeightedMerge[B tensor.Backend](inChannels []int, outChannels, target int, norm NormConfig, backend B) *WeightedMerge[B] {
	return fpn.NewWeightedMerge(inChannels, outChannels, target, norm, backend)
}

// NewResample creates a resampling block.
func NewResample[B tensor.Backend](inChannels, outChannels, target int, withNorm bool, norm NormConfig, backend B) *Resample[B] {
	return fpn.NewResample(inChannels, outChannels, target, withNorm, norm, backend)
}
