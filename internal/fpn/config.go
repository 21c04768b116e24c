// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package fpn

// NormConfig holds the batch-normalization parameters shared by the
// convolution blocks of the neck. The zero value is not useful; use
// DefaultNormConfig.
type NormConfig struct {
	Momentum     float32 // running-statistics update rate
	Epsilon      float32 // numerical stability constant
	RequiresGrad bool    // whether gamma/beta are trainable
}

// DefaultNormConfig returns the normalization defaults of
// EfficientDet-style necks: momentum 0.003, eps 1e-4, trainable affine.
func DefaultNormConfig() NormConfig {
	return NormConfig{Momentum: 0.003, Epsilon: 1e-4, RequiresGrad: true}
}

// Config is the immutable construction-time configuration of a BiFPN.
type Config struct {
	// InChannels lists the channel count of each backbone level.
	// At least 3 levels are required.
	InChannels []int

	// OutChannels is the channel width of every fused output map.
	OutChannels int

	// TargetSizes lists the square spatial size of each pyramid level,
	// one entry per output level. Resolution decreases (or stays equal)
	// as the index increases.
	TargetSizes []int

	// NumOuts is the number of output levels the neck produces.
	NumOuts int

	// StartLevel and EndLevel select the backbone levels consumed.
	// EndLevel == -1 means "through the last backbone level", allowing
	// extra levels to be synthesized when NumOuts exceeds the backbone
	// supply. An explicit EndLevel forbids extra levels and requires
	// NumOuts == EndLevel - StartLevel.
	StartLevel int
	EndLevel   int

	// Stack is the number of fusion layers applied in sequence (>= 1).
	Stack int

	// Norm configures the normalization layers of the neck.
	Norm NormConfig

	// HalfPrecision rounds the values entering and leaving the neck
	// through IEEE fp16, simulating a reduced-precision execution mode.
	// Fusion logic is unchanged. The rounding is not differentiable;
	// intended for inference.
	HalfPrecision bool
}
