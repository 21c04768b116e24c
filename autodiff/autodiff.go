// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// The package implements reverse-mode automatic differentiation using a
// gradient tape. It wraps any backend to add gradient recording.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
//
//	backend.Tape().StartRecording()
//	out := neck.Forward(inputs)
//	loss := computeLoss(out)
//	grads := backend.Tape().Backward(seed, backend)
//	backend.Tape().StopRecording()
package autodiff

import (
	"github.com/born-ml/bifpn/internal/autodiff"
	"github.com/born-ml/bifpn/internal/tensor"
)

// Backend is the autodiff-enabled backend decorator.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// GradientTape records operations during the forward pass and replays
// them in reverse to compute gradients.
type GradientTape = autodiff.GradientTape

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// NewGradientTape creates a standalone gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}
