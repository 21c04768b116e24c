// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure-Go CPU compute backend.
package cpu

import (
	internalcpu "github.com/born-ml/bifpn/internal/backend/cpu"
	"github.com/born-ml/bifpn/tensor"
)

// Backend is the CPU backend implementation: plain float32 loops, no
// external runtime.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros(tensor.Shape{1, 64, 32, 32}, backend)
func New() *Backend {
	return internalcpu.New()
}
