// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu implements the CPU backend: pure-Go float32 kernels for the
// tensor operations used by the feature-fusion neck.
package cpu
