// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor implements the numeric substrate for the BiFPN neck:
// float32 N-dimensional arrays with NumPy-style broadcasting, a Backend
// interface that compute backends implement, and a typed Tensor wrapper
// used by the nn and fpn packages.
//
// Feature maps throughout the repository are 4D tensors in NCHW layout
// (batch, channels, height, width).
package tensor
