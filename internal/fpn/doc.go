// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package fpn implements a bidirectional feature pyramid network (BiFPN),
// the multi-scale feature-fusion neck of an object detector.
//
// The neck takes feature maps at several spatial resolutions from a
// backbone and repeatedly fuses them top-down and bottom-up, producing
// feature maps at the same resolutions enriched with cross-scale context:
//
//   - Resample reconciles channel counts and spatial sizes between levels
//   - WeightedMerge fuses resampled inputs with learned normalized weights
//   - FusionLayer runs one top-down and one bottom-up pass over the levels
//   - BiFPN synthesizes missing levels and stacks fusion layers
//
// Reference: Tan, Pang, Le, "EfficientDet: Scalable and Efficient Object
// Detection" (CVPR 2020).
package fpn
