// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package clustering

import "github.com/memoriauy/burbujas/internal/projection"

// KBase computes the base clusterer's target cluster count:
// clamp(n_voters // 10, 10, 100), then capped at n_voters so there are
// never more clusters than points.
func KBase(nVoters int) int {
	k := nVoters / 10
	if k < 10 {
		k = 10
	}
	if k > 100 {
		k = 100
	}
	if k > nVoters {
		k = nVoters
	}
	return k
}

// BaseResult is C4's output.
type BaseResult struct {
	Labels    []int
	Centroids []projection.Point
	Inertia   float64
}

// Base runs the weighted k-means base clustering. weights are row_nnz cast
// to float64, per voter.
func Base(points []projection.Point, weights []float64, seed int64) BaseResult {
	k := KBase(len(points))
	cfg := DefaultKMeansConfig(k)
	cfg.Seed = seed
	res := WeightedKMeans(points, weights, cfg)
	return BaseResult{Labels: res.Labels, Centroids: res.Centroids, Inertia: res.Inertia}
}
