// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package clustering

import "github.com/memoriauy/burbujas/internal/projection"

// ParsimonyThreshold is the hysteresis margin a larger k must clear over
// the best k found so far before it is accepted, so the group count does
// not oscillate between adjacent runs on noise alone.
const ParsimonyThreshold = 0.02

// GroupResult is C5's output.
type GroupResult struct {
	K                 int
	Labels            []int // per-voter group label, len == len(points)
	Centroids         []projection.Point
	GroupForBase      map[int]int // base cluster local id -> group label
	Silhouette        float64
}

// Group selects k_group in [kMin, kMax] by silhouette with parsimony bias,
// then assigns each base cluster to the group holding the plurality of its
// members. weights are used identically to Base: row_nnz per voter. Callers
// should pass the configured RunParameters.KGroupMin/KGroupMax; the spec's
// default range of [2, 5] is just that package's default, not a constant
// this function may assume.
func Group(points []projection.Point, weights []float64, baseLabels []int, seed int64, kMin, kMax int) GroupResult {
	type candidate struct {
		k          int
		labels     []int
		centroids  []projection.Point
		silhouette float64
	}

	candidates := make(map[int]candidate, kMax-kMin+1)
	for k := kMin; k <= kMax; k++ {
		cfg := DefaultKMeansConfig(k)
		cfg.Seed = seed
		res := WeightedKMeans(points, weights, cfg)
		s := Silhouette(points, res.Labels, k)
		candidates[k] = candidate{k: k, labels: res.Labels, centroids: res.Centroids, silhouette: s}
	}

	bestK := kMin
	bestScore := candidates[kMin].silhouette
	for k := kMin + 1; k <= kMax; k++ {
		if candidates[k].silhouette > bestScore+ParsimonyThreshold {
			bestK = k
			bestScore = candidates[k].silhouette
		}
	}

	chosen := candidates[bestK]

	groupForBase := assignBaseClustersToGroups(baseLabels, chosen.labels)

	return GroupResult{
		K:            chosen.k,
		Labels:       chosen.labels,
		Centroids:    chosen.centroids,
		GroupForBase: groupForBase,
		Silhouette:   chosen.silhouette,
	}
}

// assignBaseClustersToGroups maps each base cluster to the group holding a
// plurality of its members, ties broken toward the lowest group label. This
// is the defensible default the specification calls out as underspecified.
func assignBaseClustersToGroups(baseLabels, groupLabels []int) map[int]int {
	votes := make(map[int]map[int]int) // base -> group -> count
	for i, base := range baseLabels {
		group := groupLabels[i]
		if votes[base] == nil {
			votes[base] = make(map[int]int)
		}
		votes[base][group]++
	}

	result := make(map[int]int, len(votes))
	for base, counts := range votes {
		bestGroup := -1
		bestCount := -1
		for group := 0; group <= maxKey(counts); group++ {
			c, ok := counts[group]
			if !ok {
				continue
			}
			if c > bestCount {
				bestCount = c
				bestGroup = group
			}
		}
		result[base] = bestGroup
	}
	return result
}

func maxKey(m map[int]int) int {
	max := 0
	for k := range m {
		if k > max {
			max = k
		}
	}
	return max
}
