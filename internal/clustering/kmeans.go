// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package clustering implements the two-level clustering pipeline: a fine
// weighted k-means base clustering (C4, ~100 clusters) reduced to 2-5
// interpretable group clusters via silhouette-driven selection with a
// parsimony bias (C5). The k-means implementation follows Lloyd's algorithm
// (Lloyd, 1982) with k-means++ seeding (Arthur & Vassilgwili, 2007) and
// supports per-point weights so voters who cast more votes pull centroids
// harder, which sklearn's KMeans (the reference implementation this was
// distilled from) does not actually support despite its callers' intent.
package clustering

import (
	"math"
	"math/rand"

	"github.com/memoriauy/burbujas/internal/projection"
)

// KMeansConfig bounds a single k-means run.
type KMeansConfig struct {
	K            int
	Restarts     int
	MaxIter      int
	Seed         int64
}

// DefaultKMeansConfig matches the restart/iteration caps named throughout
// the base and group clustering algorithms.
func DefaultKMeansConfig(k int) KMeansConfig {
	return KMeansConfig{K: k, Restarts: 10, MaxIter: 20, Seed: 42}
}

// KMeansResult is one run's winning assignment.
type KMeansResult struct {
	Labels    []int
	Centroids []projection.Point
	Inertia   float64
}

// WeightedKMeans clusters points into cfg.K groups, weighting each point's
// contribution to centroid updates by weights[i]. It performs cfg.Restarts
// independent k-means++ initializations and keeps the lowest-inertia
// result. Ties in nearest-centroid distance are broken toward the smallest
// centroid index, matching the tie-break named for the base clusterer and
// applied uniformly here since the group clusterer needs the same
// determinism.
func WeightedKMeans(points []projection.Point, weights []float64, cfg KMeansConfig) KMeansResult {
	rng := rand.New(rand.NewSource(cfg.Seed))

	var best KMeansResult
	best.Inertia = math.Inf(1)

	for restart := 0; restart < cfg.Restarts; restart++ {
		centroids := kmeansPlusPlusInit(points, weights, cfg.K, rng)
		labels, inertia := lloyd(points, weights, centroids, cfg.MaxIter)
		if inertia < best.Inertia {
			best = KMeansResult{Labels: labels, Centroids: centroids, Inertia: inertia}
		}
	}
	return best
}

func kmeansPlusPlusInit(points []projection.Point, weights []float64, k int, rng *rand.Rand) []projection.Point {
	n := len(points)
	centroids := make([]projection.Point, 0, k)

	first := rng.Intn(n)
	centroids = append(centroids, points[first])

	distSq := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			d := minDistSq(p, centroids)
			distSq[i] = d * weights[i]
			total += distSq[i]
		}
		if total == 0 {
			// All remaining points coincide with an existing centroid;
			// pick uniformly to keep the loop from stalling.
			centroids = append(centroids, points[rng.Intn(n)])
			continue
		}
		target := rng.Float64() * total
		var cum float64
		chosen := n - 1
		for i, d := range distSq {
			cum += d
			if cum >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, points[chosen])
	}
	return centroids
}

func minDistSq(p projection.Point, centroids []projection.Point) float64 {
	best := math.Inf(1)
	for _, c := range centroids {
		d := distSq(p, c)
		if d < best {
			best = d
		}
	}
	return best
}

func distSq(a, b projection.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// lloyd runs Lloyd's algorithm to convergence or maxIter, whichever comes
// first, and returns the final labels and weighted inertia.
func lloyd(points []projection.Point, weights []float64, centroids []projection.Point, maxIter int) ([]int, float64) {
	k := len(centroids)
	n := len(points)
	labels := make([]int, n)

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			label := nearestCentroid(p, centroids)
			if label != labels[i] {
				labels[i] = label
				changed = true
			}
		}

		sumX := make([]float64, k)
		sumY := make([]float64, k)
		sumW := make([]float64, k)
		for i, p := range points {
			c := labels[i]
			w := weights[i]
			sumX[c] += p.X * w
			sumY[c] += p.Y * w
			sumW[c] += w
		}
		for c := 0; c < k; c++ {
			if sumW[c] > 0 {
				centroids[c] = projection.Point{X: sumX[c] / sumW[c], Y: sumY[c] / sumW[c]}
			}
			// A centroid with no assigned mass keeps its previous position;
			// re-seeding it would break determinism across iterations.
		}

		if !changed && iter > 0 {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		inertia += distSq(p, centroids[labels[i]]) * weights[i]
	}
	return labels, inertia
}

// nearestCentroid returns the lowest-index centroid at minimum distance.
func nearestCentroid(p projection.Point, centroids []projection.Point) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		d := distSq(p, centroid)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}
