// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package clustering

import (
	"math"

	"github.com/memoriauy/burbujas/internal/projection"
)

// Silhouette computes the mean silhouette coefficient (Rousseeuw, 1987) of
// a labeling over points. Points in a singleton cluster contribute 0, the
// conventional definition for a(i) undefined.
func Silhouette(points []projection.Point, labels []int, k int) float64 {
	n := len(points)
	if n == 0 || k < 2 {
		return 0
	}

	members := make([][]int, k)
	for i, c := range labels {
		members[c] = append(members[c], i)
	}

	var total float64
	var counted int
	for i, p := range points {
		own := labels[i]
		if len(members[own]) <= 1 {
			// a(i) is undefined for a singleton cluster; by convention s(i) = 0.
			counted++
			continue
		}
		a := meanDist(p, points, members[own], i)

		b := -1.0
		for c := 0; c < k; c++ {
			if c == own || len(members[c]) == 0 {
				continue
			}
			d := meanDist(p, points, members[c], -1)
			if b < 0 || d < b {
				b = d
			}
		}
		if b < 0 {
			continue // no other non-empty cluster to compare against
		}

		m := a
		if b > m {
			m = b
		}
		if m == 0 {
			continue
		}
		total += (b - a) / m
		counted++
	}
	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}

// meanDist averages the Euclidean distance from p to every point in idxs,
// skipping exclude (p's own index, when idxs is p's own cluster).
func meanDist(p projection.Point, points []projection.Point, idxs []int, exclude int) float64 {
	var sum float64
	var count int
	for _, j := range idxs {
		if j == exclude {
			continue
		}
		dx := p.X - points[j].X
		dy := p.Y - points[j].Y
		sum += math.Sqrt(dx*dx + dy*dy)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
