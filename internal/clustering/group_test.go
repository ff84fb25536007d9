// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package clustering

import (
	"testing"

	"github.com/memoriauy/burbujas/internal/projection"
)

// TestGroup_ScenarioA reproduces spec scenario A: two perfectly separated
// 20-voter blocs should settle on 2 groups with silhouette > 0.7.
func TestGroup_ScenarioA(t *testing.T) {
	points := make([]projection.Point, 0, 40)
	weights := make([]float64, 0, 40)
	for i := 0; i < 20; i++ {
		points = append(points, projection.Point{X: -5, Y: -5})
		weights = append(weights, 1)
	}
	for i := 0; i < 20; i++ {
		points = append(points, projection.Point{X: 5, Y: 5})
		weights = append(weights, 1)
	}
	baseLabels := make([]int, 40)
	for i := 20; i < 40; i++ {
		baseLabels[i] = 1
	}

	res := Group(points, weights, baseLabels, 42, 2, 5)
	if res.K != 2 {
		t.Fatalf("n_groups = %d, want 2", res.K)
	}
	if res.Silhouette <= 0.7 {
		t.Fatalf("silhouette = %f, want > 0.7", res.Silhouette)
	}

	firstGroup := res.Labels[0]
	for i := 1; i < 20; i++ {
		if res.Labels[i] != firstGroup {
			t.Fatalf("bloc 1 should share a group label")
		}
	}
	secondGroup := res.Labels[20]
	if secondGroup == firstGroup {
		t.Fatal("the two blocs must land in different groups")
	}
}

// TestGroup_ScenarioB reproduces spec scenario B: a single degenerate point
// mass still resolves to k_group = 2 (the threshold only prevents rising
// above 2, never choosing 2 itself).
func TestGroup_ScenarioB(t *testing.T) {
	points := make([]projection.Point, 60)
	weights := make([]float64, 60)
	for i := range points {
		points[i] = projection.Point{X: 0, Y: 0}
		weights[i] = 1
	}
	baseLabels := make([]int, 60)

	res := Group(points, weights, baseLabels, 42, 2, 5)
	if res.K != 2 {
		t.Fatalf("n_groups = %d, want 2", res.K)
	}
}

// TestGroup_RespectsConfiguredRange verifies an operator-configured
// [3, 4] range is actually searched instead of the package default.
func TestGroup_RespectsConfiguredRange(t *testing.T) {
	points := make([]projection.Point, 60)
	weights := make([]float64, 60)
	for i := range points {
		points[i] = projection.Point{X: 0, Y: 0}
		weights[i] = 1
	}
	baseLabels := make([]int, 60)

	res := Group(points, weights, baseLabels, 42, 3, 4)
	if res.K < 3 || res.K > 4 {
		t.Fatalf("n_groups = %d, want within configured [3, 4]", res.K)
	}
}

func TestAssignBaseClustersToGroups_PluralityWithLowestIDTieBreak(t *testing.T) {
	// Base cluster 0 has three members: two land in group 1, one in group 0.
	// Base cluster 1 has two members split evenly between groups 1 and 0.
	baseLabels := []int{0, 0, 0, 1, 1}
	groupLabels := []int{1, 1, 0, 1, 0}
	got := assignBaseClustersToGroups(baseLabels, groupLabels)
	if got[0] != 1 {
		t.Fatalf("expected plurality group 1, got %d", got[0])
	}
	if got[1] != 0 {
		t.Fatalf("expected tie broken toward lowest group 0, got %d", got[1])
	}
}
