// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package clustering

import (
	"math"
	"testing"

	"github.com/memoriauy/burbujas/internal/projection"
)

// TestSilhouette_SingletonClusterContributesZero pins the doc comment's
// claim: a singleton cluster's point has undefined a(i), and by
// convention contributes s(i) = 0 to the average rather than being
// dropped from both the numerator and the denominator.
func TestSilhouette_SingletonClusterContributesZero(t *testing.T) {
	points := []projection.Point{
		{X: -5, Y: -5},
		{X: -5, Y: -5},
		{X: -5, Y: -5},
		{X: 5, Y: 5}, // singleton
	}
	labels := []int{0, 0, 0, 1}

	got := Silhouette(points, labels, 2)

	// Each of the 3 clustered points has a(i) = 0, b(i) = dist to the
	// singleton, so s(i) = 1 for each. The singleton contributes 0.
	// Average over all 4 points: (1 + 1 + 1 + 0) / 4 = 0.75.
	want := 0.75
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("Silhouette = %f, want %f (singleton must count as a zero contribution, not be excluded)", got, want)
	}
}

func TestSilhouette_EmptyInputsReturnZero(t *testing.T) {
	if got := Silhouette(nil, nil, 2); got != 0 {
		t.Fatalf("Silhouette(nil, nil, 2) = %f, want 0", got)
	}
	if got := Silhouette([]projection.Point{{X: 0, Y: 0}}, []int{0}, 1); got != 0 {
		t.Fatalf("Silhouette with k < 2 = %f, want 0", got)
	}
}
