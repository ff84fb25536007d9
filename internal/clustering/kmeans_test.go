// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package clustering

import (
	"testing"

	"github.com/memoriauy/burbujas/internal/projection"
)

func TestWeightedKMeans_SeparatesTwoBlobs(t *testing.T) {
	points := make([]projection.Point, 0, 20)
	weights := make([]float64, 0, 20)
	for i := 0; i < 10; i++ {
		points = append(points, projection.Point{X: 0, Y: 0})
		weights = append(weights, 1)
	}
	for i := 0; i < 10; i++ {
		points = append(points, projection.Point{X: 10, Y: 10})
		weights = append(weights, 1)
	}

	cfg := DefaultKMeansConfig(2)
	res := WeightedKMeans(points, weights, cfg)

	first := res.Labels[0]
	for i := 1; i < 10; i++ {
		if res.Labels[i] != first {
			t.Fatalf("blob 1 should share a label, index %d differs", i)
		}
	}
	second := res.Labels[10]
	if second == first {
		t.Fatal("the two well-separated blobs should get different labels")
	}
}

func TestWeightedKMeans_IsDeterministicUnderFixedSeed(t *testing.T) {
	points := []projection.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 10, Y: 10}, {X: 11, Y: 11}}
	weights := []float64{1, 1, 1, 1}
	cfg := DefaultKMeansConfig(2)

	a := WeightedKMeans(points, weights, cfg)
	b := WeightedKMeans(points, weights, cfg)

	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			t.Fatalf("labels differ between identical runs at index %d: %d vs %d", i, a.Labels[i], b.Labels[i])
		}
	}
}

func TestKBase_ClampsToRange(t *testing.T) {
	cases := []struct {
		nVoters int
		want    int
	}{
		{nVoters: 50, want: 10},
		{nVoters: 500, want: 50},
		{nVoters: 2000, want: 100},
		{nVoters: 5, want: 5}, // never exceed nVoters itself
	}
	for _, c := range cases {
		if got := KBase(c.nVoters); got != c.want {
			t.Errorf("KBase(%d) = %d, want %d", c.nVoters, got, c.want)
		}
	}
}
