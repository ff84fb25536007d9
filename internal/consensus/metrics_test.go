// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package consensus

import (
	"testing"

	"github.com/memoriauy/burbujas/internal/matrix"
	"github.com/memoriauy/burbujas/internal/models"
)

func TestItemConsensus_UnanimousIsOne(t *testing.T) {
	c := ItemCounts{Pos: 10, Neg: 0, Neu: 0}
	if got := itemConsensus(c); got != 1.0 {
		t.Fatalf("unanimous consensus = %f, want 1.0", got)
	}
}

func TestItemConsensus_EvenSplitIsZero(t *testing.T) {
	c := ItemCounts{Pos: 10, Neg: 10, Neu: 10}
	if got := itemConsensus(c); got > 1e-9 {
		t.Fatalf("even three-way split consensus = %f, want ~0", got)
	}
}

func TestClusterVotes_NeutralVsMissing(t *testing.T) {
	// Scenario C from the spec: 50 voters, items i1/i2. 25 vote 0 on i1 and
	// + on i2; 25 do not vote on i1 and vote - on i2.
	m := matrix.NewSparse(50, 2, 1e-4)
	for i := 0; i < 25; i++ {
		m.Set(i, 0, m.Epsilon) // explicit neutral on i1
		m.Set(i, 1, 1.0)
	}
	for i := 25; i < 50; i++ {
		// no vote on i1 at all
		m.Set(i, 1, -1.0)
	}

	rows := make([]int, 50)
	for i := range rows {
		rows[i] = i
	}
	votes := ClusterVotes(m, rows)

	i1 := votes[0]
	if i1.Total() != 25 {
		t.Fatalf("i1 total votes = %d, want 25 (missing voters must not leak in)", i1.Total())
	}
	if i1.Neu != 25 || i1.Pos != 0 || i1.Neg != 0 {
		t.Fatalf("i1 counts = %+v, want all-neutral 25", i1)
	}
}

func TestMajorityOf_TieBreakOrder(t *testing.T) {
	if got := majorityOf(ItemCounts{Pos: 5, Neg: 5, Neu: 5}); got != models.MajorityPositive {
		t.Fatalf("three-way tie should favor +, got %v", got)
	}
	if got := majorityOf(ItemCounts{Pos: 0, Neg: 5, Neu: 5}); got != models.MajorityNegative {
		t.Fatalf("neg/neu tie should favor -, got %v", got)
	}
	if got := majorityOf(ItemCounts{}); got != models.MajorityNone {
		t.Fatalf("no votes should produce MajorityNone, got %v", got)
	}
}

func TestVoterSimilarity_UndefinedWithNoCoVotedItems(t *testing.T) {
	m := matrix.NewSparse(2, 2, 1e-4)
	m.Set(0, 0, 1.0)
	m.Set(1, 1, 1.0)
	_, ok := VoterSimilarity(m, 0, 1)
	if ok {
		t.Fatal("expected undefined similarity with zero co-voted items")
	}
}

func TestVoterSimilarity_FractionOfMatches(t *testing.T) {
	m := matrix.NewSparse(2, 2, 1e-4)
	m.Set(0, 0, 1.0)
	m.Set(0, 1, -1.0)
	m.Set(1, 0, 1.0)
	m.Set(1, 1, 1.0)
	sim, ok := VoterSimilarity(m, 0, 1)
	if !ok {
		t.Fatal("expected a defined similarity")
	}
	if sim != 0.5 {
		t.Fatalf("similarity = %f, want 0.5", sim)
	}
}
