// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package consensus implements C6: per-cluster consensus, per-(cluster,
// item) voting patterns, and pairwise voter similarity. All three are
// closed-form aggregations over the votes cast by a cluster's members;
// none of them mutate the matrix or the clustering they read from.
package consensus

import (
	"math"

	"github.com/memoriauy/burbujas/internal/matrix"
	"github.com/memoriauy/burbujas/internal/models"
)

// ItemCounts is the raw positive/negative/neutral tally for one item within
// one cluster.
type ItemCounts struct {
	Pos, Neg, Neu int
}

func (c ItemCounts) Total() int { return c.Pos + c.Neg + c.Neu }

// Pattern is C6's per-(cluster, item) output row.
type Pattern struct {
	ItemCol   int
	Counts    ItemCounts
	Consensus float64
	Majority  models.Majority
}

// ClusterVotes tallies, per item column, the vote counts cast by a set of
// voter rows. Items with zero votes from the cluster are simply absent from
// the returned map, matching the "no row" requirement for
// ClusterVotingPattern.
func ClusterVotes(m *matrix.Sparse, memberRows []int) map[int]ItemCounts {
	counts := make(map[int]ItemCounts)
	for _, row := range memberRows {
		for col, v := range m.Row(row) {
			c := counts[col]
			switch matrix.Decoded(v, m.Epsilon) {
			case models.OpinionPositive:
				c.Pos++
			case models.OpinionNegative:
				c.Neg++
			default:
				c.Neu++
			}
			counts[col] = c
		}
	}
	return counts
}

// entropyLog3 is H_max = log(3), the maximum possible entropy over a
// three-outcome distribution.
var entropyLog3 = math.Log(3)

// itemConsensus turns one item's tri-valued vote distribution into a
// [0, 1] consensus score via Shannon entropy: unanimous agreement gives
// H = 0 and consensus = 1; an even three-way split gives H = H_max and
// consensus = 0.
func itemConsensus(c ItemCounts) float64 {
	t := c.Total()
	if t == 0 {
		return 0
	}
	var h float64
	for _, count := range []int{c.Pos, c.Neg, c.Neu} {
		if count == 0 {
			continue
		}
		q := float64(count) / float64(t)
		h -= q * math.Log(q)
	}
	return 1 - h/entropyLog3
}

// majorityOf applies the +  >  -  >  0 tie-break.
func majorityOf(c ItemCounts) models.Majority {
	switch {
	case c.Total() == 0:
		return models.MajorityNone
	case c.Pos >= c.Neg && c.Pos >= c.Neu:
		return models.MajorityPositive
	case c.Neg >= c.Neu:
		return models.MajorityNegative
	default:
		return models.MajorityNeutral
	}
}

// ClusterConsensus computes c(C): the mean, over every item the cluster's
// members voted on at least once, of that item's entropy-based consensus
// contribution.
func ClusterConsensus(votes map[int]ItemCounts) float64 {
	if len(votes) == 0 {
		return 0
	}
	var sum float64
	for _, c := range votes {
		sum += itemConsensus(c)
	}
	return sum / float64(len(votes))
}

// Patterns builds one Pattern per item the cluster's members voted on.
func Patterns(votes map[int]ItemCounts) []Pattern {
	out := make([]Pattern, 0, len(votes))
	for col, c := range votes {
		out = append(out, Pattern{
			ItemCol:   col,
			Counts:    c,
			Consensus: itemConsensus(c),
			Majority:  majorityOf(c),
		})
	}
	return out
}

// VoterSimilarity is the fraction of co-voted items on which two voters'
// opinions match exactly. It returns (0, false) when the voters share no
// co-voted item, which callers must render as a null / undefined result,
// never as a similarity of zero.
func VoterSimilarity(m *matrix.Sparse, rowA, rowB int) (float64, bool) {
	a := m.Row(rowA)
	b := m.Row(rowB)

	// Iterate the smaller row for efficiency; correctness does not depend
	// on which one we pick.
	if len(b) < len(a) {
		a, b = b, a
	}

	var coVoted, matches int
	for col, va := range a {
		vb, ok := b[col]
		if !ok {
			continue
		}
		coVoted++
		if matrix.Decoded(va, m.Epsilon) == matrix.Decoded(vb, m.Epsilon) {
			matches++
		}
	}
	if coVoted == 0 {
		return 0, false
	}
	return float64(matches) / float64(coVoted), true
}
