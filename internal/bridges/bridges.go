// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package bridges implements a supplementary analysis beyond the core
// pipeline: identifying "bridge" voters whose votes agree with more than
// one group cluster's majority opinion, a signal the reference
// implementation surfaced as a standalone bridge-builder network view. The
// core pipeline does not depend on this package; it exists purely as
// additional Query API context for a voter detail view.
package bridges

import (
	"sort"

	"github.com/memoriauy/burbujas/internal/consensus"
	"github.com/memoriauy/burbujas/internal/matrix"
	"github.com/memoriauy/burbujas/internal/models"
)

// GroupPattern is one group's resolved per-item majority, keyed by item
// column, as already computed by consensus.Patterns for that group.
type GroupPattern struct {
	GroupLocalID int
	ByItem       map[int]models.Majority
}

// Affinity is one voter's agreement score with one group that is not their
// own.
type Affinity struct {
	GroupLocalID int
	AgreeCount   int
	TotalCount   int
}

// Score returns the fraction of the voter's shared-item votes that agree
// with this group's majority, or 0 if they share no items.
func (a Affinity) Score() float64 {
	if a.TotalCount == 0 {
		return 0
	}
	return float64(a.AgreeCount) / float64(a.TotalCount)
}

// Bridge describes one voter's standing as a connector between groups.
type Bridge struct {
	Voter      models.VoterID
	HomeGroup  int
	Affinities []Affinity // one entry per non-home group the voter shares items with
}

// Detect scores, for every voter row, their agreement with every group
// other than groupOfVoter[row]. A voter whose affinity with a second group
// clears minAffinity is a bridge candidate between their home group and
// that one.
func Detect(m *matrix.Sparse, groupOfVoter []int, groups []GroupPattern, voterIdx *matrix.VoterIndex, minAffinity float64) []Bridge {
	var bridges []Bridge

	for row := 0; row < m.NVoters; row++ {
		home := groupOfVoter[row]
		var affinities []Affinity

		for _, g := range groups {
			if g.GroupLocalID == home {
				continue
			}
			var agree, total int
			for col, v := range m.Row(row) {
				majority, ok := g.ByItem[col]
				if !ok || majority == models.MajorityNone {
					continue
				}
				total++
				voterOpinion := matrix.Decoded(v, m.Epsilon)
				if opinionMatchesMajority(voterOpinion, majority) {
					agree++
				}
			}
			if total == 0 {
				continue
			}
			affinities = append(affinities, Affinity{GroupLocalID: g.GroupLocalID, AgreeCount: agree, TotalCount: total})
		}

		var qualifying []Affinity
		for _, a := range affinities {
			if a.Score() >= minAffinity {
				qualifying = append(qualifying, a)
			}
		}
		if len(qualifying) == 0 {
			continue
		}
		sort.Slice(qualifying, func(i, j int) bool { return qualifying[i].Score() > qualifying[j].Score() })
		bridges = append(bridges, Bridge{Voter: voterIdx.Voter(row), HomeGroup: home, Affinities: qualifying})
	}

	return bridges
}

func opinionMatchesMajority(op models.Opinion, maj models.Majority) bool {
	switch maj {
	case models.MajorityPositive:
		return op == models.OpinionPositive
	case models.MajorityNegative:
		return op == models.OpinionNegative
	case models.MajorityNeutral:
		return op == models.OpinionNeutral
	default:
		return false
	}
}

// GroupPatternsFrom builds the GroupPattern slice Detect needs from the
// per-cluster patterns consensus.Patterns already produced for each group.
func GroupPatternsFrom(groupLocalID int, patterns []consensus.Pattern) GroupPattern {
	byItem := make(map[int]models.Majority, len(patterns))
	for _, p := range patterns {
		byItem[p.ItemCol] = p.Majority
	}
	return GroupPattern{GroupLocalID: groupLocalID, ByItem: byItem}
}
