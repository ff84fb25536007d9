// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package lineage implements C8: classifying how group clusters in two
// consecutive completed runs relate to each other by voter-set overlap.
// Label equality across runs is meaningless (k-means assigns arbitrary
// ids), so this is the only supported way to track a "bubble" over time.
package lineage

import (
	"github.com/google/uuid"

	"github.com/memoriauy/burbujas/internal/models"
)

// GroupMembers is one group cluster's voter set within a run, keyed by
// LocalID for the caller's convenience when building the result rows.
type GroupMembers struct {
	LocalID int
	Voters  map[models.VoterID]struct{}
}

// minorOverlapFloor is the overlap count at or below which a pair that
// would be classified "minor" is dropped rather than emitted.
const minorOverlapFloor = 5

// Compute classifies every (old, new) group pair per §4.7. fromRunID and
// toRunID identify the runs the rows belong to.
func Compute(fromRunID, toRunID uuid.UUID, oldGroups, newGroups []GroupMembers) []models.Lineage {
	var out []models.Lineage
	for _, o := range oldGroups {
		for _, n := range newGroups {
			overlap := intersectionSize(o.Voters, n.Voters)
			if overlap == 0 {
				continue
			}
			pctFrom := float64(overlap) / float64(len(o.Voters))
			pctTo := float64(overlap) / float64(len(n.Voters))

			kind, emit := classify(pctFrom, pctTo, overlap)
			if !emit {
				continue
			}

			out = append(out, models.Lineage{
				FromRunID:    fromRunID,
				FromLocalID:  o.LocalID,
				ToRunID:      toRunID,
				ToLocalID:    n.LocalID,
				OverlapCount: overlap,
				PctFrom:      pctFrom,
				PctTo:        pctTo,
				Kind:         kind,
			})
		}
	}
	return out
}

func classify(pctFrom, pctTo float64, overlap int) (models.LineageKind, bool) {
	switch {
	case pctFrom > 0.8 && pctTo > 0.8:
		return models.LineageContinuation, true
	case pctFrom > 0.3:
		return models.LineageSplit, true
	case pctTo > 0.3:
		return models.LineageMerge, true
	default:
		return models.LineageMinor, overlap > minorOverlapFloor
	}
}

func intersectionSize(a, b map[models.VoterID]struct{}) int {
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	var count int
	for v := range small {
		if _, ok := big[v]; ok {
			count++
		}
	}
	return count
}
