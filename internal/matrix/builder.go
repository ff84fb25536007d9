// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package matrix

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/memoriauy/burbujas/internal/clustererr"
	"github.com/memoriauy/burbujas/internal/models"
	"github.com/memoriauy/burbujas/internal/votestore"
)

// BuildParams is the filter a Builder applies to the vote store snapshot.
type BuildParams struct {
	Now              time.Time
	WindowDays       int
	MinVoters        int
	MinVotesPerVoter int
	Epsilon          float64
}

// Result is the output of Build: the sparse matrix plus its index maps.
type Result struct {
	Matrix     *Sparse
	VoterIndex *VoterIndex
	ItemIndex  *ItemIndex
}

// Builder turns a filtered vote stream into a Result. It holds no state
// between calls; every Build call reads a fresh snapshot.
type Builder struct {
	Store  votestore.Store
	Logger zerolog.Logger
}

// Build implements C2's four operations: read the windowed snapshot,
// reconcile voter identities, drop under-active voters, then materialize
// the sparse matrix and its index maps.
func (b *Builder) Build(ctx context.Context, p BuildParams) (*Result, error) {
	since := p.Now.AddDate(0, 0, -p.WindowDays)

	votes, err := b.Store.VotesSince(ctx, since, p.Now)
	if err != nil {
		return nil, clustererr.Wrap(clustererr.KindStoreUnavailable, "reading vote snapshot", err)
	}
	claims, err := b.Store.Claims(ctx)
	if err != nil {
		return nil, clustererr.Wrap(clustererr.KindStoreUnavailable, "reading claim events", err)
	}

	reconciled := reconcileIdentities(votes, claims)

	byVoter := make(map[models.VoterID][]models.Vote)
	for _, v := range reconciled {
		byVoter[v.Voter] = append(byVoter[v.Voter], v)
	}

	qualified := make([]models.VoterID, 0, len(byVoter))
	for voter, vs := range byVoter {
		if len(vs) >= p.MinVotesPerVoter {
			qualified = append(qualified, voter)
		}
	}
	if len(qualified) < p.MinVoters {
		return nil, clustererr.New(clustererr.KindInsufficientVoters,
			"fewer than min_voters remain after filtering")
	}

	sort.Slice(qualified, func(i, j int) bool {
		if qualified[i].Kind != qualified[j].Kind {
			return qualified[i].Kind < qualified[j].Kind
		}
		return qualified[i].ID < qualified[j].ID
	})
	voterIdx := NewVoterIndex(qualified)

	itemSet := make(map[string]struct{})
	for _, voter := range qualified {
		for _, v := range byVoter[voter] {
			itemSet[v.ItemID] = struct{}{}
		}
	}
	items := make([]string, 0, len(itemSet))
	for it := range itemSet {
		items = append(items, it)
	}
	sort.Strings(items)
	itemIdx := NewItemIndex(items)

	epsilon := p.Epsilon
	if epsilon == 0 {
		epsilon = models.NeutralEpsilon
	}
	m := NewSparse(voterIdx.Len(), itemIdx.Len(), epsilon)
	for _, voter := range qualified {
		row, _ := voterIdx.Row(voter)
		for _, v := range byVoter[voter] {
			col, ok := itemIdx.Col(v.ItemID)
			if !ok {
				continue
			}
			m.Set(row, col, encode(v.Opinion, epsilon))
		}
	}

	b.Logger.Info().
		Int("n_voters", m.NVoters).
		Int("n_items", m.NItems).
		Msg("vote matrix built")

	return &Result{Matrix: m, VoterIndex: voterIdx, ItemIndex: itemIdx}, nil
}

// encode maps an opinion to its stored numeric value.
func encode(op models.Opinion, epsilon float64) float64 {
	switch op {
	case models.OpinionPositive:
		return 1.0
	case models.OpinionNegative:
		return -1.0
	default:
		return epsilon
	}
}

// reconcileIdentities substitutes a claimed session's votes with the
// registered identity, then resolves (voter, item) duplicates: the vote
// belonging to the registered identity wins; otherwise the most recent by
// timestamp.
func reconcileIdentities(votes []models.Vote, claims map[string]string) []models.Vote {
	type key struct {
		voter models.VoterID
		item  string
	}

	// fromClaim tracks which surviving votes came from a substitution, so
	// the dedup step below can prefer them regardless of timestamp.
	type entry struct {
		vote      models.Vote
		fromClaim bool
	}

	best := make(map[key]entry)
	for _, v := range votes {
		claimedFrom := false
		if v.Voter.Kind == models.VoterKindSession {
			if registeredID, ok := claims[v.Voter.ID]; ok {
				v.Voter = models.VoterID{Kind: models.VoterKindRegistered, ID: registeredID}
				claimedFrom = true
			}
		}

		k := key{voter: v.Voter, item: v.ItemID}
		cur, exists := best[k]
		if !exists {
			best[k] = entry{vote: v, fromClaim: claimedFrom}
			continue
		}

		switch {
		case cur.fromClaim && !claimedFrom:
			// v was cast directly by the registered identity; it always
			// wins over a vote merely substituted in from a claimed session.
			best[k] = entry{vote: v, fromClaim: false}
		case !cur.fromClaim && claimedFrom:
			// keep cur: it belongs to the registered identity directly
		case v.Timestamp.After(cur.vote.Timestamp):
			best[k] = entry{vote: v, fromClaim: claimedFrom}
		}
	}

	out := make([]models.Vote, 0, len(best))
	for _, e := range best {
		out = append(out, e.vote)
	}
	return out
}
