// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package matrix

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/memoriauy/burbujas/internal/clustererr"
	"github.com/memoriauy/burbujas/internal/models"
)

type fakeStore struct {
	votes  []models.Vote
	claims map[string]string
}

func (f *fakeStore) VotesSince(ctx context.Context, since, now time.Time) ([]models.Vote, error) {
	var out []models.Vote
	for _, v := range f.votes {
		if v.Timestamp.After(since) && !v.Timestamp.After(now) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) Claims(ctx context.Context) (map[string]string, error) {
	return f.claims, nil
}

func voter(kind models.VoterKind, id string) models.VoterID {
	return models.VoterID{Kind: kind, ID: id}
}

func TestBuild_EncodingAndEpsilon(t *testing.T) {
	now := time.Now()
	votes := []models.Vote{
		{Voter: voter(models.VoterKindRegistered, "u1"), ItemID: "i1", Opinion: models.OpinionPositive, Timestamp: now.Add(-time.Hour)},
		{Voter: voter(models.VoterKindRegistered, "u1"), ItemID: "i2", Opinion: models.OpinionNeutral, Timestamp: now.Add(-time.Hour)},
		{Voter: voter(models.VoterKindRegistered, "u1"), ItemID: "i3", Opinion: models.OpinionNegative, Timestamp: now.Add(-time.Hour)},
	}
	b := &Builder{Store: &fakeStore{votes: votes}, Logger: zerolog.Nop()}
	res, err := b.Build(context.Background(), BuildParams{
		Now: now, WindowDays: 30, MinVoters: 1, MinVotesPerVoter: 3,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	row, ok := res.VoterIndex.Row(voter(models.VoterKindRegistered, "u1"))
	if !ok {
		t.Fatal("voter not indexed")
	}
	if res.Matrix.RowNNZ[row] != 3 {
		t.Fatalf("row_nnz = %d, want 3", res.Matrix.RowNNZ[row])
	}

	col, _ := res.ItemIndex.Col("i2")
	v, ok := res.Matrix.Get(row, col)
	if !ok || v != res.Matrix.Epsilon {
		t.Fatalf("neutral vote not stored as epsilon: got %v, ok=%v", v, ok)
	}
}

func TestBuild_InsufficientVoters(t *testing.T) {
	now := time.Now()
	votes := []models.Vote{
		{Voter: voter(models.VoterKindRegistered, "u1"), ItemID: "i1", Opinion: models.OpinionPositive, Timestamp: now},
		{Voter: voter(models.VoterKindRegistered, "u1"), ItemID: "i2", Opinion: models.OpinionPositive, Timestamp: now},
		{Voter: voter(models.VoterKindRegistered, "u1"), ItemID: "i3", Opinion: models.OpinionPositive, Timestamp: now},
	}
	b := &Builder{Store: &fakeStore{votes: votes}, Logger: zerolog.Nop()}
	_, err := b.Build(context.Background(), BuildParams{
		Now: now, WindowDays: 30, MinVoters: 2, MinVotesPerVoter: 3,
	})
	var ce *clustererr.Error
	if err == nil {
		t.Fatal("expected InsufficientVoters error")
	}
	if !asError(err, &ce) || ce.Kind != clustererr.KindInsufficientVoters {
		t.Fatalf("got err %v, want InsufficientVoters", err)
	}
}

func asError(err error, target **clustererr.Error) bool {
	if ce, ok := err.(*clustererr.Error); ok {
		*target = ce
		return true
	}
	return false
}

func TestReconcileIdentities_RegisteredWinsOverClaimedSession(t *testing.T) {
	now := time.Now()
	sess := voter(models.VoterKindSession, "s1")
	reg := voter(models.VoterKindRegistered, "u1")
	votes := []models.Vote{
		// Session vote cast before the user registered/claimed identity.
		{Voter: sess, ItemID: "i1", Opinion: models.OpinionNegative, Timestamp: now.Add(-2 * time.Hour)},
		// Same person, now voting directly as the registered identity.
		{Voter: reg, ItemID: "i1", Opinion: models.OpinionPositive, Timestamp: now.Add(-3 * time.Hour)},
	}
	claims := map[string]string{"s1": "u1"}

	out := reconcileIdentities(votes, claims)
	if len(out) != 1 {
		t.Fatalf("expected exactly one surviving vote, got %d", len(out))
	}
	if out[0].Opinion != models.OpinionPositive {
		t.Fatalf("registered identity's vote should win despite being older, got %v", out[0].Opinion)
	}
}

func TestReconcileIdentities_MostRecentWinsWhenNeitherRegistered(t *testing.T) {
	now := time.Now()
	sess1 := voter(models.VoterKindSession, "s1")
	votes := []models.Vote{
		{Voter: sess1, ItemID: "i1", Opinion: models.OpinionNegative, Timestamp: now.Add(-2 * time.Hour)},
		{Voter: sess1, ItemID: "i1", Opinion: models.OpinionPositive, Timestamp: now.Add(-1 * time.Hour)},
	}
	out := reconcileIdentities(votes, nil)
	if len(out) != 1 || out[0].Opinion != models.OpinionPositive {
		t.Fatalf("most recent vote should survive, got %+v", out)
	}
}
