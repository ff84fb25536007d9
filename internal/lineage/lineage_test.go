// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package lineage

import (
	"testing"

	"github.com/google/uuid"

	"github.com/memoriauy/burbujas/internal/models"
)

func voterSet(ids ...string) map[models.VoterID]struct{} {
	out := make(map[models.VoterID]struct{}, len(ids))
	for _, id := range ids {
		out[models.VoterID{Kind: models.VoterKindRegistered, ID: id}] = struct{}{}
	}
	return out
}

func TestCompute_ScenarioD_Continuation(t *testing.T) {
	voters := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		voters = append(voters, string(rune('a'+i%26))+string(rune('0'+i/26)))
	}
	old := []GroupMembers{{LocalID: 0, Voters: voterSet(voters...)}}
	newG := []GroupMembers{{LocalID: 7, Voters: voterSet(voters...)}}

	rows := Compute(uuid.New(), uuid.New(), old, newG)
	if len(rows) != 1 {
		t.Fatalf("expected exactly one lineage row, got %d", len(rows))
	}
	if rows[0].Kind != models.LineageContinuation {
		t.Fatalf("expected continuation, got %v", rows[0].Kind)
	}
	if rows[0].PctFrom <= 0.8 || rows[0].PctTo <= 0.8 {
		t.Fatalf("continuation requires both pct > 0.8, got from=%f to=%f", rows[0].PctFrom, rows[0].PctTo)
	}
}

func TestCompute_ScenarioE_Split(t *testing.T) {
	all := make([]string, 100)
	for i := range all {
		all[i] = string(rune('A'+i%26)) + string(rune('0'+i/26))
	}
	old := []GroupMembers{{LocalID: 0, Voters: voterSet(all...)}}
	ga := GroupMembers{LocalID: 1, Voters: voterSet(all[:60]...)}
	gb := GroupMembers{LocalID: 2, Voters: voterSet(all[60:]...)}

	rows := Compute(uuid.New(), uuid.New(), old, []GroupMembers{ga, gb})
	if len(rows) != 2 {
		t.Fatalf("expected 2 lineage rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Kind != models.LineageSplit {
			t.Fatalf("expected split, got %v", r.Kind)
		}
	}
}

func TestClassify_MinorRequiresOverlapAboveFloor(t *testing.T) {
	if _, emit := classify(0.1, 0.1, 5); emit {
		t.Fatal("overlap of exactly 5 should not be emitted as minor")
	}
	if kind, emit := classify(0.1, 0.1, 6); !emit || kind != models.LineageMinor {
		t.Fatalf("overlap of 6 should emit as minor, got kind=%v emit=%v", kind, emit)
	}
}
