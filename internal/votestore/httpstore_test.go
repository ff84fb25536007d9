// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package votestore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/memoriauy/burbujas/internal/models"
)

func TestHTTPStoreVotesSince(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/votes" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("Authorization header = %q, want Bearer test-key", got)
		}
		_ = json.NewEncoder(w).Encode([]voteDTO{
			{VoterKind: "registered", VoterID: "v1", ItemID: "item-1", Opinion: "+", Timestamp: time.Now()},
		})
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, "test-key")
	votes, err := s.VotesSince(context.Background(), time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("VotesSince: %v", err)
	}
	if len(votes) != 1 || votes[0].Voter.ID != "v1" || votes[0].Opinion != models.OpinionPositive {
		t.Fatalf("unexpected votes: %+v", votes)
	}
}

func TestHTTPStoreClaims(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"session-1": "voter-1"})
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, "")
	claims, err := s.Claims(context.Background())
	if err != nil {
		t.Fatalf("Claims: %v", err)
	}
	if claims["session-1"] != "voter-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestHTTPStoreNonOKStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, "")
	if _, err := s.Claims(context.Background()); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}
