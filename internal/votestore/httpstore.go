// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package votestore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/memoriauy/burbujas/internal/models"
)

// requestsPerSecond caps how hard a single run hammers the platform's
// voting API; every request this store sends waits on the limiter first.
const requestsPerSecond = 10

// HTTPStore reads votes and claim events from the platform's voting API
// over HTTP. It is the only concrete Store the core ships with; the vote
// database itself is owned by the platform (C1), not the clustering
// service.
type HTTPStore struct {
	BaseURL    string
	APIKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTPStore builds an HTTPStore against baseURL, authenticating every
// request with apiKey as a bearer token.
func NewHTTPStore(baseURL, apiKey string) *HTTPStore {
	return &HTTPStore{
		BaseURL: baseURL,
		APIKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

type voteDTO struct {
	VoterKind string    `json:"voter_kind"`
	VoterID   string    `json:"voter_id"`
	ItemID    string    `json:"item_id"`
	Opinion   string    `json:"opinion"`
	Timestamp time.Time `json:"timestamp"`
}

// VotesSince implements Store with a single GET of the platform's
// /votes?since=&until= endpoint, decoding the whole response as one JSON
// array; it does not page.
func (s *HTTPStore) VotesSince(ctx context.Context, since, now time.Time) ([]models.Vote, error) {
	q := url.Values{}
	q.Set("since", since.UTC().Format(time.RFC3339))
	q.Set("until", now.UTC().Format(time.RFC3339))

	var dtos []voteDTO
	if err := s.getJSON(ctx, "/votes?"+q.Encode(), &dtos); err != nil {
		return nil, fmt.Errorf("fetching votes: %w", err)
	}

	votes := make([]models.Vote, 0, len(dtos))
	for _, d := range dtos {
		votes = append(votes, models.Vote{
			Voter:     models.VoterID{Kind: models.VoterKind(d.VoterKind), ID: d.VoterID},
			ItemID:    d.ItemID,
			Opinion:   models.Opinion(d.Opinion),
			Timestamp: d.Timestamp,
		})
	}
	return votes, nil
}

// Claims implements Store against /voters/claims, which returns the
// current session -> registered voter mapping as a flat JSON object.
func (s *HTTPStore) Claims(ctx context.Context) (map[string]string, error) {
	var claims map[string]string
	if err := s.getJSON(ctx, "/voters/claims", &claims); err != nil {
		return nil, fmt.Errorf("fetching claims: %w", err)
	}
	return claims, nil
}

// Items implements the optional ItemLister capability against
// /items?since=&until=.
func (s *HTTPStore) Items(ctx context.Context, since, now time.Time) ([]string, error) {
	q := url.Values{}
	q.Set("since", since.UTC().Format(time.RFC3339))
	q.Set("until", now.UTC().Format(time.RFC3339))

	var ids []string
	if err := s.getJSON(ctx, "/items?"+q.Encode(), &ids); err != nil {
		return nil, fmt.Errorf("fetching items: %w", err)
	}
	return ids, nil
}

func (s *HTTPStore) getJSON(ctx context.Context, path string, v interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
