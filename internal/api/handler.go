// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/memoriauy/burbujas/internal/clustererr"
	"github.com/memoriauy/burbujas/internal/models"
	"github.com/memoriauy/burbujas/internal/store"
	"github.com/memoriauy/burbujas/internal/wshub"
)

var validate = validator.New()

// Runner is the subset of runner.Coordinator the trigger endpoint calls;
// kept as an interface so handler tests can fake it without a real lease
// store and DuckDB database behind it.
type Runner interface {
	Run(ctx context.Context, params models.RunParameters) (models.RunSummary, error)
}

// Handler serves the read-only Query API (C9) plus the manual trigger.
type Handler struct {
	Store         *store.Store
	Runner        Runner
	WSHub         *wshub.Hub
	Logger        zerolog.Logger
	DefaultParams models.RunParameters
}

// latestRunResponse is the shape returned by GET /runs/latest: the run
// summary plus everything a dashboard needs to render the bubble chart in
// one round trip.
type latestRunResponse struct {
	Run         models.Run         `json:"run"`
	Projections []models.Projection `json:"projections"`
	Groups      []models.Cluster    `json:"groups"`
}

// LatestRun handles GET /api/v1/runs/latest.
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	run, ok, err := h.Store.LatestCompleted(ctx)
	if err != nil {
		respondError(w, h.Logger, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if !ok {
		respondError(w, h.Logger, http.StatusNotFound, "no_completed_run", "no completed run exists yet")
		return
	}

	projections, err := h.Store.RunProjections(ctx, run.ID)
	if err != nil {
		respondError(w, h.Logger, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	groups, err := h.Store.RunClusters(ctx, run.ID, models.ClusterTypeGroup)
	if err != nil {
		respondError(w, h.Logger, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	respondOK(w, h.Logger, latestRunResponse{Run: run, Projections: projections, Groups: groups})
}

// voterBubbleResponse is the shape returned by GET /api/v1/voters/bubble.
type voterBubbleResponse struct {
	RunID   uuid.UUID `json:"run_id"`
	GroupID int       `json:"group_local_id"`
}

// VoterBubble handles GET /api/v1/voters/bubble?kind=&id=. It always
// resolves against the latest completed run; per-run lookups are not
// exposed since a voter's bubble only has meaning relative to "now".
func (h *Handler) VoterBubble(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	id := r.URL.Query().Get("id")
	if kind == "" || id == "" {
		respondError(w, h.Logger, http.StatusBadRequest, "bad_request", "kind and id query parameters are required")
		return
	}
	if kind != string(models.VoterKindRegistered) && kind != string(models.VoterKindSession) {
		respondError(w, h.Logger, http.StatusBadRequest, "bad_request", "kind must be \"registered\" or \"session\"")
		return
	}

	ctx := r.Context()
	run, ok, err := h.Store.LatestCompleted(ctx)
	if err != nil {
		respondError(w, h.Logger, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if !ok {
		respondError(w, h.Logger, http.StatusNotFound, "no_completed_run", "no completed run exists yet")
		return
	}

	localID, found, err := h.Store.VoterBubble(ctx, run.ID, models.VoterID{Kind: models.VoterKind(kind), ID: id})
	if err != nil {
		respondError(w, h.Logger, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if !found {
		respondError(w, h.Logger, http.StatusNotFound, "voter_not_found", "voter has no membership in the latest run")
		return
	}

	respondOK(w, h.Logger, voterBubbleResponse{RunID: run.ID, GroupID: localID})
}

// VoterBridges handles GET /api/v1/voters/bridges?kind=&id=, returning the
// voter's cross-group affinities in the latest run -- empty if the voter
// is not a bridge between any groups.
func (h *Handler) VoterBridges(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	id := r.URL.Query().Get("id")
	if kind == "" || id == "" {
		respondError(w, h.Logger, http.StatusBadRequest, "bad_request", "kind and id query parameters are required")
		return
	}
	if kind != string(models.VoterKindRegistered) && kind != string(models.VoterKindSession) {
		respondError(w, h.Logger, http.StatusBadRequest, "bad_request", "kind must be \"registered\" or \"session\"")
		return
	}

	ctx := r.Context()
	run, ok, err := h.Store.LatestCompleted(ctx)
	if err != nil {
		respondError(w, h.Logger, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if !ok {
		respondError(w, h.Logger, http.StatusNotFound, "no_completed_run", "no completed run exists yet")
		return
	}

	affinities, err := h.Store.VoterBridges(ctx, run.ID, models.VoterID{Kind: models.VoterKind(kind), ID: id})
	if err != nil {
		respondError(w, h.Logger, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	respondOK(w, h.Logger, affinities)
}

// ClusterPatterns handles GET /api/v1/clusters/{type}/{id}/patterns. type
// is "base" or "group"; id is the cluster's local id within the latest run.
func (h *Handler) ClusterPatterns(w http.ResponseWriter, r *http.Request) {
	clusterType := models.ClusterType(chi.URLParam(r, "type"))
	if clusterType != models.ClusterTypeBase && clusterType != models.ClusterTypeGroup {
		respondError(w, h.Logger, http.StatusBadRequest, "bad_request", "type must be \"base\" or \"group\"")
		return
	}
	localID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.Logger, http.StatusBadRequest, "bad_request", "id must be an integer")
		return
	}

	ctx := r.Context()
	run, ok, err := h.Store.LatestCompleted(ctx)
	if err != nil {
		respondError(w, h.Logger, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if !ok {
		respondError(w, h.Logger, http.StatusNotFound, "no_completed_run", "no completed run exists yet")
		return
	}

	patterns, err := h.Store.ClusterPatterns(ctx, run.ID, clusterType, localID)
	if err != nil {
		respondError(w, h.Logger, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	respondOK(w, h.Logger, patterns)
}

// lineageWindowEntry pairs a Run with the lineage rows linking it to its
// immediate predecessor in the window.
type lineageWindowEntry struct {
	Run     models.Run       `json:"run"`
	Lineage []models.Lineage `json:"lineage_from_previous"`
}

// LineageWindow handles GET /api/v1/lineage?limit=. It returns up to limit
// recently completed runs, newest first, each annotated with the lineage
// rows linking it back to the run immediately before it.
func (h *Handler) LineageWindow(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondError(w, h.Logger, http.StatusBadRequest, "bad_request", "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	ctx := r.Context()
	runs, err := h.Store.RecentCompleted(ctx, limit)
	if err != nil {
		respondError(w, h.Logger, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	entries := make([]lineageWindowEntry, 0, len(runs))
	for i, run := range runs {
		entry := lineageWindowEntry{Run: run}
		if i+1 < len(runs) {
			rows, err := h.Store.LineageBetween(ctx, runs[i+1].ID, run.ID)
			if err != nil {
				respondError(w, h.Logger, http.StatusInternalServerError, "store_error", err.Error())
				return
			}
			entry.Lineage = rows
		}
		entries = append(entries, entry)
	}

	respondOK(w, h.Logger, entries)
}

// triggerRequest optionally overrides DefaultParams for a single trigger.
type triggerRequest struct {
	WindowDays       *int  `json:"window_days,omitempty" validate:"omitempty,min=1,max=3650"`
	MinVoters        *int  `json:"min_voters,omitempty" validate:"omitempty,min=1"`
	MinVotesPerVoter *int  `json:"min_votes_per_voter,omitempty" validate:"omitempty,min=1"`
	Sync             *bool `json:"sync,omitempty"`
}

// triggerDispatchedResponse is returned instead of a RunSummary when
// sync=false: the run has been handed to a worker goroutine and has not
// necessarily completed by the time this response is written.
type triggerDispatchedResponse struct {
	Dispatched bool `json:"dispatched"`
}

// TriggerRun handles POST /api/v1/runs/trigger, the one write operation
// this API exposes. With sync=true (the default) it blocks for the
// duration of the run and returns the RunSummary. With sync=false it
// dispatches the run to a worker goroutine and returns immediately;
// callers poll LatestRun for the result.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	params := h.DefaultParams
	sync := true

	var body triggerRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			respondError(w, h.Logger, http.StatusBadRequest, "bad_request", "malformed request body")
			return
		}
		if err := validate.Struct(&body); err != nil {
			respondError(w, h.Logger, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		if body.WindowDays != nil {
			params.WindowDays = *body.WindowDays
		}
		if body.MinVoters != nil {
			params.MinVoters = *body.MinVoters
		}
		if body.MinVotesPerVoter != nil {
			params.MinVotesPerVoter = *body.MinVotesPerVoter
		}
		if body.Sync != nil {
			sync = *body.Sync
		}
	}

	if !sync {
		go func() {
			if _, err := h.Runner.Run(context.Background(), params); err != nil {
				h.Logger.Warn().Err(err).Msg("async triggered run failed")
			}
		}()
		respondJSON(w, http.StatusAccepted, h.Logger, Response{Status: "success", Data: triggerDispatchedResponse{Dispatched: true}})
		return
	}

	summary, err := h.Runner.Run(r.Context(), params)
	if err != nil {
		var ce *clustererr.Error
		if errors.As(err, &ce) {
			respondError(w, h.Logger, statusForKind(ce.Kind), string(ce.Kind), ce.Error())
			return
		}
		respondError(w, h.Logger, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	respondOK(w, h.Logger, summary)
}

func statusForKind(kind clustererr.Kind) int {
	switch kind {
	case clustererr.KindAlreadyRunning:
		return http.StatusConflict
	case clustererr.KindInsufficientVoters:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
