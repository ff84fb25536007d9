// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package runner implements C7, the Run Coordinator: the batch job that
// acquires the clustering lease, drives C2 through C6 sequentially,
// persists a single Run atomically, and invokes the Lineage Computer (C8)
// against the immediately preceding completed Run.
package runner

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/memoriauy/burbujas/internal/bridges"
	"github.com/memoriauy/burbujas/internal/clustererr"
	"github.com/memoriauy/burbujas/internal/clustering"
	"github.com/memoriauy/burbujas/internal/consensus"
	"github.com/memoriauy/burbujas/internal/events"
	"github.com/memoriauy/burbujas/internal/lease"
	"github.com/memoriauy/burbujas/internal/lineage"
	"github.com/memoriauy/burbujas/internal/matrix"
	"github.com/memoriauy/burbujas/internal/metrics"
	"github.com/memoriauy/burbujas/internal/models"
	"github.com/memoriauy/burbujas/internal/naming"
	"github.com/memoriauy/burbujas/internal/projection"
	"github.com/memoriauy/burbujas/internal/store"
	"github.com/memoriauy/burbujas/internal/wshub"
)

// LeaseName is the single named lease every coordinator instance contends
// for; there is only one kind of run, so there is only one lease.
const LeaseName = "voter-clustering"

// LeaseTTL bounds how long a run may hold the lease before another
// scheduled launch is allowed to proceed against a crashed holder.
const LeaseTTL = 30 * time.Minute

// bridgeMinAffinity is the minimum fraction of co-voted items a voter must
// agree with a non-home group's majority on before they're recorded as a
// bridge to that group.
const bridgeMinAffinity = 0.6

// Coordinator wires together every pipeline component and the storage
// and concurrency-control layers they run under.
type Coordinator struct {
	Store   *store.Store
	Lease   *lease.Store
	Builder *matrix.Builder
	Bus     *events.Bus // optional; nil disables event publication
	WSHub   *wshub.Hub  // optional; nil disables dashboard websocket notification
	Logger  zerolog.Logger
	Seed    int64
}

// Run implements the public contract: run(window_days, min_voters,
// min_votes_per_voter) -> Result<RunSummary, ErrorKind>.
func (c *Coordinator) Run(ctx context.Context, params models.RunParameters) (models.RunSummary, error) {
	if err := c.Lease.Acquire(ctx, LeaseName, LeaseTTL); err != nil {
		metrics.LeaseContention.Inc()
		metrics.RunsTotal.WithLabelValues("already_running").Inc()
		return models.RunSummary{}, clustererr.New(clustererr.KindAlreadyRunning, "clustering lease is held")
	}
	defer c.Lease.Release(ctx, LeaseName) //nolint:errcheck // best-effort; TTL covers the crash case

	start := time.Now()
	runID, err := c.Store.CreateRunning(ctx, params)
	if err != nil {
		return models.RunSummary{}, clustererr.Wrap(clustererr.KindWriteConflict, "creating run row", err)
	}

	summary, err := c.execute(ctx, runID, params, start)
	if err != nil {
		if markErr := c.Store.MarkFailed(ctx, runID, err.Error()); markErr != nil {
			c.Logger.Error().Err(markErr).Str("run_id", runID.String()).Msg("failed to roll back partial run")
		}
		c.recordFailureMetric(err)
		return models.RunSummary{}, err
	}

	metrics.RunsTotal.WithLabelValues("completed").Inc()
	metrics.RunDuration.Observe(time.Since(start).Seconds())
	metrics.NVotersGauge.Set(float64(summary.Run.NVoters))
	metrics.NGroupsGauge.Set(float64(summary.Run.NGroups))
	metrics.SilhouetteGauge.Set(summary.Run.Silhouette)

	return summary, nil
}

func (c *Coordinator) recordFailureMetric(err error) {
	kind := clustererr.KindWriteConflict
	if ce, ok := err.(*clustererr.Error); ok {
		kind = ce.Kind
	}
	metrics.RunsTotal.WithLabelValues("failed").Inc()
	metrics.RunErrorsByKind.WithLabelValues(string(kind)).Inc()
}

func (c *Coordinator) execute(ctx context.Context, runID uuid.UUID, params models.RunParameters, start time.Time) (models.RunSummary, error) {
	built, err := c.Builder.Build(ctx, matrix.BuildParams{
		Now:              start,
		WindowDays:       params.WindowDays,
		MinVoters:        params.MinVoters,
		MinVotesPerVoter: params.MinVotesPerVoter,
		Epsilon:          params.NeutralEpsilon,
	})
	if err != nil {
		return models.RunSummary{}, err
	}

	proj, err := c.computeProjectionWithRetry(built.Matrix)
	if err != nil {
		return models.RunSummary{}, err
	}

	weights := make([]float64, built.Matrix.NVoters)
	for i, n := range built.Matrix.RowNNZ {
		weights[i] = float64(n)
	}

	base := clustering.Base(proj.Points, weights, c.Seed)
	groupRes := clustering.Group(proj.Points, weights, base.Labels, c.Seed, params.KGroupMin, params.KGroupMax)

	kBase := clustering.KBase(built.Matrix.NVoters)

	clusters, memberships, patterns, groupPatterns := c.buildClusterRows(built.Matrix, built.VoterIndex, built.ItemIndex, proj.Points, base, groupRes, kBase)

	bridgeRows := bridges.Detect(built.Matrix, groupRes.Labels, groupPatterns, built.VoterIndex, bridgeMinAffinity)
	bridgeAffinities := toBridgeAffinities(runID, bridgeRows)

	projections := make([]models.Projection, built.Matrix.NVoters)
	for row := 0; row < built.Matrix.NVoters; row++ {
		projections[row] = models.Projection{
			RunID:      runID,
			Voter:      built.VoterIndex.Voter(row),
			X:          proj.Points[row].X,
			Y:          proj.Points[row].Y,
			NVotesCast: built.Matrix.RowNNZ[row],
		}
	}

	run := models.Run{
		ID:            runID,
		CreatedAt:     start,
		Status:        models.RunStatusCompleted,
		Parameters:    params,
		NVoters:       built.Matrix.NVoters,
		NItems:        built.Matrix.NItems,
		NBaseClusters: kBase,
		NGroups:       groupRes.K,
		Silhouette:    groupRes.Silhouette,
		ComputationMS: time.Since(start).Milliseconds(),
	}

	if err := c.Store.PersistCompleted(ctx, store.CompletedRun{
		Run:         run,
		Projections: projections,
		Clusters:    clusters,
		Memberships: memberships,
		Patterns:    patterns,
		Bridges:     bridgeAffinities,
	}); err != nil {
		return models.RunSummary{}, clustererr.Wrap(clustererr.KindWriteConflict, "persisting completed run", err)
	}

	c.computeLineage(ctx, runID, start)
	c.notifyCompletion(ctx, run, clusters, patterns)

	groups := make([]models.Cluster, 0, groupRes.K)
	for _, cl := range clusters {
		if cl.Type == models.ClusterTypeGroup {
			groups = append(groups, cl)
		}
	}
	return models.RunSummary{Run: run, Groups: groups}, nil
}

// computeProjectionWithRetry implements the SVD non-convergence retry: one
// retry with a small jitter sleep, then surface Numerical.
func (c *Coordinator) computeProjectionWithRetry(m *matrix.Sparse) (*projection.Result, error) {
	proj, err := projection.Compute(m)
	if err == nil {
		return proj, nil
	}
	if ce, ok := err.(*clustererr.Error); !ok || ce.Kind != clustererr.KindNumerical {
		return nil, err
	}

	jitter := time.Duration(50+rand.Intn(200)) * time.Millisecond
	c.Logger.Warn().Dur("jitter", jitter).Msg("SVD failed to converge, retrying once")
	time.Sleep(jitter)

	return projection.Compute(m)
}

func (c *Coordinator) buildClusterRows(
	m *matrix.Sparse,
	voterIdx *matrix.VoterIndex,
	itemIdx *matrix.ItemIndex,
	points []projection.Point,
	base clustering.BaseResult,
	group clustering.GroupResult,
	kBase int,
) ([]models.Cluster, []models.Membership, []models.ClusterVotingPattern, []bridges.GroupPattern) {
	var clusters []models.Cluster
	var memberships []models.Membership
	var patterns []models.ClusterVotingPattern
	var groupPatterns []bridges.GroupPattern

	baseMembers := make([][]int, kBase)
	for row, label := range base.Labels {
		baseMembers[label] = append(baseMembers[label], row)
	}
	for localID, rows := range baseMembers {
		votes := consensus.ClusterVotes(m, rows)
		consensusScore := consensus.ClusterConsensus(votes)
		centroid := base.Centroids[localID]
		groupID := group.GroupForBase[localID]

		clusters = append(clusters, models.Cluster{
			Type: models.ClusterTypeBase, LocalID: localID, Size: len(rows),
			CentroidX: centroid.X, CentroidY: centroid.Y, Consensus: consensusScore, ParentGroup: intPtr(groupID),
		})
		for _, row := range rows {
			memberships = append(memberships, models.Membership{
				Type: models.ClusterTypeBase, ClusterLocalID: localID, Voter: voterIdx.Voter(row),
				DistanceToCentroid: euclidean(points[row], centroid),
			})
		}
	}

	groupMembers := make([][]int, group.K)
	for row, label := range group.Labels {
		groupMembers[label] = append(groupMembers[label], row)
	}
	for localID, rows := range groupMembers {
		votes := consensus.ClusterVotes(m, rows)
		consensusScore := consensus.ClusterConsensus(votes)
		centroid := group.Centroids[localID]

		clusters = append(clusters, models.Cluster{
			Type: models.ClusterTypeGroup, LocalID: localID, Size: len(rows),
			CentroidX: centroid.X, CentroidY: centroid.Y, Consensus: consensusScore, ParentGroup: nil,
		})
		for _, row := range rows {
			memberships = append(memberships, models.Membership{
				Type: models.ClusterTypeGroup, ClusterLocalID: localID, Voter: voterIdx.Voter(row),
				DistanceToCentroid: euclidean(points[row], centroid),
			})
		}
		groupItemPatterns := consensus.Patterns(votes)
		for _, p := range groupItemPatterns {
			patterns = append(patterns, models.ClusterVotingPattern{
				ClusterType: models.ClusterTypeGroup, ClusterLocalID: localID, ItemID: itemIdx.Item(p.ItemCol),
				CountPos: p.Counts.Pos, CountNeg: p.Counts.Neg, CountNeu: p.Counts.Neu,
				Consensus: p.Consensus, Majority: p.Majority,
			})
		}
		groupPatterns = append(groupPatterns, bridges.GroupPatternsFrom(localID, groupItemPatterns))
	}

	return clusters, memberships, patterns, groupPatterns
}

func toBridgeAffinities(runID uuid.UUID, rows []bridges.Bridge) []models.BridgeAffinity {
	var out []models.BridgeAffinity
	for _, b := range rows {
		for _, a := range b.Affinities {
			out = append(out, models.BridgeAffinity{
				RunID: runID, Voter: b.Voter, HomeGroup: b.HomeGroup,
				GroupLocalID: a.GroupLocalID, AgreeCount: a.AgreeCount, TotalCount: a.TotalCount,
			})
		}
	}
	return out
}

func (c *Coordinator) computeLineage(ctx context.Context, runID uuid.UUID, createdAt time.Time) {
	prev, ok, err := c.Store.PreviousCompleted(ctx, createdAt)
	if err != nil {
		c.Logger.Warn().Err(err).Msg("lineage: failed to look up previous run")
		return
	}
	if !ok {
		return // no predecessor: lineage is a no-op per the spec
	}

	oldGroups, err := c.Store.GroupVoters(ctx, prev.ID)
	if err != nil {
		c.Logger.Warn().Err(err).Msg("lineage: failed to load previous run's group memberships")
		return
	}
	newGroups, err := c.Store.GroupVoters(ctx, runID)
	if err != nil {
		c.Logger.Warn().Err(err).Msg("lineage: failed to load new run's group memberships")
		return
	}

	rows := lineage.Compute(prev.ID, runID, toGroupMembers(oldGroups), toGroupMembers(newGroups))
	if err := c.Store.InsertLineage(ctx, rows); err != nil {
		c.Logger.Warn().Err(err).Msg("lineage: failed to persist lineage rows")
	}
}

func toGroupMembers(byLocalID map[int][]models.VoterID) []lineage.GroupMembers {
	out := make([]lineage.GroupMembers, 0, len(byLocalID))
	for localID, voters := range byLocalID {
		set := make(map[models.VoterID]struct{}, len(voters))
		for _, v := range voters {
			set[v] = struct{}{}
		}
		out = append(out, lineage.GroupMembers{LocalID: localID, Voters: set})
	}
	return out
}

// topItemsPerNamingRequest caps how many items the naming hook sees per
// group, highest consensus first; the naming service only needs enough
// signal to ground a short description, not the whole pattern table.
const topItemsPerNamingRequest = 5

func (c *Coordinator) notifyCompletion(ctx context.Context, run models.Run, clusters []models.Cluster, patterns []models.ClusterVotingPattern) {
	if c.WSHub != nil {
		c.WSHub.Broadcast(wshub.Message{
			Type: "run_completed", RunID: run.ID.String(),
			NGroups: run.NGroups, Silhouette: run.Silhouette,
		})
	}

	if c.Bus == nil {
		return
	}
	payload, err := jsonMarshalRunCompleted(run)
	if err == nil {
		c.Bus.PublishRunCompleted(ctx, payload)
	}

	hook := &naming.Hook{Publisher: c.Bus, Logger: c.Logger}
	var groupCtx []naming.GroupContext
	for _, cl := range clusters {
		if cl.Type != models.ClusterTypeGroup {
			continue
		}
		groupCtx = append(groupCtx, naming.GroupContext{
			ClusterLocalID: cl.LocalID,
			TopItemIDs:     topItemIDsByConsensus(patterns, cl.LocalID, topItemsPerNamingRequest),
		})
	}
	hook.Notify(ctx, run.ID.String(), groupCtx)
}

// topItemIDsByConsensus returns the group's item ids ordered by descending
// per-item consensus, capped at limit.
func topItemIDsByConsensus(patterns []models.ClusterVotingPattern, groupLocalID, limit int) []string {
	var group []models.ClusterVotingPattern
	for _, p := range patterns {
		if p.ClusterType == models.ClusterTypeGroup && p.ClusterLocalID == groupLocalID {
			group = append(group, p)
		}
	}
	sort.Slice(group, func(i, j int) bool { return group[i].Consensus > group[j].Consensus })
	if len(group) > limit {
		group = group[:limit]
	}
	ids := make([]string, len(group))
	for i, p := range group {
		ids[i] = p.ItemID
	}
	return ids
}

func jsonMarshalRunCompleted(run models.Run) ([]byte, error) {
	return json.Marshal(events.RunCompleted{
		RunID:      run.ID.String(),
		NGroups:    run.NGroups,
		Silhouette: run.Silhouette,
	})
}

func intPtr(v int) *int { return &v }

func euclidean(p, centroid projection.Point) float64 {
	dx := p.X - centroid.X
	dy := p.Y - centroid.Y
	return math.Sqrt(dx*dx + dy*dy)
}
