// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package models holds the persisted and ephemeral entities of the opinion
// clustering pipeline: voters, votes, runs, and the tables a run owns.
package models

import (
	"time"

	"github.com/google/uuid"
)

// VoterKind distinguishes a registered account from an anonymous browser
// session. A session may later be claimed by a registered voter; see
// matrix.Builder for the reconciliation rule.
type VoterKind string

const (
	VoterKindRegistered VoterKind = "registered"
	VoterKindSession    VoterKind = "session"
)

// VoterID tags an opaque id with its kind, forming the stable identity used
// across the whole pipeline and, later, across runs for lineage.
type VoterID struct {
	Kind VoterKind
	ID   string
}

// Opinion is the three-valued sentiment a voter records on an item.
type Opinion string

const (
	OpinionPositive Opinion = "+"
	OpinionNegative Opinion = "-"
	OpinionNeutral  Opinion = "0"
	OpinionNone     Opinion = "" // sentinel used only by ClusterVotingPattern.Majority
)

// NeutralEpsilon is the default sentinel value stored in place of a literal
// zero so sparse containers do not elide explicit-neutral votes. It carries
// no meaning outside the matrix and projection packages; every aggregator
// must fold it back to 0.0 before it touches a sum or a mean.
const NeutralEpsilon = 1e-4

// Vote is one voter's opinion on one item at a point in time. At most one
// Vote survives per (voter, item) pair once identity reconciliation and
// last-write-wins dedup have run.
type Vote struct {
	Voter     VoterID
	ItemID    string
	Opinion   Opinion
	Timestamp time.Time
}

// RunStatus is the lifecycle state of a Run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunParameters are the inputs a Run was computed with, stored verbatim for
// reproducibility.
type RunParameters struct {
	WindowDays       int
	MinVoters        int
	MinVotesPerVoter int
	NeutralEpsilon   float64
	KBase            int
	KGroupMin        int
	KGroupMax        int
}

// DefaultRunParameters returns the defaults named in the run coordinator's
// contract.
func DefaultRunParameters() RunParameters {
	return RunParameters{
		WindowDays:       30,
		MinVoters:        50,
		MinVotesPerVoter: 3,
		NeutralEpsilon:   NeutralEpsilon,
		KGroupMin:        2,
		KGroupMax:        5,
	}
}

// Run is one immutable execution of the pipeline. Only the coordinator that
// holds the clustering lease may write it.
type Run struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	CompletedAt *time.Time
	Status      RunStatus
	ErrorMessage string

	Parameters RunParameters

	NVoters         int
	NItems          int
	NBaseClusters   int
	NGroups         int
	Silhouette      float64
	ComputationMS   int64
}

// ClusterType distinguishes the ~100 fine-grained base clusters from the
// 2-5 group clusters ("bubbles") users actually see.
type ClusterType string

const (
	ClusterTypeBase  ClusterType = "base"
	ClusterTypeGroup ClusterType = "group"
)

// Projection is one voter's 2D coordinate within a Run, plus the number of
// votes that voter cast (its k-means weight and rescale factor input).
type Projection struct {
	RunID      uuid.UUID
	Voter      VoterID
	X, Y       float64
	NVotesCast int
}

// Cluster is either a base cluster or a group cluster within a Run.
// LocalID is only unique within (RunID, Type); it carries no meaning across
// runs (see lineage.Computer).
type Cluster struct {
	RunID       uuid.UUID
	Type        ClusterType
	LocalID     int
	Size        int
	CentroidX   float64
	CentroidY   float64
	Consensus   float64
	ParentGroup *int // for a base cluster, the group LocalID it was folded into; nil for a group cluster

	// Name and Description are populated post-hoc by the external naming
	// hook (see internal/naming). Nil until the hook succeeds.
	Name        *string
	Description *string
}

// Membership ties one voter to one cluster of one type within a Run. Every
// voter present in a Run's Projections has exactly one base membership and
// exactly one group membership.
type Membership struct {
	RunID              uuid.UUID
	Type               ClusterType
	ClusterLocalID     int
	Voter              VoterID
	DistanceToCentroid float64
}

// Majority is the plurality opinion recorded for a cluster on one item.
type Majority string

const (
	MajorityPositive Majority = "+"
	MajorityNegative Majority = "-"
	MajorityNeutral  Majority = "0"
	MajorityNone     Majority = "" // no votes at all from the cluster's members
)

// ClusterVotingPattern aggregates a cluster's votes on one item. A row only
// exists for (cluster, item) pairs the cluster's members actually voted on.
type ClusterVotingPattern struct {
	RunID          uuid.UUID
	ClusterType    ClusterType
	ClusterLocalID int
	ItemID         string
	CountPos       int
	CountNeg       int
	CountNeu       int
	Consensus      float64
	Majority       Majority
}

// LineageKind classifies how a group cluster in one run relates to a group
// cluster in the immediately following run.
type LineageKind string

const (
	LineageContinuation LineageKind = "continuation"
	LineageSplit        LineageKind = "split"
	LineageMerge        LineageKind = "merge"
	LineageMinor        LineageKind = "minor"
)

// Lineage links a group cluster in an older run to a group cluster in a
// newer run by voter-set overlap. Never by LocalID equality: k-means labels
// carry no meaning across runs.
type Lineage struct {
	FromRunID      uuid.UUID
	FromLocalID    int
	ToRunID        uuid.UUID
	ToLocalID      int
	OverlapCount   int
	PctFrom        float64
	PctTo          float64
	Kind           LineageKind
}

// RunSummary is the value returned to a run coordinator's caller.
type RunSummary struct {
	Run     Run
	Groups  []Cluster
}

// BridgeAffinity is one voter's agreement score with a group other than
// their own home group, computed by the bridges package.
type BridgeAffinity struct {
	RunID        uuid.UUID
	Voter        VoterID
	HomeGroup    int
	GroupLocalID int
	AgreeCount   int
	TotalCount   int
}
