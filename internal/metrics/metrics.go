// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package metrics instruments the clustering pipeline for Prometheus:
// run outcomes and duration, per-component timings, lease contention, and
// query API traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burbujas_run_duration_seconds",
			Help:    "Duration of a completed clustering run.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burbujas_runs_total",
			Help: "Total clustering runs by terminal status.",
		},
		[]string{"status"}, // completed, failed, already_running
	)

	RunErrorsByKind = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burbujas_run_errors_total",
			Help: "Total run failures by error kind.",
		},
		[]string{"kind"},
	)

	ComponentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "burbujas_component_duration_seconds",
			Help:    "Duration of an individual pipeline component within a run.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"component"}, // matrix, pca, base_cluster, group_cluster, metrics, lineage
	)

	NVotersGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "burbujas_run_n_voters",
			Help: "Number of voters in the most recent run.",
		},
	)

	NGroupsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "burbujas_run_n_groups",
			Help: "Number of group clusters in the most recent run.",
		},
	)

	SilhouetteGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "burbujas_run_silhouette",
			Help: "Silhouette score of the most recent run's group clustering.",
		},
	)

	LeaseContention = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "burbujas_lease_contention_total",
			Help: "Total trigger calls that found the clustering lease already held.",
		},
	)

	NamingHookFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "burbujas_naming_hook_failures_total",
			Help: "Total naming hook invocations that failed (does not fail the run).",
		},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burbujas_api_requests_total",
			Help: "Total Query API requests.",
		},
		[]string{"route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "burbujas_api_request_duration_seconds",
			Help:    "Query API request duration.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"route"},
	)
)
