// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestMetricsRegistration verifies every exported collector can be
// described without panicking, catching typos in label names or missing
// Help text before they reach a scrape.
func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		RunDuration,
		RunsTotal,
		RunErrorsByKind,
		ComponentDuration,
		NVotersGauge,
		NGroupsGauge,
		SilhouetteGauge,
		LeaseContention,
		NamingHookFailures,
		APIRequestsTotal,
		APIRequestDuration,
	}

	for _, c := range collectors {
		ch := make(chan *prometheus.Desc, 1)
		c.Describe(ch)
		close(ch)

		count := 0
		for range ch {
			count++
		}
		if count == 0 {
			t.Errorf("metric %v has no descriptors", c)
		}
	}
}

func TestMetricLabels(t *testing.T) {
	RunsTotal.WithLabelValues("completed").Inc()
	RunsTotal.WithLabelValues("failed").Inc()
	RunsTotal.WithLabelValues("already_running").Inc()

	RunErrorsByKind.WithLabelValues("numerical").Inc()
	ComponentDuration.WithLabelValues("pca").Observe(1.5)

	APIRequestsTotal.WithLabelValues("/api/v1/runs/latest", "200").Inc()
	APIRequestDuration.WithLabelValues("/api/v1/runs/latest").Observe(0.01)
}

func TestGaugesAndCounters(t *testing.T) {
	NVotersGauge.Set(120)
	NGroupsGauge.Set(3)
	SilhouetteGauge.Set(0.42)
	LeaseContention.Inc()
	NamingHookFailures.Inc()
	RunDuration.Observe(12.3)
}
