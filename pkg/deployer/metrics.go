/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package deployer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/datastackhq/stackctl/pkg/cluster"
)

var (
	deployDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stackctl",
		Subsystem: "deployer",
		Name:      "deploy_duration_seconds",
		Help:      "Time to deploy a component, certificates through rollout.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"component"})

	deploysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stackctl",
		Subsystem: "deployer",
		Name:      "deploys_total",
		Help:      "Component deployments by outcome.",
	}, []string{"component", "status"})

	teardownsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stackctl",
		Subsystem: "deployer",
		Name:      "teardowns_total",
		Help:      "Component teardowns by outcome.",
	}, []string{"component", "status"})

	rolloutWaitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stackctl",
		Subsystem: "deployer",
		Name:      "rollout_wait_duration_seconds",
		Help:      "Time spent waiting for StatefulSet rollouts to converge.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"statefulset"})

	certsIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stackctl",
		Subsystem: "deployer",
		Name:      "certificates_issued_total",
		Help:      "TLS certificate issuances per component.",
	}, []string{"component"})
)

func observeDeploy(name cluster.Component, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	deployDuration.WithLabelValues(string(name)).Observe(time.Since(start).Seconds())
	deploysTotal.WithLabelValues(string(name), status).Inc()
}
