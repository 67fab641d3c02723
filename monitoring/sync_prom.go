// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var AdapterRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "issuesync_adapter_requests_total",
	Help: "The total number of outbound issue tracker requests",
}, []string{"provider", "outcome"})

var AdapterRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "issuesync_adapter_retries_total",
	Help: "The total number of retried issue tracker requests",
}, []string{"provider"})

var IssuesSyncedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "issuesync_issues_synced_amount",
	Help: "The total number of issues synced from an issue tracker",
}, []string{"provider"})

var IssueSyncErrorsAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "issuesync_issue_sync_errors_amount",
	Help: "The total number of issues which failed to sync",
}, []string{"provider"})

var SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "issuesync_sync_duration_minutes",
	Help:    "Duration of a full integration sync in minutes",
	Buckets: prometheus.DefBuckets,
}, []string{"provider"})

var IssueCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "issuesync_issue_cache_lookups_total",
	Help: "Issue cache lookups by kind and result",
}, []string{"kind", "result"})

var QueueJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "issuesync_queue_jobs_total",
	Help: "Processed queue jobs by name and outcome",
}, []string{"name", "outcome"})

var SearchIndexFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "issuesync_search_index_failures_total",
	Help: "The total number of issues which could not be written to the search index",
})
