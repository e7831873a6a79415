// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

// Agentplate Resolution Dashboards
// This file documents dashboard templates for an OTEL UI or Grafana fed by
// the instruments registered in pkg/telemetry/metrics.go.
//
// DASHBOARD: Resolution Volume & Latency
//
//   Queries:
//   - agentplate.resolutions.total{agentplate.run.status} (rate 5m)
//     Metric: Resolutions per second split by ok / error
//     Display: Stacked area chart
//
//   - agentplate.resolution.duration (histogram, ms)
//     Metric: p50 / p95 / p99 resolution latency per template
//     Display: Line chart grouped by agentplate.template.name
//     Note: cold loads dominate; compare against loads.total to see the
//     effect of loader.cache_size
//
//   - agentplate.loads.total{agentplate.load.kind} (rate 5m)
//     Metric: File loads by kind (template, fragment, tool_config)
//     Display: Stacked bar chart
//     Insight: loads per resolution close to zero means the LRU cache is hot
//
// DASHBOARD: Resolution Errors
//
//   Queries:
//   - agentplate.errors.total{agentplate.error.code} (rate 5m)
//     Metric: Error rate by code (NOT_FOUND, LOAD_FAILED,
//     CIRCULAR_INHERITANCE, MAX_DEPTH_EXCEEDED, INTERPOLATION_FAILED)
//     Display: Line chart with legend
//
//   - agentplate.errors.total by (agentplate.error.code, agentplate.phase)
//     Breakdown: Code x phase (extends resolution, fragment mixing,
//     tool config composition, runtime resolution, prompt interpolation)
//     Display: Heatmap or table
//
// ALERT RULES (Prometheus/AlertManager format):
//
// Alert 1: Structural Template Errors
//   Name: AgentplateStructuralErrors
//   Condition: increase(agentplate.errors.total{agentplate.error.code=~"CIRCULAR_INHERITANCE|MAX_DEPTH_EXCEEDED"}[10m]) > 0
//   Severity: warning
//   Message: "Template chain is broken: {{ $labels.agentplate_error_code }}"
//   Action: Run agentplate validate over the template tree
//
// Alert 2: Missing Template Files
//   Name: AgentplateMissingFiles
//   Condition: rate(agentplate.errors.total{agentplate.error.code="NOT_FOUND"}[5m]) > 0.1
//   Duration: 5m
//   Severity: warning
//   Action: Check the deployed template directory against extends, mixins
//   and toolConfigs references
//
// Alert 3: Slow Resolutions
//   Name: AgentplateSlowResolution
//   Condition: histogram_quantile(0.95, agentplate.resolution.duration) > 250
//   Duration: 10m
//   Severity: info
//   Action: Raise loader.cache_size or reduce extends depth
//
// TRACES:
//   Every ResolveTemplate call opens a "Resolver.ResolveTemplate" span carrying
//   agentplate.run.id; each file load is a child "Resolver.Load" span with
//   agentplate.load.kind and agentplate.template.path. The same run id is
//   attached to log records (run_id) and to audit rows.

package internal
