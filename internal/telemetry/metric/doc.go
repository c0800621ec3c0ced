// Package metric provides Prometheus metrics for minipay.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: the Registry, client counters and the HTTP middleware
//   - collector.go: a collector that samples session state at scrape time
//
// The CLI writes the registry to a textfile at exit (node_exporter
// textfile collector format); the devserver exposes it at /metrics.
//
// A nil *Registry is valid and records nothing.
package metric
