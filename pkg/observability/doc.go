// Package observability turns workflow tree lifecycle events into Prometheus
// metrics and structured log lines.
//
// Both are exposed as domain.LifecycleHooks bundles, so they can be merged and
// handed to a tree or runner:
//
//	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
//	hooks := metrics.Hooks().Merge(observability.LogHooks(logger))
package observability
