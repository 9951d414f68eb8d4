package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by a tree's lifecycle hooks.
type Metrics struct {
	Renders         *prometheus.CounterVec
	ChildrenStarted *prometheus.CounterVec
	ChildrenStopped *prometheus.CounterVec
	LiveChildren    prometheus.Gauge
	ActionsApplied  *prometheus.CounterVec
	Snapshots       prometheus.Counter
	SnapshotNodes   prometheus.Histogram
	RestoreFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg skips
// registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_render_passes_total",
			Help: "Total number of render passes, per workflow type.",
		}, []string{"workflow"}),
		ChildrenStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_children_started_total",
			Help: "Total number of child workflows started.",
		}, []string{"workflow", "restored"}),
		ChildrenStopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_children_stopped_total",
			Help: "Total number of child workflows torn down.",
		}, []string{"workflow"}),
		LiveChildren: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "canopy_live_children",
			Help: "Number of child workflows currently live.",
		}),
		ActionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_actions_applied_total",
			Help: "Total number of applied actions.",
		}, []string{"workflow", "action", "emitted"}),
		Snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_snapshots_total",
			Help: "Total number of captured tree snapshots.",
		}),
		SnapshotNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_snapshot_nodes",
			Help:    "Number of nodes per captured snapshot.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		RestoreFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_restore_failures_total",
			Help: "Total number of nodes that fell back to a fresh start on restore.",
		}, []string{"workflow"}),
	}
	if reg != nil {
		reg.MustRegister(m.collectors()...)
	}
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Renders, m.ChildrenStarted, m.ChildrenStopped, m.LiveChildren,
		m.ActionsApplied, m.Snapshots, m.SnapshotNodes, m.RestoreFailures,
	}
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(_ context.Context, e *domain.NodeEvent) {
			m.Renders.WithLabelValues(string(e.Workflow)).Inc()
		},
		OnChildStarted: func(_ context.Context, e *domain.NodeEvent) {
			m.ChildrenStarted.WithLabelValues(string(e.Workflow), strconv.FormatBool(e.Restored)).Inc()
			m.LiveChildren.Inc()
		},
		OnChildStopped: func(_ context.Context, e *domain.NodeEvent) {
			m.ChildrenStopped.WithLabelValues(string(e.Workflow)).Inc()
			m.LiveChildren.Dec()
		},
		OnActionApplied: func(_ context.Context, e *domain.ActionEvent) {
			m.ActionsApplied.WithLabelValues(string(e.Workflow), e.Action, strconv.FormatBool(e.Emitted)).Inc()
		},
		OnSnapshot: func(_ context.Context, e *domain.SnapshotEvent) {
			m.Snapshots.Inc()
			m.SnapshotNodes.Observe(float64(e.Nodes))
		},
		OnRestoreFailed: func(_ context.Context, e *domain.RestoreEvent) {
			m.RestoreFailures.WithLabelValues(string(e.Workflow)).Inc()
		},
	}
}
