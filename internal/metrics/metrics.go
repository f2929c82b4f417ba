// Package metrics counts pipeline work with Prometheus collectors on a private registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Landmark groups, as used in the absent_groups label.
const (
	GroupPose      = "pose"
	GroupLeftHand  = "left_hand"
	GroupRightHand = "right_hand"
)

// Video kinds, as used in the videos label.
const (
	KindOriginal  = "original"
	KindAugmented = "augmented"
)

// Metrics holds the pipeline counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FramesTotal        prometheus.Counter
	AbsentGroupsTotal  *prometheus.CounterVec
	VideosTotal        *prometheus.CounterVec
	TablesWrittenTotal prometheus.Counter
	TablesSkippedTotal *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FramesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "signprep_frames_total",
			Help: "Total number of frames run through landmark extraction",
		}),
		AbsentGroupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signprep_absent_groups_total",
			Help: "Total number of frames where a landmark group was not detected",
		}, []string{"group"}),
		VideosTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signprep_videos_total",
			Help: "Total number of videos processed",
		}, []string{"kind"}),
		TablesWrittenTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "signprep_tables_written_total",
			Help: "Total number of landmark tables written",
		}),
		TablesSkippedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signprep_tables_skipped_total",
			Help: "Total number of landmark tables not written",
		}, []string{"reason"}),
	}
}

// Registry exposes the private registry for HTTP handlers and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Frame() {
	if m == nil {
		return
	}
	m.FramesTotal.Inc()
}

func (m *Metrics) Absent(group string) {
	if m == nil {
		return
	}
	m.AbsentGroupsTotal.WithLabelValues(group).Inc()
}

func (m *Metrics) Video(kind string) {
	if m == nil {
		return
	}
	m.VideosTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) TableWritten() {
	if m == nil {
		return
	}
	m.TablesWrittenTotal.Inc()
}

func (m *Metrics) TableSkipped(reason string) {
	if m == nil {
		return
	}
	m.TablesSkippedTotal.WithLabelValues(reason).Inc()
}

// WriteTextfile dumps the counters in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
