// Package metrics records what a bgplab run did as Prometheus metrics.
//
// A run is a short-lived process, so nothing is served over HTTP. The
// registry is written once at exit in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricNamespace = "bgplab"

	// Resource actions.
	ActionCreated = "created"
	ActionExists  = "exists"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"

	// Phase results.
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Recorder owns a private registry and the collectors registered on it.
type Recorder struct {
	registry *prometheus.Registry

	resources      *prometheus.CounterVec
	phaseDuration  *prometheus.HistogramVec
	bgpEstablished *prometheus.GaugeVec
	probeSuccess   prometheus.Gauge
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricNamespace,
			Name:      "resources_total",
			Help:      "Resources handled by the run, by kind and action",
		}, []string{"kind", "action"}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricNamespace,
			Name:      "phase_duration_seconds",
			Help:      "Wall-clock time spent in each provisioning phase",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"phase", "result"}),
		bgpEstablished: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricNamespace,
			Name:      "bgp_session_established",
			Help:      "1 if the peer reported its neighbor as Established",
		}, []string{"peer"}),
		probeSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricNamespace,
			Name:      "probe_success",
			Help:      "1 if the last connectivity probe received replies",
		}),
	}
	r.registry.MustRegister(r.resources, r.phaseDuration, r.bgpEstablished, r.probeSuccess)
	return r
}

// Registry exposes the underlying registry for tests and custom gatherers.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordResource counts one resource handled with the given action.
func (r *Recorder) RecordResource(kind, action string) {
	r.resources.WithLabelValues(kind, action).Inc()
}

// ObservePhase records how long a phase took and whether it failed.
func (r *Recorder) ObservePhase(phase string, d time.Duration, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	r.phaseDuration.WithLabelValues(phase, result).Observe(d.Seconds())
}

// SetSessionEstablished records the BGP session state seen from peer.
func (r *Recorder) SetSessionEstablished(peer string, established bool) {
	r.bgpEstablished.WithLabelValues(peer).Set(boolToFloat(established))
}

// SetProbeSuccess records the outcome of the connectivity probe.
func (r *Recorder) SetProbeSuccess(ok bool) {
	r.probeSuccess.Set(boolToFloat(ok))
}

// WriteTextfile writes every collected metric to path, replacing it atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
