// Package metrics records run outcomes for the node-exporter textfile
// collector.
//
// The runner is a one-shot process, so every metric is a gauge describing
// the most recent run. The file is rewritten atomically on each flush and
// node_exporter picks it up on its next scrape.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "powder"

// Recorder accumulates run metrics and flushes them as a textfile.
// A nil Recorder is valid and records nothing, so call sites do not
// need to guard on whether metrics are enabled.
type Recorder struct {
	path     string
	registry *prometheus.Registry

	runInfo       *prometheus.GaugeVec
	runSuccess    prometheus.Gauge
	phaseDuration *prometheus.GaugeVec
	readyWait     prometheus.Gauge
	sshAttempts   prometheus.Gauge
	completedAt   prometheus.Gauge
}

// New creates a Recorder that flushes to path. An empty path disables
// recording: New returns nil and every Recorder method is a no-op.
func New(path string) *Recorder {
	if path == "" {
		return nil
	}

	r := &Recorder{
		path:     path,
		registry: prometheus.NewRegistry(),
		runInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "info",
				Help:      "Details of the most recent run; always 1",
			},
			[]string{"experiment", "project", "profile", "mode"},
		),
		runSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "success",
				Help:      "Whether the most recent run succeeded (1) or failed (0)",
			},
		),
		phaseDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "phase_duration_seconds",
				Help:      "Duration of each phase of the most recent run in seconds",
			},
			[]string{"phase"},
		),
		readyWait: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "experiment",
				Name:      "ready_wait_seconds",
				Help:      "Time spent waiting for the experiment to become ready in seconds",
			},
		),
		sshAttempts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ssh",
				Name:      "connect_attempts",
				Help:      "Number of SSH connection attempts during the most recent run",
			},
		),
		completedAt: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "completed_timestamp_seconds",
				Help:      "Unix timestamp of when the most recent run finished",
			},
		),
	}

	r.registry.MustRegister(
		r.runInfo,
		r.runSuccess,
		r.phaseDuration,
		r.readyWait,
		r.sshAttempts,
		r.completedAt,
	)

	return r
}

// Enabled reports whether the recorder writes anywhere.
func (r *Recorder) Enabled() bool {
	return r != nil
}

// SetRunInfo records the identity of the run.
func (r *Recorder) SetRunInfo(experiment, project, profile, mode string) {
	if r == nil {
		return
	}
	r.runInfo.WithLabelValues(experiment, project, profile, mode).Set(1)
}

// RecordSuccess records the final outcome of the run.
func (r *Recorder) RecordSuccess(ok bool) {
	if r == nil {
		return
	}
	if ok {
		r.runSuccess.Set(1)
	} else {
		r.runSuccess.Set(0)
	}
}

// RecordPhase records how long a pipeline phase took.
func (r *Recorder) RecordPhase(phase string, d time.Duration) {
	if r == nil {
		return
	}
	r.phaseDuration.WithLabelValues(phase).Set(d.Seconds())
}

// RecordReadyWait records how long the portal took to report the
// experiment ready.
func (r *Recorder) RecordReadyWait(d time.Duration) {
	if r == nil {
		return
	}
	r.readyWait.Set(d.Seconds())
}

// RecordSSHAttempts records the number of SSH connection attempts made
// before the node accepted a connection (or the runner gave up).
func (r *Recorder) RecordSSHAttempts(n int) {
	if r == nil {
		return
	}
	r.sshAttempts.Set(float64(n))
}

// Write stamps the completion time and flushes all recorded metrics to
// the textfile. node_exporter expects the filename to end in .prom.
func (r *Recorder) Write() error {
	if r == nil {
		return nil
	}
	r.completedAt.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(r.path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", r.path, err)
	}
	return nil
}
