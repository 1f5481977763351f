// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tishareyes/vcash/pkg/errors"
)

// Metrics collects the metrics of a build. They are written in the
// node-exporter textfile format, since a build is too short-lived to scrape.
type Metrics struct {
	registry *prometheus.Registry

	phaseDuration *prometheus.GaugeVec
	buildSuccess  *prometheus.GaugeVec
	buildStatus   *prometheus.GaugeVec
	artifactSize  *prometheus.GaugeVec
	buildTime     *prometheus.GaugeVec
}

// NewMetrics returns a new metrics collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		phaseDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nodeimage",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each pipeline phase of the last build",
		}, []string{"recipe", "phase"}),
		buildSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nodeimage",
			Name:      "build_success",
			Help:      "Whether the last build succeeded",
		}, []string{"recipe"}),
		buildStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nodeimage",
			Name:      "build_status_code",
			Help:      "Status code of the last build",
		}, []string{"recipe", "status"}),
		artifactSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nodeimage",
			Name:      "artifact_size_bytes",
			Help:      "Size of the last compiled artifact",
		}, []string{"recipe"}),
		buildTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nodeimage",
			Name:      "build_timestamp_seconds",
			Help:      "Time the last build finished",
		}, []string{"recipe"}),
	}
	m.registry.MustRegister(m.phaseDuration, m.buildSuccess, m.buildStatus, m.artifactSize, m.buildTime)
	return m
}

// Observe records a build report.
func (m *Metrics) Observe(r *Report) {
	for _, p := range r.Phases {
		m.phaseDuration.WithLabelValues(r.Recipe, string(p.Phase)).Set(p.Duration.Seconds())
	}

	success := 0.0
	if r.Status.Success() {
		success = 1
	}
	m.buildSuccess.WithLabelValues(r.Recipe).Set(success)
	m.buildStatus.WithLabelValues(r.Recipe, r.Status.String()).Set(float64(r.Status))
	if r.Artifact != nil {
		m.artifactSize.WithLabelValues(r.Recipe).Set(float64(r.Artifact.Size))
	}
	m.buildTime.WithLabelValues(r.Recipe).Set(float64(r.Started.Add(r.Duration).Unix()))
}

// Gatherer returns the metrics registry.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// WriteTo writes the metrics to a textfile, atomically.
func (m *Metrics) WriteTo(file string) error {
	err := prometheus.WriteToTextfile(file, m.registry)
	if err != nil {
		return errors.UnknownError.WithFormat("write metrics: %w", err)
	}
	return nil
}
