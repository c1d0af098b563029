/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics counts what the solver does, in a registry of its own, so
// that a run can leave its numbers behind in the node exporter textfile
// format.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pkgsolve"

// Recorder holds the solver metrics. The zero value is not usable, use New.
// A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	catalogPkgs prometheus.Gauge
	solves      *prometheus.CounterVec
	attempts    prometheus.Counter
	problems    prometheus.Counter
	steps       *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New returns a Recorder with all metrics registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		catalogPkgs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_packages",
				Help:      "Number of packages loaded in the catalog.",
			},
		),
		solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solves_total",
				Help:      "Number of solves by outcome.",
			},
			[]string{"status"},
		),
		attempts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solve_attempts_total",
				Help:      "Number of solve attempts, relaxed ones included.",
			},
		),
		problems: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "problems_total",
				Help:      "Number of problems met while solving.",
			},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transaction_steps_total",
				Help:      "Number of transaction steps by action.",
			},
			[]string{"action"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solve_duration_seconds",
				Help:      "Time taken to solve a job queue.",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
	r.registry.MustRegister(
		r.catalogPkgs,
		r.solves,
		r.attempts,
		r.problems,
		r.steps,
		r.duration,
	)
	return r
}

// ObserveCatalog records the size of the catalog.
func (r *Recorder) ObserveCatalog(pkgs int) {
	if r == nil {
		return
	}
	r.catalogPkgs.Set(float64(pkgs))
}

// ObserveSolve records the outcome of one solve.
func (r *Recorder) ObserveSolve(status string, attempts, problems int, took time.Duration) {
	if r == nil {
		return
	}
	r.solves.WithLabelValues(status).Inc()
	r.attempts.Add(float64(attempts))
	r.problems.Add(float64(problems))
	r.duration.Observe(took.Seconds())
}

// ObserveStep records one transaction step.
func (r *Recorder) ObserveStep(action string) {
	if r == nil {
		return
	}
	r.steps.WithLabelValues(action).Inc()
}

// Gatherer returns the registry holding the metrics.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteToTextfile writes the metrics to path, atomically.
func (r *Recorder) WriteToTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "writing metrics to %s", path)
	}
	return nil
}
