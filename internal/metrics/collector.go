// Package metrics counts what a test run did to its browsers: sessions
// opened and failed, outcomes and reporting hiccups. The counters are written
// as a node_exporter textfile next to the HTML report.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/e2e-harness/internal/driver"
	"github.com/shehryarbajwa/e2e-harness/internal/grid"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

const namespace = "e2e"

// Collector owns a private registry so parallel runs and tests never collide
type Collector struct {
	registry *prometheus.Registry

	sessionsOpened      *prometheus.CounterVec
	sessionOpenFailures *prometheus.CounterVec
	sessionOpenDuration *prometheus.HistogramVec
	testOutcomes        *prometheus.CounterVec
	screenshotFailures  prometheus.Counter
	statusFailures      *prometheus.CounterVec

	logger *zap.Logger
}

func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		sessionsOpened: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_opened_total",
				Help:      "Browser sessions opened",
			},
			[]string{"host", "browser"},
		),
		sessionOpenFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_open_failures_total",
				Help:      "Browser sessions that failed to open",
			},
			[]string{"host", "kind"},
		),
		sessionOpenDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_open_duration_seconds",
				Help:      "Time to open a browser session",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"host"},
		),
		testOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "test_outcomes_total",
				Help:      "Finished tests by outcome",
			},
			[]string{"host", "outcome"},
		),
		screenshotFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "screenshot_failures_total",
				Help:      "Failure screenshots that could not be captured or saved",
			},
		),
		statusFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "status_report_failures_total",
				Help:      "Pass/fail status commands the grid rejected",
			},
			[]string{"host"},
		),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// RecordSessionOpen records one open attempt and how long it took
func (c *Collector) RecordSessionOpen(host models.Host, browser models.Browser, took time.Duration, err error) {
	c.sessionOpenDuration.WithLabelValues(string(host)).Observe(took.Seconds())
	if err != nil {
		c.sessionOpenFailures.WithLabelValues(string(host), FailureKind(err)).Inc()
		return
	}
	c.sessionsOpened.WithLabelValues(string(host), string(browser)).Inc()
}

// RecordSetupFailure counts a session that was never attempted because its
// target could not be resolved, such as missing grid credentials
func (c *Collector) RecordSetupFailure(host models.Host, err error) {
	c.sessionOpenFailures.WithLabelValues(string(host), FailureKind(err)).Inc()
}

func (c *Collector) RecordOutcome(host models.Host, outcome models.Outcome) {
	c.testOutcomes.WithLabelValues(string(host), string(outcome)).Inc()
}

func (c *Collector) RecordScreenshotFailure() {
	c.screenshotFailures.Inc()
}

func (c *Collector) RecordStatusFailure(host models.Host) {
	c.statusFailures.WithLabelValues(string(host)).Inc()
}

// Registry exposes the collectors for scraping or inspection
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes every collected metric in the text exposition format
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		c.logger.Warn("failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

// FailureKind buckets an open error for the failure counter
func FailureKind(err error) string {
	var missing *grid.MissingCredentialsError
	switch {
	case errors.As(err, &missing):
		return "credentials"
	case driver.IsLaunchError(err):
		return "launch"
	default:
		return "config"
	}
}
