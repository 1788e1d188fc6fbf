package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "temp_dispersion"

// Metrics holds the Prometheus collectors for one pipeline run.
type Metrics struct {
	StationsLoaded        prometheus.Gauge
	ObservationsExtracted prometheus.Counter
	ObservationsSkipped   prometheus.Counter
	DispersionEntries     *prometheus.GaugeVec   // labels: kind={annual,monthly}
	ChartsWritten         *prometheus.CounterVec // labels: kind={annual,monthly}
	RunDuration           prometheus.Gauge
	LastSuccess           prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates the pipeline metrics and registers them on a dedicated
// registry, ready to be written out with WriteTextfile.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := newMetrics(reg)
	reg.MustRegister(
		m.StationsLoaded,
		m.ObservationsExtracted,
		m.ObservationsSkipped,
		m.DispersionEntries,
		m.ChartsWritten,
		m.RunDuration,
		m.LastSuccess,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics for unit tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

func newMetrics(g prometheus.Gatherer) *Metrics {
	return &Metrics{
		StationsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_loaded",
			Help:      "Distinct cities in the station reference table.",
		}),
		ObservationsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_extracted_total",
			Help:      "Dump tuples joined to a known city.",
		}),
		ObservationsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_skipped_total",
			Help:      "Dump tuples dropped because the city is not in the station table.",
		}),
		DispersionEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispersion_entries",
			Help:      "Ranked dispersion entries by kind.",
		}, []string{"kind"}),
		ChartsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_written_total",
			Help:      "Charts handed to the figure sink by kind.",
		}, []string{"kind"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last pipeline run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful pipeline run.",
		}),
		gatherer: g,
	}
}

// WriteTextfile writes the registered metrics in the node exporter textfile
// collector format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.gatherer)
}
