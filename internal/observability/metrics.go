package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "windcalc"

// Metrics holds the Prometheus counters for calculations, exports and scenarios.
type Metrics struct {
	Calculations *prometheus.CounterVec // labels: code={is,asce}
	Comparisons  prometheus.Counter
	Imports      prometheus.Counter

	Exports      *prometheus.CounterVec // labels: format={csv,xlsx,pdf}, outcome={success,error}
	ScenarioOps  *prometheus.CounterVec // labels: op={list,save,load,delete}, outcome={success,error}
	CorruptBlobs prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Wind profile calculations by code.",
		}, []string{"code"}),
		Comparisons: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_total",
			Help:      "Overlay comparisons of both codes.",
		}),
		Imports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_rows_total",
			Help:      "Rows calculated from uploaded spreadsheets.",
		}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Export attempts by format and outcome.",
		}, []string{"format", "outcome"}),
		ScenarioOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenario_operations_total",
			Help:      "Scenario store operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		CorruptBlobs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenario_blob_corrupt_total",
			Help:      "Times the persisted scenario list could not be decoded and was treated as empty.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Calculations,
		m.Comparisons,
		m.Imports,
		m.Exports,
		m.ScenarioOps,
		m.CorruptBlobs,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as many
// as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewLocalMetrics creates unregistered metrics for one-shot processes such as
// the CLI, where nothing scrapes them.
func NewLocalMetrics() *Metrics {
	return newMetrics()
}

func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
