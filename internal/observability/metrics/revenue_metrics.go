package metrics

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels attached to every instrument.
type Config struct {
	ServiceName string
	Environment string
}

// RevenueMetrics instruments the revenue aggregation pipeline.
type RevenueMetrics struct {
	eventsProcessed  *prometheus.CounterVec
	recalculations   *prometheus.CounterVec
	aggregateDeletes prometheus.Counter
}

var (
	revenueMetricsOnce sync.Once
	revenueMetrics     *RevenueMetrics
)

// Revenue returns the process-wide revenue metrics instance.
func Revenue() *RevenueMetrics {
	return RevenueWithConfig(Config{})
}

// RevenueWithConfig initializes the instance on first use.
func RevenueWithConfig(cfg Config) *RevenueMetrics {
	revenueMetricsOnce.Do(func() {
		revenueMetrics = newRevenueMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return revenueMetrics
}

func ResetRevenueMetricsForTest() {
	revenueMetricsOnce = sync.Once{}
	revenueMetrics = nil
}

func newRevenueMetrics(registerer prometheus.Registerer, cfg Config) *RevenueMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "billora"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	eventsProcessed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "billora_revenue_events_total",
			Help:        "Invoice lifecycle events handled by the revenue engine.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // applied | skipped | duplicate | suppressed
	)

	recalculations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "billora_revenue_recalculations_total",
			Help:        "Full rolling-window recalculation runs.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // success | failed
	)

	aggregateDeletes := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "billora_revenue_aggregate_deletes_total",
			Help:        "Aggregate rows removed after a reversal drove them to zero.",
			ConstLabels: constLabels,
		},
	)

	return &RevenueMetrics{
		eventsProcessed:  registerCounterVec(registerer, eventsProcessed),
		recalculations:   registerCounterVec(registerer, recalculations),
		aggregateDeletes: registerCounter(registerer, aggregateDeletes),
	}
}

// registerCounterVec registers the collector, reusing the registered one
// when a test reset re-initializes the singleton against the same
// registerer.
func registerCounterVec(registerer prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return c
}

func registerCounter(registerer prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return c
}

func (m *RevenueMetrics) IncEvent(result string) {
	if m == nil {
		return
	}
	m.eventsProcessed.WithLabelValues(result).Inc()
}

func (m *RevenueMetrics) IncRecalculation(result string) {
	if m == nil {
		return
	}
	m.recalculations.WithLabelValues(result).Inc()
}

func (m *RevenueMetrics) IncAggregateDelete() {
	if m == nil {
		return
	}
	m.aggregateDeletes.Inc()
}
