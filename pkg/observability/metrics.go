package observability

import (
	"context"
	"errors"

	"github.com/aretw0/cedar/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the chart lifecycle.
type Metrics struct {
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	Features      *prometheus.CounterVec
	Renders       *prometheus.CounterVec
	RenderLatency *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
// Collectors already registered on reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cedar_dataset_queries_total",
				Help: "Total number of remote dataset queries",
			},
			[]string{"dataset", "status"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cedar_dataset_query_duration_seconds",
				Help:    "Duration of remote dataset queries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"dataset"},
		),
		Features: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cedar_dataset_features_total",
				Help: "Total number of features returned by dataset queries",
			},
			[]string{"dataset"},
		),
		Renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cedar_renders_total",
				Help: "Total number of chart renders",
			},
			[]string{"type", "status"},
		),
		RenderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cedar_render_duration_seconds",
				Help:    "Duration of chart renders",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
	}

	var err error
	m.Queries, err = register(reg, m.Queries)
	if err != nil {
		return nil, err
	}
	m.QueryDuration, err = register(reg, m.QueryDuration)
	if err != nil {
		return nil, err
	}
	m.Features, err = register(reg, m.Features)
	if err != nil {
		return nil, err
	}
	m.Renders, err = register(reg, m.Renders)
	if err != nil {
		return nil, err
	}
	m.RenderLatency, err = register(reg, m.RenderLatency)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnQueryDone: func(ctx context.Context, e *domain.QueryEvent) {
			m.Queries.WithLabelValues(e.Key, status(e.Err)).Inc()
			m.QueryDuration.WithLabelValues(e.Key).Observe(e.Duration.Seconds())
			if e.Err == nil {
				m.Features.WithLabelValues(e.Key).Add(float64(e.Features))
			}
		},
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			m.Renders.WithLabelValues(e.ChartType, status(e.Err)).Inc()
			m.RenderLatency.WithLabelValues(e.ChartType).Observe(e.Duration.Seconds())
		},
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
