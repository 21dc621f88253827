package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/cedar/pkg/domain"
	"github.com/aretw0/cedar/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnQueryDone(ctx, &domain.QueryEvent{Key: "a", Features: 3, Duration: 10 * time.Millisecond})
	hooks.OnQueryDone(ctx, &domain.QueryEvent{Key: "a", Err: errors.New("down")})
	hooks.OnRender(ctx, &domain.RenderEvent{ChartType: "bar", Duration: time.Millisecond})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues("a", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues("a", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Features.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("bar", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RenderLatency))
}

func TestNewMetrics_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	second, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, first.Queries, second.Queries)
}

func TestChain(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var renders int
	hooks := observability.Chain(
		observability.LoggingHooks(logger),
		domain.LifecycleHooks{OnRender: func(context.Context, *domain.RenderEvent) { renders++ }},
		domain.LifecycleHooks{},
	)

	hooks.OnQueryStart(context.Background(), &domain.QueryEvent{Key: "a"})
	hooks.OnRender(context.Background(), &domain.RenderEvent{ChartType: "pie", Err: errors.New("nope")})

	assert.Equal(t, 1, renders)
	assert.Contains(t, buf.String(), "query_start")
	assert.Contains(t, buf.String(), "render_failed")

	empty := observability.Chain()
	assert.Nil(t, empty.OnQueryDone)
}
