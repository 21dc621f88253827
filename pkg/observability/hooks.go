package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/cedar/pkg/domain"
)

// LoggingHooks logs every lifecycle event at Debug, and failures at Warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnQueryStart: func(ctx context.Context, e *domain.QueryEvent) {
			logger.DebugContext(ctx, "query_start", "container", e.Container, "dataset", e.Key, "url", e.URL)
		},
		OnQueryDone: func(ctx context.Context, e *domain.QueryEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "query_failed", "container", e.Container, "dataset", e.Key, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "query_done", "container", e.Container, "dataset", e.Key, "features", e.Features, "duration", e.Duration)
		},
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "render_failed", "container", e.Container, "type", e.ChartType, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "render", "container", e.Container, "type", e.ChartType, "rows", e.Rows, "duration", e.Duration)
		},
	}
}

// Chain combines hook sets; each event is delivered to every non-nil hook in order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var starts, dones []func(context.Context, *domain.QueryEvent)
	var renders []func(context.Context, *domain.RenderEvent)
	for _, s := range sets {
		if s.OnQueryStart != nil {
			starts = append(starts, s.OnQueryStart)
		}
		if s.OnQueryDone != nil {
			dones = append(dones, s.OnQueryDone)
		}
		if s.OnRender != nil {
			renders = append(renders, s.OnRender)
		}
	}

	if len(starts) > 0 {
		out.OnQueryStart = func(ctx context.Context, e *domain.QueryEvent) {
			for _, fn := range starts {
				fn(ctx, e)
			}
		}
	}
	if len(dones) > 0 {
		out.OnQueryDone = func(ctx context.Context, e *domain.QueryEvent) {
			for _, fn := range dones {
				fn(ctx, e)
			}
		}
	}
	if len(renders) > 0 {
		out.OnRender = func(ctx context.Context, e *domain.RenderEvent) {
			for _, fn := range renders {
				fn(ctx, e)
			}
		}
	}
	return out
}
