package ports

import (
	"context"

	"github.com/aretw0/cedar/pkg/domain"
)

// Transformer merges inline data and query results into render-ready rows.
// Implementations must be pure functions of their inputs.
type Transformer interface {
	Transform(datasets []domain.Dataset, opts domain.TransformOptions) (domain.ChartData, error)
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(datasets []domain.Dataset, opts domain.TransformOptions) (domain.ChartData, error)

// Transform calls f(datasets, opts).
func (f TransformerFunc) Transform(datasets []domain.Dataset, opts domain.TransformOptions) (domain.ChartData, error) {
	return f(datasets, opts)
}

// Renderer draws a chart into the container identified by an opaque handle
// (a file path, a DOM id, a response stream label...).
type Renderer interface {
	Render(ctx context.Context, container string, def domain.Definition, data domain.ChartData) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, container string, def domain.Definition, data domain.ChartData) error

// Render calls f(ctx, container, def, data).
func (f RendererFunc) Render(ctx context.Context, container string, def domain.Definition, data domain.ChartData) error {
	return f(ctx, container, def, data)
}
