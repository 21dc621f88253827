package ports

import (
	"context"
	"net/url"

	"github.com/aretw0/cedar/pkg/domain"
)

// FeatureQuerier issues a single remote feature query.
// Failures (network, server errors) are returned as-is; the caller decides
// how to aggregate them.
type FeatureQuerier interface {
	QueryFeatures(ctx context.Context, req domain.QueryRequest) (*domain.FeatureSet, error)
}

// FeatureQuerierFunc adapts a function to FeatureQuerier.
type FeatureQuerierFunc func(ctx context.Context, req domain.QueryRequest) (*domain.FeatureSet, error)

// QueryFeatures calls f(ctx, req).
func (f FeatureQuerierFunc) QueryFeatures(ctx context.Context, req domain.QueryRequest) (*domain.FeatureSet, error) {
	return f(ctx, req)
}

// ParamBuilder maps a dataset's declarative query object to transport parameters.
// Implementations must be pure.
type ParamBuilder interface {
	BuildParams(query map[string]any) (url.Values, error)
}
