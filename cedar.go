package cedar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/cedar/internal/logging"
	"github.com/aretw0/cedar/pkg/adapters/featureservice"
	"github.com/aretw0/cedar/pkg/adapters/file"
	"github.com/aretw0/cedar/pkg/dataset"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/aretw0/cedar/pkg/ports"
	"github.com/aretw0/cedar/pkg/query"
	"golang.org/x/sync/errgroup"
)

// BusyPolicy decides what Show does when another Show is already in flight
// on the same Chart.
type BusyPolicy int

const (
	// BusyFailFast makes a concurrent Show return domain.ErrBusy immediately.
	BusyFailFast BusyPolicy = iota
	// BusyQueue makes a concurrent Show wait for the in-flight call to finish.
	BusyQueue
)

const defaultLockTTL = 30 * time.Second

// Chart is the high-level entry point of the cedar library.
// It owns one chart definition and drives the query -> shape -> render lifecycle.
// All methods are safe for concurrent use.
type Chart struct {
	container string

	mu         sync.RWMutex
	definition *domain.Definition
	data       domain.ChartData

	querier     ports.FeatureQuerier
	params      ports.ParamBuilder
	transformer ports.Transformer
	renderer    ports.Renderer
	locker      ports.DistributedLocker
	lockTTL     time.Duration

	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	busyPolicy   BusyPolicy
	strictNames  bool
	queryTimeout time.Duration

	// showSlot holds a token while a Show call is in flight.
	showSlot chan struct{}
}

// Option defines a functional option for configuring the Chart.
type Option func(*Chart)

// WithQuerier injects the remote feature query client.
func WithQuerier(q ports.FeatureQuerier) Option {
	return func(c *Chart) {
		c.querier = q
	}
}

// WithParamBuilder replaces the default dataset query translator.
func WithParamBuilder(b ports.ParamBuilder) Option {
	return func(c *Chart) {
		c.params = b
	}
}

// WithTransformer replaces the default data shaper.
func WithTransformer(t ports.Transformer) Option {
	return func(c *Chart) {
		c.transformer = t
	}
}

// WithRenderer sets the rendering backend.
func WithRenderer(r ports.Renderer) Option {
	return func(c *Chart) {
		c.renderer = r
	}
}

// WithLogger sets a custom structured logger for the chart.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chart) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Chart) {
		c.hooks = hooks
	}
}

// WithBusyPolicy chooses how concurrent Show calls are handled (default: BusyFailFast).
func WithBusyPolicy(p BusyPolicy) Option {
	return func(c *Chart) {
		c.busyPolicy = p
	}
}

// WithLocker additionally serializes Show across processes sharing the locker.
// A ttl <= 0 uses a 30s default.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(c *Chart) {
		c.locker = locker
		if ttl > 0 {
			c.lockTTL = ttl
		}
	}
}

// WithStrictNames rejects remote datasets without an explicit name instead of
// keying their results as "dataset<index>".
func WithStrictNames() Option {
	return func(c *Chart) {
		c.strictNames = true
	}
}

// WithQueryTimeout bounds the whole Query fan-out.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *Chart) {
		c.queryTimeout = d
	}
}

// New creates a Chart bound to a render container.
// The container is an opaque handle interpreted by the renderer (the default
// renderer treats it as an output file path). If def is not nil it is
// deep-copied, exactly as SetDefinition would.
func New(container string, def *domain.Definition, opts ...Option) (*Chart, error) {
	if container == "" {
		return nil, fmt.Errorf("container required: %w", domain.ErrInvalidArgument)
	}

	c := &Chart{
		container: container,
		lockTTL:   defaultLockTTL,
		showSlot:  make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	c.logger = c.logger.With("chart", container)

	if c.querier == nil {
		c.querier = featureservice.New(featureservice.WithLogger(c.logger))
	}
	if c.params == nil {
		c.params = query.Builder{}
	}
	if c.transformer == nil {
		c.transformer = dataset.Transformer{}
	}
	if c.renderer == nil {
		c.renderer = file.NewRouter()
	}

	if def != nil {
		c.SetDefinition(def)
	}

	return c, nil
}

// Container returns the render container handle.
func (c *Chart) Container() string {
	return c.container
}

// Definition returns a copy of the current definition, or nil if none is set.
func (c *Chart) Definition() *domain.Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.definition.Clone()
}

// SetDefinition replaces the definition with a deep copy of def.
func (c *Chart) SetDefinition(def *domain.Definition) *Chart {
	cp := def.Clone()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.definition = cp
	return c
}

// Validate checks the current definition.
func (c *Chart) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.definition.Validate()
}

// Data returns a copy of the shaped data from the last UpdateData call.
func (c *Chart) Data() domain.ChartData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil {
		return nil
	}
	return domain.Clone(c.data)
}

// Dataset returns the first dataset with the given name.
func (c *Chart) Dataset(name string) (domain.Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.definition == nil {
		return domain.Dataset{}, false
	}
	for _, ds := range c.definition.Datasets {
		if ds.Name == name {
			return domain.Clone(ds), true
		}
	}
	return domain.Dataset{}, false
}

// Query fetches every remote dataset concurrently and returns the raw
// responses keyed by dataset name (or "dataset<index>" for unnamed ones).
//
// The first failure cancels the remaining requests and is returned as a
// *domain.QueryError; no partial results are returned.
func (c *Chart) Query(ctx context.Context) (domain.QueryResults, error) {
	datasets := c.GetDatasets()

	type job struct {
		key string
		req domain.QueryRequest
	}

	var jobs []job
	seen := make(map[string]int)
	for i, ds := range datasets {
		if !ds.IsRemote() {
			continue
		}
		if ds.Name == "" && c.strictNames {
			return nil, fmt.Errorf("remote dataset %d (%s) has no name: %w", i, ds.URL, domain.ErrInvalidArgument)
		}
		key := ds.ResultKey(i)
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("datasets %d and %d share result key %q: %w", prev, i, key, domain.ErrInvalidArgument)
		}
		seen[key] = i

		params, err := c.params.BuildParams(ds.Query)
		if err != nil {
			return nil, fmt.Errorf("failed to build query for dataset %q: %w", key, err)
		}
		jobs = append(jobs, job{key: key, req: domain.QueryRequest{URL: ds.URL, Params: params}})
	}

	results := make(domain.QueryResults, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}

	if c.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	c.logger.Debug("querying datasets", "count", len(jobs))

	responses := make([]*domain.FeatureSet, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			ev := &domain.QueryEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventQueryStart, Container: c.container},
				Key:       j.key,
				URL:       j.req.URL,
			}
			if c.hooks.OnQueryStart != nil {
				c.hooks.OnQueryStart(gctx, ev)
			}

			fs, err := c.querier.QueryFeatures(gctx, j.req)

			done := *ev
			done.Type = domain.EventQueryDone
			done.Duration = time.Since(ev.Timestamp)
			done.Err = err
			if fs != nil {
				done.Features = len(fs.Features)
			}
			if c.hooks.OnQueryDone != nil {
				c.hooks.OnQueryDone(gctx, &done)
			}

			if err != nil {
				return &domain.QueryError{Key: j.key, URL: j.req.URL, Err: err}
			}
			responses[i] = fs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.Warn("dataset query failed", "err", err)
		return nil, err
	}

	for i, j := range jobs {
		results[j.key] = responses[i]
	}
	return results, nil
}

// UpdateData shapes the datasets and the given query results into chart
// data and stores it. The Chart is returned even when err != nil.
func (c *Chart) UpdateData(results domain.QueryResults) (*Chart, error) {
	c.mu.RLock()
	var (
		datasets []domain.Dataset
		series   []domain.Series
	)
	if c.definition != nil {
		datasets = domain.Clone(c.definition.Datasets)
		series = domain.Clone(c.definition.Series)
	}
	c.mu.RUnlock()

	data, err := c.transformer.Transform(datasets, domain.TransformOptions{
		DatasetsData: results,
		Series:       series,
	})
	if err != nil {
		return c, err
	}

	c.mu.Lock()
	c.data = data
	c.mu.Unlock()

	c.logger.Debug("chart data updated", "rows", len(data))
	return c, nil
}

// Render draws the current definition and data into the container.
// The Chart is returned even when err != nil.
func (c *Chart) Render(ctx context.Context) (*Chart, error) {
	c.mu.RLock()
	var def domain.Definition
	if c.definition != nil {
		def = *c.definition.Clone()
	}
	var data domain.ChartData
	if c.data != nil {
		data = domain.Clone(c.data)
	}
	c.mu.RUnlock()

	start := time.Now()
	err := c.renderer.Render(ctx, c.container, def, data)

	if c.hooks.OnRender != nil {
		c.hooks.OnRender(ctx, &domain.RenderEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventRender, Container: c.container},
			ChartType: def.Type,
			Rows:      len(data),
			Duration:  time.Since(start),
			Err:       err,
		})
	}

	if err != nil {
		c.logger.Error("render failed", "type", def.Type, "err", err)
		return c, err
	}
	c.logger.Debug("chart rendered", "type", def.Type, "rows", len(data))
	return c, nil
}

// Show runs Query, UpdateData and Render in sequence.
//
// Only one Show runs at a time per Chart: depending on the BusyPolicy a
// concurrent call fails with domain.ErrBusy or waits its turn.
func (c *Chart) Show(ctx context.Context) (*Chart, error) {
	release, err := c.acquireShow(ctx)
	if err != nil {
		return c, err
	}
	defer release()

	results, err := c.Query(ctx)
	if err != nil {
		return c, err
	}
	if _, err := c.UpdateData(results); err != nil {
		return c, err
	}
	return c.Render(ctx)
}

func (c *Chart) acquireShow(ctx context.Context) (func(), error) {
	switch c.busyPolicy {
	case BusyQueue:
		select {
		case c.showSlot <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	default:
		select {
		case c.showSlot <- struct{}{}:
		default:
			return nil, fmt.Errorf("show already in flight for %q: %w", c.container, domain.ErrBusy)
		}
	}

	if c.locker == nil {
		return func() { <-c.showSlot }, nil
	}

	unlock, err := c.locker.Lock(ctx, "cedar:show:"+c.container, c.lockTTL)
	if err != nil {
		<-c.showSlot
		return nil, fmt.Errorf("failed to acquire show lock: %w", err)
	}
	return func() {
		if err := unlock(context.Background()); err != nil {
			c.logger.Warn("failed to release show lock", "err", err)
		}
		<-c.showSlot
	}, nil
}
