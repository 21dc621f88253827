package cedar

import "github.com/aretw0/cedar/pkg/domain"

// update applies fn to the definition, creating an empty one first if needed.
func (c *Chart) update(fn func(d *domain.Definition)) *Chart {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.definition == nil {
		c.definition = &domain.Definition{}
	}
	fn(c.definition)
	return c
}

// read returns fn(definition), or the zero value when no definition is set.
func read[T any](c *Chart, fn func(d *domain.Definition) T) T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.definition == nil {
		var zero T
		return zero
	}
	return domain.Clone(fn(c.definition))
}

// GetDatasets returns a copy of the definition's datasets.
func (c *Chart) GetDatasets() []domain.Dataset {
	return read(c, func(d *domain.Definition) []domain.Dataset { return d.Datasets })
}

// SetDatasets replaces the datasets, creating the definition if needed.
func (c *Chart) SetDatasets(datasets []domain.Dataset) *Chart {
	v := domain.Clone(datasets)
	return c.update(func(d *domain.Definition) { d.Datasets = v })
}

// GetSeries returns a copy of the series list.
func (c *Chart) GetSeries() []domain.Series {
	return read(c, func(d *domain.Definition) []domain.Series { return d.Series })
}

// SetSeries replaces the series list.
func (c *Chart) SetSeries(series []domain.Series) *Chart {
	v := domain.Clone(series)
	return c.update(func(d *domain.Definition) { d.Series = v })
}

// GetType returns the chart type, or "" when unset.
func (c *Chart) GetType() string {
	return read(c, func(d *domain.Definition) string { return d.Type })
}

// SetType sets the chart type.
func (c *Chart) SetType(chartType string) *Chart {
	return c.update(func(d *domain.Definition) { d.Type = chartType })
}

// GetSpecification returns a copy of the backend specification.
func (c *Chart) GetSpecification() map[string]any {
	return read(c, func(d *domain.Definition) map[string]any { return d.Specification })
}

// SetSpecification replaces the backend specification.
func (c *Chart) SetSpecification(spec map[string]any) *Chart {
	v := domain.Clone(spec)
	return c.update(func(d *domain.Definition) { d.Specification = v })
}

// GetOverrides returns a copy of the presentation overrides.
func (c *Chart) GetOverrides() map[string]any {
	return read(c, func(d *domain.Definition) map[string]any { return d.Overrides })
}

// SetOverrides replaces the presentation overrides.
func (c *Chart) SetOverrides(overrides map[string]any) *Chart {
	v := domain.Clone(overrides)
	return c.update(func(d *domain.Definition) { d.Overrides = v })
}

// GetLegend returns a copy of the legend, or nil when unset.
func (c *Chart) GetLegend() *domain.Legend {
	return read(c, func(d *domain.Definition) *domain.Legend { return d.Legend })
}

// SetLegend replaces the legend settings.
func (c *Chart) SetLegend(legend *domain.Legend) *Chart {
	v := domain.Clone(legend)
	return c.update(func(d *domain.Definition) { d.Legend = v })
}
