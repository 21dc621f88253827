package domain

import (
	"fmt"
	"strconv"

	"github.com/tiendc/go-deepcopy"
)

// LegendPosition places the legend relative to the plot area.
type LegendPosition string

const (
	LegendTop    LegendPosition = "top"
	LegendBottom LegendPosition = "bottom"
	LegendLeft   LegendPosition = "left"
	LegendRight  LegendPosition = "right"
)

// Valid reports whether p is one of the four supported positions.
// The empty position is valid and means "backend default".
func (p LegendPosition) Valid() bool {
	switch p {
	case "", LegendTop, LegendBottom, LegendLeft, LegendRight:
		return true
	}
	return false
}

// Legend controls legend visibility and placement.
type Legend struct {
	// Visible is a pointer so that "unset" (backend default) differs from false.
	Visible  *bool          `json:"visible,omitempty" yaml:"visible,omitempty" mapstructure:"visible"`
	Position LegendPosition `json:"position,omitempty" yaml:"position,omitempty" mapstructure:"position"`
}

// IsVisible returns the effective visibility (default: visible).
func (l *Legend) IsVisible() bool {
	if l == nil || l.Visible == nil {
		return true
	}
	return *l.Visible
}

// Field references a column in a dataset, with an optional display label.
type Field struct {
	Field string `json:"field" yaml:"field" mapstructure:"field"`
	Label string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
}

// Series describes how one dataset maps into the chart's visual encoding.
type Series struct {
	Category *Field `json:"category,omitempty" yaml:"category,omitempty" mapstructure:"category"`
	Value    *Field `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	// Source is the name of the dataset feeding this series.
	Source string `json:"source,omitempty" yaml:"source,omitempty" mapstructure:"source"`
	Stack  bool   `json:"stack,omitempty" yaml:"stack,omitempty" mapstructure:"stack"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
}

// Definition is the full declarative configuration of one chart.
type Definition struct {
	Datasets      []Dataset      `json:"datasets,omitempty" yaml:"datasets,omitempty" mapstructure:"datasets"`
	Series        []Series       `json:"series,omitempty" yaml:"series,omitempty" mapstructure:"series"`
	Type          string         `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	Specification map[string]any `json:"specification,omitempty" yaml:"specification,omitempty" mapstructure:"specification"`
	Overrides     map[string]any `json:"overrides,omitempty" yaml:"overrides,omitempty" mapstructure:"overrides"`
	Legend        *Legend        `json:"legend,omitempty" yaml:"legend,omitempty" mapstructure:"legend"`
}

// Clone returns a deep copy of the definition. A nil receiver yields nil.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	var out Definition
	if err := deepcopy.Copy(&out, d); err != nil {
		// Definition only holds copyable kinds; a failure here is a programming error.
		panic(fmt.Sprintf("domain: clone definition: %v", err))
	}
	return &out
}

// ResultKey returns the key under which the dataset at index i is stored in
// query results: its name, or "dataset<i>" when unnamed. The index is the
// position in the full dataset list.
func (d *Definition) ResultKey(i int) string {
	if d == nil || i < 0 || i >= len(d.Datasets) {
		return "dataset" + strconv.Itoa(i)
	}
	return d.Datasets[i].ResultKey(i)
}

// Clone deep-copies an arbitrary value with the same semantics as Definition.Clone.
func Clone[T any](v T) T {
	var out T
	if err := deepcopy.Copy(&out, v); err != nil {
		panic(fmt.Sprintf("domain: clone %T: %v", v, err))
	}
	return out
}
