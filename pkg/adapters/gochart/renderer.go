// Package gochart renders chart definitions to PNG or SVG with go-chart.
package gochart

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/cedar/pkg/dataset"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/mitchellh/mapstructure"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format selects the image encoding.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// FormatFor infers the format from a file extension.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, true
	case ".svg":
		return SVG, true
	}
	return "", false
}

// Overrides are the presentation knobs read from Definition.Overrides.
type Overrides struct {
	Title      string   `mapstructure:"title"`
	Width      int      `mapstructure:"width"`
	Height     int      `mapstructure:"height"`
	XAxisLabel string   `mapstructure:"xAxisLabel"`
	YAxisLabel string   `mapstructure:"yAxisLabel"`
	Colors     []string `mapstructure:"colors"`
}

var defaultPalette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Renderer draws into a file named by the container, or into a fixed writer.
type Renderer struct {
	format Format
	width  int
	height int
	out    io.Writer
}

type Option func(*Renderer)

// WithFormat forces the output format instead of inferring it from the container.
func WithFormat(f Format) Option {
	return func(r *Renderer) {
		r.format = f
	}
}

// WithSize sets the default canvas size; overrides still win.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		r.width = width
		r.height = height
	}
}

// New creates a file renderer. The container is the output path.
func New(opts ...Option) *Renderer {
	r := &Renderer{width: 800, height: 480}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewStreamRenderer renders into w; the container is only used for logging.
func NewStreamRenderer(w io.Writer, format Format, opts ...Option) *Renderer {
	r := New(append([]Option{WithFormat(format)}, opts...)...)
	r.out = w
	return r
}

// Render implements ports.Renderer.
func (r *Renderer) Render(ctx context.Context, container string, def domain.Definition, data domain.ChartData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	format := r.format
	if format == "" {
		f, ok := FormatFor(container)
		if !ok {
			return fmt.Errorf("cannot infer image format of %q: %w", container, domain.ErrUnsupportedFormat)
		}
		format = f
	}
	provider := chart.PNG
	if format == SVG {
		provider = chart.SVG
	}

	drawable, err := r.build(def, data)
	if err != nil {
		return err
	}

	if r.out != nil {
		return drawable.Render(provider, r.out)
	}

	f, err := os.Create(container)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", container, err)
	}
	if err := drawable.Render(provider, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to render %s: %w", container, err)
	}
	return f.Close()
}

type drawable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func (r *Renderer) build(def domain.Definition, data domain.ChartData) (drawable, error) {
	var ov Overrides
	if err := mapstructure.WeakDecode(def.Overrides, &ov); err != nil {
		return nil, fmt.Errorf("invalid overrides: %w", err)
	}
	if ov.Width == 0 {
		ov.Width = r.width
	}
	if ov.Height == 0 {
		ov.Height = r.height
	}
	if len(ov.Colors) == 0 {
		ov.Colors = defaultPalette
	}

	table, err := dataset.Tabulate(def, data)
	if err != nil {
		return nil, err
	}
	if len(table.Categories) == 0 || len(table.Columns) == 0 {
		return nil, fmt.Errorf("nothing to draw (%d rows, %d series): %w", len(table.Categories), len(table.Columns), domain.ErrInvalidArgument)
	}

	switch def.Type {
	case "bar", "column":
		if table.Stacked() {
			return stackedBars(table, ov), nil
		}
		if len(table.Columns) == 1 {
			return bars(table, ov), nil
		}
		return lines(table, ov, def.Legend, false, false), nil
	case "line", "timeline":
		return lines(table, ov, def.Legend, false, false), nil
	case "area":
		return lines(table, ov, def.Legend, true, false), nil
	case "scatter":
		return lines(table, ov, def.Legend, false, true), nil
	case "pie":
		return pie(table, ov)
	default:
		return nil, fmt.Errorf("gochart cannot draw %q: %w", def.Type, domain.ErrUnsupportedType)
	}
}

func color(ov Overrides, i int) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(ov.Colors[i%len(ov.Colors)], "#"))
}

// pointStyle returns a style that renders points only (no connecting line)
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    4,
		DotColor:    col,
	}
}

func padding() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 20}}
}

func bars(t dataset.Table, ov Overrides) drawable {
	col := t.Columns[0]
	values := make([]chart.Value, len(t.Categories))
	for i, cat := range t.Categories {
		values[i] = chart.Value{
			Label: cat,
			Value: col.Values[i],
			Style: chart.Style{FillColor: color(ov, i), StrokeColor: color(ov, i)},
		}
	}
	minY, maxY := valueRange(col.Values)
	return &chart.BarChart{
		Title:      ov.Title,
		Width:      ov.Width,
		Height:     ov.Height,
		Background: padding(),
		BarWidth:   barWidth(ov.Width, len(values)),
		Bars:       values,
		YAxis: chart.YAxis{
			Name:  ov.YAxisLabel,
			Range: &chart.ContinuousRange{Min: minY, Max: maxY},
		},
	}
}

func stackedBars(t dataset.Table, ov Overrides) drawable {
	stacks := make([]chart.StackedBar, len(t.Categories))
	for i, cat := range t.Categories {
		sb := chart.StackedBar{Name: cat}
		for j, col := range t.Columns {
			sb.Values = append(sb.Values, chart.Value{
				Label: col.Name,
				Value: col.Values[i],
				Style: chart.Style{FillColor: color(ov, j), StrokeColor: color(ov, j)},
			})
		}
		stacks[i] = sb
	}
	return &chart.StackedBarChart{
		Title:      ov.Title,
		Width:      ov.Width,
		Height:     ov.Height,
		Background: padding(),
		BarSpacing: 20,
		Bars:       stacks,
	}
}

func pie(t dataset.Table, ov Overrides) (drawable, error) {
	col := t.Columns[0]
	values := make([]chart.Value, 0, len(t.Categories))
	total := 0.0
	for i, cat := range t.Categories {
		v := math.Max(col.Values[i], 0)
		total += v
		values = append(values, chart.Value{
			Label: cat,
			Value: v,
			Style: chart.Style{FillColor: color(ov, i)},
		})
	}
	if total == 0 {
		return nil, fmt.Errorf("pie chart %q has no positive values: %w", col.Name, domain.ErrInvalidArgument)
	}
	return &chart.PieChart{
		Title:  ov.Title,
		Width:  ov.Width,
		Height: ov.Height,
		Values: values,
	}, nil
}

func lines(t dataset.Table, ov Overrides, legend *domain.Legend, fill, points bool) drawable {
	n := len(t.Categories)
	xs := make([]float64, n)
	ticks := make([]chart.Tick, n)
	for i, cat := range t.Categories {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: cat}
	}

	var all []float64
	series := make([]chart.Series, 0, len(t.Columns))
	for i, col := range t.Columns {
		c := color(ov, i)
		style := chart.Style{StrokeColor: c, StrokeWidth: 2}
		if fill {
			style.FillColor = c.WithAlpha(64)
		}
		if points {
			style = pointStyle(c)
		}
		all = append(all, col.Values...)
		series = append(series, chart.ContinuousSeries{
			Name:    col.Name,
			XValues: xs,
			YValues: append([]float64(nil), col.Values...),
			Style:   style,
		})
	}
	minY, maxY := valueRange(all)

	ch := &chart.Chart{
		Title:      ov.Title,
		Width:      ov.Width,
		Height:     ov.Height,
		Background: padding(),
		XAxis: chart.XAxis{
			Name:  firstNonEmpty(ov.XAxisLabel, t.CategoryLabel),
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  ov.YAxisLabel,
			Range: &chart.ContinuousRange{Min: minY, Max: maxY},
		},
		Series: series,
	}

	if legend.IsVisible() {
		var pos domain.LegendPosition
		if legend != nil {
			pos = legend.Position
		}
		switch pos {
		case domain.LegendLeft:
			ch.Elements = []chart.Renderable{chart.LegendLeft(ch)}
		case domain.LegendTop:
			ch.Elements = []chart.Renderable{chart.LegendThin(ch)}
		default:
			ch.Elements = []chart.Renderable{chart.Legend(ch)}
		}
	}
	return ch
}

// valueRange returns a y range that includes zero and never collapses to a
// single value, with a small headroom above the largest value.
func valueRange(values []float64) (float64, float64) {
	minY, maxY := 0.0, 0.0
	for _, v := range values {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}
	if maxY-minY < 1 {
		return minY, minY + 1
	}
	return minY, maxY + (maxY-minY)*0.05
}

func barWidth(width, n int) int {
	w := width / (2 * n)
	if w < 8 {
		return 8
	}
	if w > 60 {
		return 60
	}
	return w
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
