// Package excel renders chart definitions as XLSX workbooks: the shaped data
// on one sheet and a native workbook chart drawn over it.
package excel

import (
	"context"
	"fmt"

	"github.com/aretw0/cedar/pkg/dataset"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the name of the data sheet.
const DefaultSheet = "Data"

// Renderer writes an .xlsx file at the container path.
type Renderer struct {
	sheet string
}

type Option func(*Renderer)

// WithSheet renames the data sheet.
func WithSheet(name string) Option {
	return func(r *Renderer) {
		r.sheet = name
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{sheet: DefaultSheet}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var chartTypes = map[string]excelize.ChartType{
	"bar":      excelize.Col,
	"column":   excelize.Col,
	"line":     excelize.Line,
	"timeline": excelize.Line,
	"area":     excelize.Area,
	"pie":      excelize.Pie,
	"scatter":  excelize.Scatter,
}

// Render implements ports.Renderer.
func (r *Renderer) Render(ctx context.Context, container string, def domain.Definition, data domain.ChartData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kind, ok := chartTypes[def.Type]
	if !ok {
		return fmt.Errorf("excel cannot draw %q: %w", def.Type, domain.ErrUnsupportedType)
	}

	table, err := dataset.Tabulate(def, data)
	if err != nil {
		return err
	}
	if len(table.Columns) == 0 {
		return fmt.Errorf("nothing to draw: %w", domain.ErrInvalidArgument)
	}
	if table.Stacked() && kind == excelize.Col {
		kind = excelize.ColStacked
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", r.sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := r.writeTable(f, table); err != nil {
		return err
	}

	if len(table.Categories) > 0 {
		if err := f.AddChart(r.sheet, anchor(len(table.Columns)), r.chartFor(kind, def, table)); err != nil {
			return fmt.Errorf("failed to add chart: %w", err)
		}
	}

	if err := f.SaveAs(container); err != nil {
		return fmt.Errorf("failed to save %s: %w", container, err)
	}
	return nil
}

func (r *Renderer) writeTable(f *excelize.File, t dataset.Table) error {
	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(r.sheet, cell, v)
	}

	if err := set(1, 1, t.CategoryLabel); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for j, c := range t.Columns {
		if err := set(j+2, 1, c.Name); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i, cat := range t.Categories {
		if err := set(1, i+2, cat); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
		for j, c := range t.Columns {
			if err := set(j+2, i+2, c.Values[i]); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i, err)
			}
		}
	}
	return nil
}

func (r *Renderer) chartFor(kind excelize.ChartType, def domain.Definition, t dataset.Table) *excelize.Chart {
	last := len(t.Categories) + 1
	categories := fmt.Sprintf("'%s'!$A$2:$A$%d", r.sheet, last)

	columns := t.Columns
	if kind == excelize.Pie {
		columns = columns[:1]
	}

	series := make([]excelize.ChartSeries, 0, len(columns))
	for j := range columns {
		colName, _ := excelize.ColumnNumberToName(j + 2)
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("'%s'!$%s$1", r.sheet, colName),
			Categories: categories,
			Values:     fmt.Sprintf("'%s'!$%s$2:$%s$%d", r.sheet, colName, colName, last),
		})
	}

	c := &excelize.Chart{
		Type:   kind,
		Series: series,
		Legend: excelize.ChartLegend{Position: legendPosition(def.Legend)},
	}
	if title, ok := def.Overrides["title"].(string); ok && title != "" {
		c.Title = []excelize.RichTextRun{{Text: title}}
	}
	return c
}

func legendPosition(l *domain.Legend) string {
	if !l.IsVisible() {
		return "none"
	}
	if l == nil || l.Position == "" {
		return "bottom"
	}
	return string(l.Position)
}

// anchor places the chart two columns right of the data.
func anchor(columns int) string {
	cell, _ := excelize.CoordinatesToCellName(columns+3, 2)
	return cell
}
