package excel_test

import (
	"archive/zip"
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/cedar/pkg/adapters/excel"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func definition(chartType string) domain.Definition {
	return domain.Definition{
		Type:     chartType,
		Datasets: []domain.Dataset{{Name: "sales"}},
		Series: []domain.Series{{
			Category: &domain.Field{Field: "month", Label: "Month"},
			Value:    &domain.Field{Field: "total", Label: "Total"},
		}},
		Overrides: map[string]any{"title": "Sales"},
		Legend:    &domain.Legend{Position: domain.LegendRight},
	}
}

func TestRenderer_WritesDataAndChart(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chart.xlsx")
	data := domain.ChartData{
		{"month": "Jan", "total": 10},
		{"month": "Feb", "total": 12.5},
	}

	err := excel.New().Render(context.Background(), out, definition("bar"), data)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(excel.DefaultSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Total", header)

	cat, err := f.GetCellValue(excel.DefaultSheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Feb", cat)

	val, err := f.GetCellValue(excel.DefaultSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "12.5", val)

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()

	var hasChart bool
	for _, zf := range zr.File {
		if zf.Name == "xl/charts/chart1.xml" {
			hasChart = true
		}
	}
	assert.True(t, hasChart, "workbook should embed a chart part")
}

func TestRenderer_UnsupportedType(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chart.xlsx")
	err := excel.New().Render(context.Background(), out, definition("radar"), domain.ChartData{{"month": "Jan", "total": 1}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRenderer_CustomSheet(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pie.xlsx")
	err := excel.New(excel.WithSheet("Sales")).Render(context.Background(), out, definition("pie"), domain.ChartData{{"month": "Jan", "total": 1}})
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sales"}, f.GetSheetList())
}
