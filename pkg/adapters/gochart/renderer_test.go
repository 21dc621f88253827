package gochart_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/cedar/pkg/adapters/gochart"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func sampleDefinition(chartType string) domain.Definition {
	return domain.Definition{
		Type:     chartType,
		Datasets: []domain.Dataset{{Name: "sales"}},
		Series: []domain.Series{{
			Category: &domain.Field{Field: "month", Label: "Month"},
			Value:    &domain.Field{Field: "total", Label: "Total"},
			Source:   "sales",
		}},
		Overrides: map[string]any{"title": "Sales", "width": "640", "height": 360},
	}
}

func sampleData() domain.ChartData {
	return domain.ChartData{
		{"month": "Jan", "total": 10},
		{"month": "Feb", "total": 14},
		{"month": "Mar", "total": 9},
	}
}

func TestRenderer_PNGFile(t *testing.T) {
	for _, chartType := range []string{"bar", "line", "area", "scatter", "pie", "timeline"} {
		t.Run(chartType, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "chart.png")

			err := gochart.New().Render(context.Background(), out, sampleDefinition(chartType), sampleData())
			require.NoError(t, err)

			b, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(b, pngMagic), "expected PNG output")
		})
	}
}

func TestRenderer_StackedSVGStream(t *testing.T) {
	def := domain.Definition{
		Type:     "bar",
		Datasets: []domain.Dataset{{Name: "a"}, {Name: "b"}},
		Series: []domain.Series{
			{Category: &domain.Field{Field: "state"}, Value: &domain.Field{Field: "n"}, Source: "a", Stack: true},
			{Category: &domain.Field{Field: "state"}, Value: &domain.Field{Field: "n"}, Source: "b", Stack: true},
		},
	}
	data := domain.ChartData{
		{"state": "CA", "a_n": 1, "b_n": 2},
		{"state": "NY", "a_n": 3, "b_n": 4},
	}

	var buf bytes.Buffer
	err := gochart.NewStreamRenderer(&buf, gochart.SVG).Render(context.Background(), "http", def, data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "<svg"), "expected SVG output, got %.20q", buf.String())
}

func TestRenderer_LegendPositions(t *testing.T) {
	hidden := false
	for _, legend := range []*domain.Legend{
		{Position: domain.LegendLeft},
		{Position: domain.LegendTop},
		{Visible: &hidden},
	} {
		def := sampleDefinition("line")
		def.Legend = legend

		var buf bytes.Buffer
		require.NoError(t, gochart.NewStreamRenderer(&buf, gochart.PNG).Render(context.Background(), "mem", def, sampleData()))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	}
}

func TestRenderer_WithoutLegend(t *testing.T) {
	multi := domain.Definition{
		Type:     "bar",
		Datasets: []domain.Dataset{{Name: "a"}, {Name: "b"}},
		Series: []domain.Series{
			{Category: &domain.Field{Field: "state"}, Value: &domain.Field{Field: "n"}, Source: "a"},
			{Category: &domain.Field{Field: "state"}, Value: &domain.Field{Field: "n"}, Source: "b"},
		},
	}
	multiData := domain.ChartData{
		{"state": "CA", "a_n": 1, "b_n": 2},
		{"state": "NY", "a_n": 3, "b_n": 4},
	}

	tests := []struct {
		name string
		def  domain.Definition
		data domain.ChartData
	}{
		{"line", sampleDefinition("line"), sampleData()},
		{"scatter", sampleDefinition("scatter"), sampleData()},
		{"multi-series bar", multi, multiData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Nil(t, tt.def.Legend)

			var buf bytes.Buffer
			require.NotPanics(t, func() {
				err := gochart.NewStreamRenderer(&buf, gochart.SVG).Render(context.Background(), "mem", tt.def, tt.data)
				require.NoError(t, err)
			})
			assert.Contains(t, buf.String(), "<svg")
		})
	}
}

func TestRenderer_FlatValues(t *testing.T) {
	tests := []struct {
		name      string
		chartType string
		data      domain.ChartData
	}{
		{"single bar", "bar", domain.ChartData{{"month": "Jan", "total": 10}}},
		{"equal bars", "bar", domain.ChartData{{"month": "Jan", "total": 5}, {"month": "Feb", "total": 5}}},
		{"zero bars", "bar", domain.ChartData{{"month": "Jan", "total": 0}, {"month": "Feb", "total": 0}}},
		{"single point line", "line", domain.ChartData{{"month": "Jan", "total": 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := gochart.NewStreamRenderer(&buf, gochart.PNG).Render(context.Background(), "mem", sampleDefinition(tt.chartType), tt.data)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
		})
	}
}

func TestRenderer_ZeroPie(t *testing.T) {
	data := domain.ChartData{{"month": "Jan", "total": 0}, {"month": "Feb", "total": -2}}

	var buf bytes.Buffer
	err := gochart.NewStreamRenderer(&buf, gochart.PNG).Render(context.Background(), "mem", sampleDefinition("pie"), data)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRenderer_Errors(t *testing.T) {
	ctx := context.Background()

	err := gochart.New().Render(ctx, "chart.gif", sampleDefinition("bar"), sampleData())
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	var buf bytes.Buffer
	err = gochart.NewStreamRenderer(&buf, gochart.PNG).Render(ctx, "mem", sampleDefinition("radar"), sampleData())
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	err = gochart.NewStreamRenderer(&buf, gochart.PNG).Render(ctx, "mem", sampleDefinition("bar"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestFormatFor(t *testing.T) {
	f, ok := gochart.FormatFor("out/Chart.SVG")
	assert.True(t, ok)
	assert.Equal(t, gochart.SVG, f)

	_, ok = gochart.FormatFor("chart.xlsx")
	assert.False(t, ok)
}
