package dataset_test

import (
	"testing"

	"github.com/aretw0/cedar/pkg/dataset"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabulate_SingleDataset(t *testing.T) {
	def := domain.Definition{
		Datasets: []domain.Dataset{{Name: "sales"}},
		Series: []domain.Series{{
			Category: &domain.Field{Field: "month", Label: "Month"},
			Value:    &domain.Field{Field: "total", Label: "Total"},
			Source:   "sales",
		}},
	}
	data := domain.ChartData{
		{"month": "Jan", "total": 10},
		{"month": "Feb", "total": "12.5"},
		{"month": "Mar", "total": nil},
	}

	table, err := dataset.Tabulate(def, data)
	require.NoError(t, err)

	assert.Equal(t, "Month", table.CategoryLabel)
	assert.Equal(t, []string{"Jan", "Feb", "Mar"}, table.Categories)
	require.Len(t, table.Columns, 1)
	assert.Equal(t, "Total", table.Columns[0].Name)
	assert.Equal(t, []float64{10, 12.5, 0}, table.Columns[0].Values)
	assert.False(t, table.Stacked())
}

func TestTabulate_JoinedKeys(t *testing.T) {
	def := domain.Definition{
		Datasets: []domain.Dataset{{Name: "a"}, {Name: "b"}},
		Series: []domain.Series{
			{Category: &domain.Field{Field: "state"}, Value: &domain.Field{Field: "n"}, Source: "a", Stack: true},
			{Category: &domain.Field{Field: "state"}, Value: &domain.Field{Field: "n"}, Source: "b", Stack: true},
		},
	}
	data := domain.ChartData{{"state": "CA", "a_n": 1, "b_n": 2}}

	table, err := dataset.Tabulate(def, data)
	require.NoError(t, err)

	require.Len(t, table.Columns, 2)
	assert.Equal(t, "a_n", table.Columns[0].Name)
	assert.Equal(t, []float64{2}, table.Columns[1].Values)
	assert.True(t, table.Stacked())
}

func TestTabulate_MissingValueField(t *testing.T) {
	def := domain.Definition{Series: []domain.Series{{Category: &domain.Field{Field: "x"}}}}
	_, err := dataset.Tabulate(def, domain.ChartData{{"x": 1}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
