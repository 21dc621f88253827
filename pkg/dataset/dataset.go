// Package dataset shapes inline rows and feature service responses into the
// flat, render-ready rows consumed by the renderers.
package dataset

import (
	"fmt"

	"github.com/aretw0/cedar/pkg/domain"
)

// Transformer is the default ports.Transformer.
type Transformer struct{}

// Transform calls GetChartData.
func (Transformer) Transform(datasets []domain.Dataset, opts domain.TransformOptions) (domain.ChartData, error) {
	return GetChartData(datasets, opts)
}

// ValueKey returns the row key that holds a series' values. Rows produced by
// joining several datasets prefix value fields with the dataset name.
func ValueKey(s domain.Series, joined bool) string {
	if s.Value == nil {
		return ""
	}
	if joined && s.Source != "" {
		return s.Source + "_" + s.Value.Field
	}
	return s.Value.Field
}

// CategoryKey returns the row key that holds the category of the chart.
func CategoryKey(series []domain.Series) string {
	for _, s := range series {
		if s.Category != nil && s.Category.Field != "" {
			return s.Category.Field
		}
	}
	return ""
}

// IsJoined reports whether data for these datasets is produced by a join.
func IsJoined(datasets []domain.Dataset) bool {
	return len(datasets) > 1
}

// GetChartData merges the datasets into chart rows.
//
// A single dataset yields its rows unchanged. Several datasets are joined on
// each dataset's join field (Dataset.Join, or the category field of the first
// series sourcing it); see ValueKey for the naming of joined value columns.
func GetChartData(datasets []domain.Dataset, opts domain.TransformOptions) (domain.ChartData, error) {
	if len(datasets) == 0 {
		return domain.ChartData{}, nil
	}

	rowsByIndex := make([][]domain.Row, len(datasets))
	for i, ds := range datasets {
		rows, err := datasetRows(ds, i, opts.DatasetsData)
		if err != nil {
			return nil, err
		}
		rowsByIndex[i] = rows
	}

	if len(datasets) == 1 {
		out := make(domain.ChartData, 0, len(rowsByIndex[0]))
		for _, r := range rowsByIndex[0] {
			out = append(out, copyRow(r))
		}
		return out, nil
	}

	return join(datasets, rowsByIndex, opts.Series)
}

func datasetRows(ds domain.Dataset, i int, results domain.QueryResults) ([]domain.Row, error) {
	if !ds.IsRemote() {
		return ds.Data, nil
	}
	key := ds.ResultKey(i)
	fs, ok := results[key]
	if !ok {
		return nil, fmt.Errorf("no query result for dataset %q", key)
	}
	return fs.Rows(), nil
}

func join(datasets []domain.Dataset, rowsByIndex [][]domain.Row, series []domain.Series) (domain.ChartData, error) {
	categoryKey := CategoryKey(series)
	if categoryKey == "" {
		return nil, fmt.Errorf("joining %d datasets requires a series category field: %w", len(datasets), domain.ErrInvalidArgument)
	}

	var (
		out   domain.ChartData
		index = make(map[string]int)
	)

	for i, ds := range datasets {
		name := ds.ResultKey(i)
		joinField := joinFieldFor(ds, name, series, categoryKey)
		valueSeries := seriesFor(name, series)

		for _, r := range rowsByIndex[i] {
			jv, ok := r[joinField]
			if !ok {
				continue
			}
			k := fmt.Sprint(jv)
			pos, seen := index[k]
			if !seen {
				pos = len(out)
				index[k] = pos
				out = append(out, domain.Row{categoryKey: jv})
			}
			for _, s := range valueSeries {
				out[pos][ValueKey(s, true)] = r[s.Value.Field]
			}
		}
	}

	if out == nil {
		out = domain.ChartData{}
	}
	return out, nil
}

func joinFieldFor(ds domain.Dataset, name string, series []domain.Series, fallback string) string {
	if ds.Join != "" {
		return ds.Join
	}
	for _, s := range series {
		if s.Source == name && s.Category != nil && s.Category.Field != "" {
			return s.Category.Field
		}
	}
	return fallback
}

func seriesFor(name string, series []domain.Series) []domain.Series {
	var out []domain.Series
	for _, s := range series {
		if s.Source == name && s.Value != nil {
			out = append(out, s)
		}
	}
	return out
}

func copyRow(r domain.Row) domain.Row {
	c := make(domain.Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}
