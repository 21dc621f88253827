package domain

import "strconv"

// Row is a single chart-ready record keyed by field name.
type Row map[string]any

// ChartData is the shaped, render-ready data of a chart.
type ChartData []Row

// Dataset is a named source of rows, either inline or fetched from a feature service.
type Dataset struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
	// Query is the declarative query object translated into transport parameters.
	Query map[string]any `json:"query,omitempty" yaml:"query,omitempty" mapstructure:"query"`
	// Data holds inline rows. Ignored when URL is set.
	Data []Row `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"data"`
	// Join names the field used to merge this dataset with others.
	Join string `json:"join,omitempty" yaml:"join,omitempty" mapstructure:"join"`
}

// IsRemote reports whether the dataset must be fetched over the network.
func (d Dataset) IsRemote() bool {
	return d.URL != ""
}

// ResultKey returns the dataset name or the positional fallback "dataset<i>".
func (d Dataset) ResultKey(i int) string {
	if d.Name != "" {
		return d.Name
	}
	return "dataset" + strconv.Itoa(i)
}
