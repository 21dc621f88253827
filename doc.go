/*
Package cedar is a declarative chart facade: a chart is described by a
Definition (datasets, series, type, overrides, legend) and cedar takes care of
fetching remote data, shaping it into rows and handing it to a rendering backend.

# Concept

A Chart owns one definition and runs a three step lifecycle:

  - Query: every dataset with a URL is fetched concurrently from its feature
    service. Results are keyed by dataset name (or "dataset<index>").
  - UpdateData: inline rows and query results are merged into ChartData.
  - Render: the definition and its data are drawn into the chart's container.

Show runs the three steps in order. Collaborators (querier, shaper, renderer)
are ports and can be swapped with functional options, which keeps the facade
usable from a CLI, an HTTP server or an MCP tool.

# Usage

	def := &domain.Definition{
		Type: "bar",
		Datasets: []domain.Dataset{{
			Name:  "flights",
			URL:   "https://services.arcgis.com/.../FeatureServer/0",
			Query: map[string]any{
				"groupByFieldsForStatistics": "carrier",
				"outStatistics": []map[string]any{{
					"statisticType":         "count",
					"onStatisticField":      "carrier",
					"outStatisticFieldName": "total",
				}},
			},
		}},
		Series: []domain.Series{{
			Category: &domain.Field{Field: "carrier", Label: "Carrier"},
			Value:    &domain.Field{Field: "total", Label: "Flights"},
			Source:   "flights",
		}},
	}

	chart, err := cedar.New("flights.png", def)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := chart.Show(ctx); err != nil {
		log.Fatal(err)
	}

Definitions and returned values are deep copies: mutating what you pass in
or get back never changes the chart.
*/
package cedar
