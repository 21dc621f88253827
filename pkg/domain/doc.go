/*
Package domain contains the core data model of the cedar chart facade.

It defines the declarative chart Definition and its parts, the shape of
feature service responses, the render-ready ChartData, and the error
taxonomy shared by every adapter. The package performs no I/O.

# Key Entities

  - Definition: datasets, series, chart type, specification, overrides and legend.
  - Dataset: an inline or remote (URL + query) source of rows.
  - FeatureSet: the raw response of a remote dataset query.
  - ChartData: the shaped rows handed to a renderer.
*/
package domain
