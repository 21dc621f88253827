/*
Package ports defines the driven ports (interfaces) of the cedar chart facade.

These interfaces decouple the facade from the remote feature service, the
data shaper, the rendering backends and the persistence layer, so each can
be replaced or faked in tests.

# Key Interfaces

  - FeatureQuerier: fetches one remote dataset (e.g. an ArcGIS feature service).
  - ParamBuilder: translates a dataset's declarative query into transport parameters.
  - Transformer: shapes datasets and query results into ChartData.
  - Renderer: draws a definition and its data into a container.
  - DefinitionStore: persists chart definitions by ID.
  - DistributedLocker: provides distributed locking for concurrent Show calls.
*/
package ports
