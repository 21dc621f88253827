package domain

import "net/url"

// FieldInfo describes a column returned by a feature service.
type FieldInfo struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Alias string `json:"alias,omitempty"`
}

// Feature is one result row. Geometry is not requested by cedar.
type Feature struct {
	Attributes map[string]any `json:"attributes"`
}

// FeatureSet is the response of a feature service query.
type FeatureSet struct {
	ObjectIDFieldName     string      `json:"objectIdFieldName,omitempty"`
	Fields                []FieldInfo `json:"fields,omitempty"`
	Features              []Feature   `json:"features"`
	ExceededTransferLimit bool        `json:"exceededTransferLimit,omitempty"`
}

// Rows flattens the feature attributes into chart rows.
func (fs *FeatureSet) Rows() []Row {
	if fs == nil {
		return nil
	}
	rows := make([]Row, 0, len(fs.Features))
	for _, f := range fs.Features {
		rows = append(rows, Row(f.Attributes))
	}
	return rows
}

// QueryResults maps a dataset result key to its raw response.
type QueryResults map[string]*FeatureSet

// QueryRequest is what the orchestrator hands to a FeatureQuerier.
type QueryRequest struct {
	URL    string
	Params url.Values
}

// TransformOptions carries everything besides the datasets that the data
// shaper needs.
type TransformOptions struct {
	DatasetsData QueryResults
	Series       []Series
}
