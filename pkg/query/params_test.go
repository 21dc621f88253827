package query_test

import (
	"testing"

	"github.com/aretw0/cedar/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateParams_Defaults(t *testing.T) {
	v, err := query.CreateParams(nil)
	require.NoError(t, err)

	assert.Equal(t, "1=1", v.Get("where"))
	assert.Equal(t, "*", v.Get("outFields"))
	assert.Equal(t, "json", v.Get("f"))
	assert.Equal(t, "false", v.Get("returnGeometry"))
	assert.Equal(t, "standard", v.Get("sqlFormat"))
	assert.False(t, v.Has("outStatistics"))
	assert.False(t, v.Has("geometry"))
}

func TestCreateParams_Statistics(t *testing.T) {
	v, err := query.CreateParams(map[string]any{
		"where":                      "year > 2000",
		"groupByFieldsForStatistics": "carrier",
		"orderByFields":              "count DESC",
		"outStatistics": []any{
			map[string]any{
				"statisticType":         "count",
				"onStatisticField":      "flight_id",
				"outStatisticFieldName": "count",
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "year > 2000", v.Get("where"))
	assert.Equal(t, "carrier", v.Get("groupByFieldsForStatistics"))
	assert.Equal(t, "count DESC", v.Get("orderByFields"))
	assert.JSONEq(t,
		`[{"statisticType":"count","onStatisticField":"flight_id","outStatisticFieldName":"count"}]`,
		v.Get("outStatistics"))
}

func TestCreateParams_Bbox(t *testing.T) {
	v, err := query.CreateParams(map[string]any{"bbox": "-10, 40, 5, 50"})
	require.NoError(t, err)

	assert.Equal(t, "esriGeometryEnvelope", v.Get("geometryType"))
	assert.Equal(t, "4326", v.Get("inSR"))
	assert.JSONEq(t,
		`{"xmin":-10,"ymin":40,"xmax":5,"ymax":50,"spatialReference":{"wkid":4326}}`,
		v.Get("geometry"))

	_, err = query.CreateParams(map[string]any{"bbox": "1,2,3"})
	assert.Error(t, err)
}

func TestCreateParams_WeakTypesAndExtra(t *testing.T) {
	v, err := query.CreateParams(map[string]any{
		"resultRecordCount": "25",
		"returnGeometry":    "true",
		"having":            "count > 3",
		"token":             42,
	})
	require.NoError(t, err)

	assert.Equal(t, "25", v.Get("resultRecordCount"))
	assert.Equal(t, "true", v.Get("returnGeometry"))
	assert.Equal(t, "count > 3", v.Get("having"))
	assert.Equal(t, "42", v.Get("token"))
}

func TestCreateParams_InvalidType(t *testing.T) {
	_, err := query.CreateParams(map[string]any{"outStatistics": "not-a-list"})
	assert.Error(t, err)
}
