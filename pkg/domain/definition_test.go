package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/cedar/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinition_Clone(t *testing.T) {
	visible := true
	def := &domain.Definition{
		Type:          "bar",
		Datasets:      []domain.Dataset{{Name: "a", Data: []domain.Row{{"k": "x"}}, Query: map[string]any{"where": "1=1"}}},
		Series:        []domain.Series{{Value: &domain.Field{Field: "v"}}},
		Specification: map[string]any{"nested": map[string]any{"deep": 1}},
		Legend:        &domain.Legend{Visible: &visible},
	}

	cp := def.Clone()
	require.NotSame(t, def, cp)
	assert.Equal(t, def, cp)

	cp.Datasets[0].Data[0]["k"] = "y"
	cp.Datasets[0].Query["where"] = "0=1"
	cp.Series[0].Value.Field = "w"
	cp.Specification["nested"].(map[string]any)["deep"] = 2
	*cp.Legend.Visible = false

	assert.Equal(t, "x", def.Datasets[0].Data[0]["k"])
	assert.Equal(t, "1=1", def.Datasets[0].Query["where"])
	assert.Equal(t, "v", def.Series[0].Value.Field)
	assert.Equal(t, 1, def.Specification["nested"].(map[string]any)["deep"])
	assert.True(t, def.Legend.IsVisible())

	var nilDef *domain.Definition
	assert.Nil(t, nilDef.Clone())
}

func TestResultKey(t *testing.T) {
	def := &domain.Definition{Datasets: []domain.Dataset{{Name: "named"}, {}}}

	assert.Equal(t, "named", def.ResultKey(0))
	assert.Equal(t, "dataset1", def.ResultKey(1))
	assert.Equal(t, "dataset7", def.ResultKey(7))
}

func TestLegend(t *testing.T) {
	var l *domain.Legend
	assert.True(t, l.IsVisible())
	assert.True(t, domain.LegendPosition("").Valid())
	assert.True(t, domain.LegendRight.Valid())
	assert.False(t, domain.LegendPosition("middle").Valid())
}

func TestDefinition_Validate(t *testing.T) {
	var nilDef *domain.Definition
	assert.NoError(t, nilDef.Validate())

	valid := &domain.Definition{
		Datasets: []domain.Dataset{{Name: "a", URL: "https://example.com/FeatureServer/0"}},
		Series:   []domain.Series{{Value: &domain.Field{Field: "v"}, Source: "a"}},
	}
	assert.NoError(t, valid.Validate())

	invalid := &domain.Definition{
		Datasets: []domain.Dataset{
			{URL: "not a url"},
			{Name: "dataset0"},
		},
		Series: []domain.Series{{Source: "ghost"}},
		Legend: &domain.Legend{Position: "middle"},
	}
	err := invalid.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	errs := domain.ValidationErrors(err)
	keys := make([]string, 0, len(errs))
	for _, e := range errs {
		var ve *domain.ValidationError
		require.True(t, errors.As(e, &ve))
		keys = append(keys, ve.Key)
	}
	assert.ElementsMatch(t, []string{
		"datasets[0].url",
		"datasets[1].name",
		"series[0].value.field",
		"series[0].source",
		"legend.position",
	}, keys)
	assert.Contains(t, err.Error(), "5 validation errors")
}

func TestQueryError(t *testing.T) {
	cause := errors.New("timeout")
	err := error(&domain.QueryError{Key: "a", URL: "https://example.com", Err: cause})

	assert.ErrorIs(t, err, domain.ErrRemoteQuery)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `"a"`)
	assert.NotErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestFeatureSet_Rows(t *testing.T) {
	var nilSet *domain.FeatureSet
	assert.Nil(t, nilSet.Rows())

	fs := &domain.FeatureSet{Features: []domain.Feature{{Attributes: map[string]any{"v": 1}}}}
	assert.Equal(t, []domain.Row{{"v": 1}}, fs.Rows())
}
