// Package query translates the declarative query object of a remote dataset
// into feature service request parameters.
package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Statistic is one entry of outStatistics.
type Statistic struct {
	StatisticType         string `json:"statisticType" mapstructure:"statisticType"`
	OnStatisticField      string `json:"onStatisticField" mapstructure:"onStatisticField"`
	OutStatisticFieldName string `json:"outStatisticFieldName,omitempty" mapstructure:"outStatisticFieldName"`
}

// Params is the typed view of a dataset query. Keys not modelled here are
// kept in Extra and forwarded verbatim.
type Params struct {
	Where                      string      `mapstructure:"where"`
	OutFields                  string      `mapstructure:"outFields"`
	OrderByFields              string      `mapstructure:"orderByFields"`
	GroupByFieldsForStatistics string      `mapstructure:"groupByFieldsForStatistics"`
	OutStatistics              []Statistic `mapstructure:"outStatistics"`
	ReturnGeometry             bool        `mapstructure:"returnGeometry"`
	ReturnDistinctValues       bool        `mapstructure:"returnDistinctValues"`
	ReturnIdsOnly              bool        `mapstructure:"returnIdsOnly"`
	ReturnCountOnly            bool        `mapstructure:"returnCountOnly"`
	SQLFormat                  string      `mapstructure:"sqlFormat"`
	ResultRecordCount          int         `mapstructure:"resultRecordCount"`
	ResultOffset               int         `mapstructure:"resultOffset"`
	// Bbox is "xmin,ymin,xmax,ymax" in WGS84; it becomes an envelope geometry filter.
	Bbox string `mapstructure:"bbox"`

	Extra map[string]any `mapstructure:",remain"`
}

// Defaults returns the parameters used when a dataset query omits them.
func Defaults() Params {
	return Params{
		Where:     "1=1",
		OutFields: "*",
		SQLFormat: "standard",
	}
}

// Decode applies a declarative query object on top of the defaults.
func Decode(q map[string]any) (Params, error) {
	p := Defaults()
	if len(q) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return Params{}, fmt.Errorf("failed to create query decoder: %w", err)
	}
	if err := dec.Decode(q); err != nil {
		return Params{}, fmt.Errorf("failed to decode dataset query: %w", err)
	}
	return p, nil
}

// Values encodes the parameters as feature service query-string values.
func (p Params) Values() (url.Values, error) {
	v := url.Values{}
	v.Set("f", "json")
	v.Set("where", p.Where)
	v.Set("outFields", p.OutFields)
	v.Set("returnGeometry", strconv.FormatBool(p.ReturnGeometry))
	v.Set("returnDistinctValues", strconv.FormatBool(p.ReturnDistinctValues))
	v.Set("returnIdsOnly", strconv.FormatBool(p.ReturnIdsOnly))
	v.Set("returnCountOnly", strconv.FormatBool(p.ReturnCountOnly))
	v.Set("sqlFormat", p.SQLFormat)

	if p.OrderByFields != "" {
		v.Set("orderByFields", p.OrderByFields)
	}
	if p.GroupByFieldsForStatistics != "" {
		v.Set("groupByFieldsForStatistics", p.GroupByFieldsForStatistics)
	}
	if len(p.OutStatistics) > 0 {
		b, err := json.Marshal(p.OutStatistics)
		if err != nil {
			return nil, fmt.Errorf("failed to encode outStatistics: %w", err)
		}
		v.Set("outStatistics", string(b))
	}
	if p.ResultRecordCount > 0 {
		v.Set("resultRecordCount", strconv.Itoa(p.ResultRecordCount))
	}
	if p.ResultOffset > 0 {
		v.Set("resultOffset", strconv.Itoa(p.ResultOffset))
	}
	if p.Bbox != "" {
		if err := setEnvelope(v, p.Bbox); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s, err := stringify(p.Extra[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode query parameter %q: %w", k, err)
		}
		v.Set(k, s)
	}
	return v, nil
}

func setEnvelope(v url.Values, bbox string) error {
	parts := strings.Split(bbox, ",")
	if len(parts) != 4 {
		return fmt.Errorf("bbox must have 4 comma separated numbers, got %q", bbox)
	}
	coords := make([]float64, 4)
	for i, s := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid bbox coordinate %q: %w", s, err)
		}
		coords[i] = f
	}
	env, _ := json.Marshal(map[string]any{
		"xmin":             coords[0],
		"ymin":             coords[1],
		"xmax":             coords[2],
		"ymax":             coords[3],
		"spatialReference": map[string]int{"wkid": 4326},
	})
	v.Set("geometry", string(env))
	v.Set("geometryType", "esriGeometryEnvelope")
	v.Set("inSR", "4326")
	v.Set("spatialRel", "esriSpatialRelIntersects")
	return nil
}

func stringify(val any) (string, error) {
	switch t := val.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case nil:
		return "", nil
	}
	b, err := json.Marshal(val)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Builder is the default ports.ParamBuilder.
type Builder struct{}

// BuildParams decodes q over the defaults and encodes it as query-string values.
func (Builder) BuildParams(q map[string]any) (url.Values, error) {
	p, err := Decode(q)
	if err != nil {
		return nil, err
	}
	return p.Values()
}

// CreateParams is a shorthand for Builder{}.BuildParams.
func CreateParams(q map[string]any) (url.Values, error) {
	return Builder{}.BuildParams(q)
}
