package domain

import (
	"fmt"
	"net/url"
)

// Validate checks structural invariants of the definition and returns all
// failures as an *AggregateError. A nil definition is valid (nothing to check).
func (d *Definition) Validate() error {
	if d == nil {
		return nil
	}

	var errs []error

	seen := make(map[string]int, len(d.Datasets))
	for i, ds := range d.Datasets {
		key := ds.ResultKey(i)
		if prev, dup := seen[key]; dup {
			errs = append(errs, &ValidationError{
				Key:    fmt.Sprintf("datasets[%d].name", i),
				Reason: fmt.Sprintf("result key collides with datasets[%d]", prev),
				Value:  key,
			})
		} else {
			seen[key] = i
		}

		if ds.IsRemote() {
			u, err := url.Parse(ds.URL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, &ValidationError{
					Key:    fmt.Sprintf("datasets[%d].url", i),
					Reason: "must be an absolute URL",
					Value:  ds.URL,
				})
			}
		}
	}

	for i, s := range d.Series {
		if s.Value == nil || s.Value.Field == "" {
			errs = append(errs, &ValidationError{
				Key:    fmt.Sprintf("series[%d].value.field", i),
				Reason: "required",
			})
		}
		if s.Source != "" && !d.hasDataset(s.Source) {
			errs = append(errs, &ValidationError{
				Key:    fmt.Sprintf("series[%d].source", i),
				Reason: "unknown dataset",
				Value:  s.Source,
			})
		}
	}

	if d.Legend != nil && !d.Legend.Position.Valid() {
		errs = append(errs, &ValidationError{
			Key:    "legend.position",
			Reason: "must be one of top, bottom, left, right",
			Value:  string(d.Legend.Position),
		})
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func (d *Definition) hasDataset(name string) bool {
	for i, ds := range d.Datasets {
		if ds.ResultKey(i) == name {
			return true
		}
	}
	return false
}
