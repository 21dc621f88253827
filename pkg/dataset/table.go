package dataset

import (
	"fmt"

	"github.com/aretw0/cedar/pkg/domain"
	"github.com/spf13/cast"
)

// Column is one plotted series of a Table.
type Column struct {
	Name   string
	Key    string
	Values []float64
	Stack  bool
	Type   string
}

// Table is the category x series matrix renderers draw from.
type Table struct {
	CategoryLabel string
	Categories    []string
	Columns       []Column
}

// Tabulate resolves the series of def against the shaped rows. Values that
// cannot be read as numbers count as 0.
func Tabulate(def domain.Definition, data domain.ChartData) (Table, error) {
	var t Table

	catKey := CategoryKey(def.Series)
	for _, s := range def.Series {
		if s.Category != nil && s.Category.Field == catKey {
			t.CategoryLabel = s.Category.Label
			break
		}
	}
	if t.CategoryLabel == "" {
		t.CategoryLabel = catKey
	}

	t.Categories = make([]string, len(data))
	for i, row := range data {
		if catKey == "" {
			t.Categories[i] = fmt.Sprint(i + 1)
			continue
		}
		t.Categories[i] = cast.ToString(row[catKey])
	}

	joined := IsJoined(def.Datasets)
	for i, s := range def.Series {
		key := ValueKey(s, joined)
		if key == "" {
			return Table{}, fmt.Errorf("series %d has no value field: %w", i, domain.ErrInvalidArgument)
		}
		col := Column{
			Name:   s.Value.Label,
			Key:    key,
			Values: make([]float64, len(data)),
			Stack:  s.Stack,
			Type:   s.Type,
		}
		if col.Name == "" {
			col.Name = key
		}
		for j, row := range data {
			col.Values[j] = cast.ToFloat64(row[key])
		}
		t.Columns = append(t.Columns, col)
	}

	return t, nil
}

// Stacked reports whether any column asks to be stacked.
func (t Table) Stacked() bool {
	for _, c := range t.Columns {
		if c.Stack {
			return true
		}
	}
	return false
}
