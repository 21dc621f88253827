package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/cedar/pkg/domain"
	"github.com/aretw0/cedar/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDefinitionStoreContract runs a suite of tests to verify that a DefinitionStore
// implementation adheres to the defined interface contract.
func RunDefinitionStoreContract(t *testing.T, store ports.DefinitionStore) {
	t.Helper()

	ctx := context.Background()
	id := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		def := &domain.Definition{
			Type: "bar",
			Datasets: []domain.Dataset{{
				Name:  "flights",
				URL:   "https://example.com/FeatureServer/0",
				Query: map[string]any{"groupByFieldsForStatistics": "carrier"},
			}},
			Series: []domain.Series{{
				Category: &domain.Field{Field: "carrier", Label: "Carrier"},
				Value:    &domain.Field{Field: "count", Label: "Flights"},
				Source:   "flights",
			}},
			Legend: &domain.Legend{Position: domain.LegendBottom},
		}

		require.NoError(t, store.Save(ctx, id, def), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "bar", loaded.Type)
		require.Len(t, loaded.Datasets, 1)
		assert.Equal(t, "flights", loaded.Datasets[0].Name)
		assert.Equal(t, "carrier", loaded.Datasets[0].Query["groupByFieldsForStatistics"])
		require.Len(t, loaded.Series, 1)
		assert.Equal(t, "count", loaded.Series[0].Value.Field)
		require.NotNil(t, loaded.Legend)
		assert.Equal(t, domain.LegendBottom, loaded.Legend.Position)
	})

	t.Run("Load Returns Isolated Copy", func(t *testing.T) {
		def := &domain.Definition{Type: "line"}
		require.NoError(t, store.Save(ctx, id+"-iso", def))
		defer func() { _ = store.Delete(ctx, id+"-iso") }()

		def.Type = "pie"
		loaded, err := store.Load(ctx, id+"-iso")
		require.NoError(t, err)
		assert.Equal(t, "line", loaded.Type, "store must not alias the caller's definition")

		loaded.Type = "area"
		again, err := store.Load(ctx, id+"-iso")
		require.NoError(t, err)
		assert.Equal(t, "line", again.Type, "store must not alias returned definitions")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, &domain.Definition{Type: "bar"}))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrDefinitionNotFound, "Load after Delete should return ErrDefinitionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, id1, &domain.Definition{Type: "bar"})
		_ = store.Save(ctx, id2, &domain.Definition{Type: "line"})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
