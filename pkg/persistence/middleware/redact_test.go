package middleware_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/aretw0/cedar/pkg/adapters/memory"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/aretw0/cedar/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	redact, err := middleware.NewRedactMiddleware([]string{"(?i)token", "password"})
	require.NoError(t, err)
	store := middleware.Wrap(underlying, redact)
	ctx := context.Background()

	def := &domain.Definition{
		Datasets: []domain.Dataset{{
			Name: "sales",
			URL:  "https://gis.example.com/0?token=abc&f=json",
			Query: map[string]any{
				"where":         "1=1",
				"auth":          map[string]any{"password": "hunter2", "user": "jdoe"},
				"outStatistics": []any{map[string]any{"statisticType": "sum", "token": "t1"}},
			},
		}},
		Overrides: map[string]any{"apiToken": "xyz", "title": "Sales"},
	}

	require.NoError(t, store.Save(ctx, "sales", def))

	// The caller's definition is untouched.
	assert.Equal(t, "https://gis.example.com/0?token=abc&f=json", def.Datasets[0].URL)
	assert.Equal(t, "hunter2", def.Datasets[0].Query["auth"].(map[string]any)["password"])

	stored, err := underlying.Load(ctx, "sales")
	require.NoError(t, err)

	u, err := url.Parse(stored.Datasets[0].URL)
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, u.Query().Get("token"))
	assert.Equal(t, "json", u.Query().Get("f"))

	auth := stored.Datasets[0].Query["auth"].(map[string]any)
	assert.Equal(t, middleware.Mask, auth["password"])
	assert.Equal(t, "jdoe", auth["user"])
	assert.Equal(t, "1=1", stored.Datasets[0].Query["where"])

	stat := stored.Datasets[0].Query["outStatistics"].([]any)[0].(map[string]any)
	assert.Equal(t, middleware.Mask, stat["token"])
	assert.Equal(t, "sum", stat["statisticType"])
	origStat := def.Datasets[0].Query["outStatistics"].([]any)[0].(map[string]any)
	assert.Equal(t, "t1", origStat["token"])

	assert.Equal(t, middleware.Mask, stored.Overrides["apiToken"])
	assert.Equal(t, "Sales", stored.Overrides["title"])
}

func TestRedactMiddleware_Passthrough(t *testing.T) {
	underlying := memory.NewStore()
	redact, err := middleware.NewRedactMiddleware([]string{"token"})
	require.NoError(t, err)
	store := redact(underlying)
	ctx := context.Background()

	def := &domain.Definition{Datasets: []domain.Dataset{{Name: "a", URL: "https://gis.example.com/0"}}}
	require.NoError(t, store.Save(ctx, "a", def))

	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "https://gis.example.com/0", loaded.Datasets[0].URL)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
}

func TestRedactMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewRedactMiddleware([]string{"token", "(unclosed"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.ErrorContains(t, err, "(unclosed")
}
