package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/cedar/pkg/adapters/file"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/aretw0/cedar/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barChart() (domain.Definition, domain.ChartData) {
	def := domain.Definition{
		Type: "bar",
		Series: []domain.Series{{
			Category: &domain.Field{Field: "k"},
			Value:    &domain.Field{Field: "v"},
		}},
	}
	return def, domain.ChartData{{"k": "a", "v": 1}, {"k": "b", "v": 2}}
}

func TestRouter_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	def, data := barChart()
	router := file.NewRouter()

	for _, name := range []string{"c.png", "c.SVG", "c.xlsx"} {
		out := filepath.Join(dir, name)
		require.NoError(t, router.Render(context.Background(), out, def, data), name)

		info, err := os.Stat(out)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestRouter_UnknownExtension(t *testing.T) {
	def, data := barChart()
	err := file.NewRouter().Render(context.Background(), "chart.pdf", def, data)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), ".xlsx")
}

func TestRouter_Register(t *testing.T) {
	var called string
	router := file.NewRouter().Register(".PDF", ports.RendererFunc(func(ctx context.Context, container string, def domain.Definition, data domain.ChartData) error {
		called = container
		return nil
	}))

	def, data := barChart()
	require.NoError(t, router.Render(context.Background(), "out.pdf", def, data))
	assert.Equal(t, "out.pdf", called)
}
