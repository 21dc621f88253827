package testutils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aretw0/cedar/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// NewFeatureServer starts a fake feature service. Each key of layers is served
// at /<key>/query with its rows as feature attributes; unknown layers answer
// with a service error object. The server is closed when the test ends.
func NewFeatureServer(t *testing.T, layers map[string][]map[string]any) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.HandleFunc("/{layer}/query", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		rows, ok := layers[chi.URLParam(r, "layer")]
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 400, "message": "Invalid or missing input parameters."},
			})
			return
		}
		features := make([]map[string]any, len(rows))
		for i, row := range rows {
			features[i] = map[string]any{"attributes": row}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"features": features})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// RenderCall is one invocation captured by RecordingRenderer.
type RenderCall struct {
	Container  string
	Definition domain.Definition
	Data       domain.ChartData
}

// RecordingRenderer is a ports.Renderer that remembers its calls.
type RecordingRenderer struct {
	mu    sync.Mutex
	calls []RenderCall
	Err   error
}

func (r *RecordingRenderer) Render(ctx context.Context, container string, def domain.Definition, data domain.ChartData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, RenderCall{Container: container, Definition: def, Data: data})
	return r.Err
}

// Calls returns a snapshot of the recorded calls.
func (r *RecordingRenderer) Calls() []RenderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RenderCall(nil), r.calls...)
}

// WriteFile writes content under dir and returns the absolute path.
// It fails the test immediately on error.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p, err := filepath.Abs(filepath.Join(dir, name))
	require.NoError(t, err, "Failed to get absolute path")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644), "Failed to write %s", name)
	return p
}
