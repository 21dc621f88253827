package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/cedar/internal/testutils"
	"github.com/aretw0/cedar/pkg/adapters/memory"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invalidDefinition = "type: bar\nseries:\n  - source: nope\n"

const inlineDefinition = `
type: bar
datasets:
  - name: sales
    data:
      - {month: Jan, total: 10}
      - {month: Feb, total: 14}
series:
  - source: sales
    category: {field: month}
    value: {field: total}
`

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestShowChart_PNG(t *testing.T) {
	s := NewServer(memory.NewStore())

	res, err := s.handleShowChart(context.Background(), callRequest(map[string]any{
		"definition": inlineDefinition,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	var image *mcp.ImageContent
	for _, c := range res.Content {
		if img, ok := c.(mcp.ImageContent); ok {
			image = &img
		}
	}
	require.NotNil(t, image)
	assert.Equal(t, "image/png", image.MIMEType)

	raw, err := base64.StdEncoding.DecodeString(image.Data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\x89PNG"))
}

func TestShowChart_SVGFromStore(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Save(context.Background(), "sales", &domain.Definition{
		Type: "line",
		Datasets: []domain.Dataset{{Name: "sales", Data: []domain.Row{
			{"month": "Jan", "total": 10},
			{"month": "Feb", "total": 14},
		}}},
		Series: []domain.Series{{
			Source:   "sales",
			Category: &domain.Field{Field: "month"},
			Value:    &domain.Field{Field: "total"},
		}},
	}))
	s := NewServer(store)

	res, err := s.handleShowChart(context.Background(), callRequest(map[string]any{
		"id":     "sales",
		"format": "svg",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), "<svg")
}

func TestShowChart_Errors(t *testing.T) {
	s := NewServer(memory.NewStore())

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"no input", map[string]any{}, "either definition or id is required"},
		{"bad format", map[string]any{"definition": inlineDefinition, "format": "gif"}, "unsupported format"},
		{"unknown id", map[string]any{"id": "missing"}, "not found"},
		{"invalid definition", map[string]any{"definition": invalidDefinition}, "2 validation errors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleShowChart(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, textOf(t, res), tt.want)
		})
	}
}

func TestQueryDatasets(t *testing.T) {
	srv := testutils.NewFeatureServer(t, map[string][]map[string]any{
		"states": {{"state": "CA", "pop": 39}},
	})
	s := NewServer(memory.NewStore())

	def := `{"type":"bar","datasets":[{"name":"states","url":"` + srv.URL + `/states"}],` +
		`"series":[{"source":"states","category":{"field":"state"},"value":{"field":"pop"}}]}`

	res, err := s.handleQueryDatasets(context.Background(), callRequest(map[string]any{"definition": def}))
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	var results domain.QueryResults
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &results))
	require.Contains(t, results, "states")
	require.Len(t, results["states"].Features, 1)
	assert.Equal(t, "CA", results["states"].Features[0].Attributes["state"])
}

func TestQueryDatasets_RemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	s := NewServer(memory.NewStore())

	def := `{"type":"bar","datasets":[{"name":"states","url":"` + srv.URL + `/states"}],` +
		`"series":[{"source":"states","category":{"field":"state"},"value":{"field":"pop"}}]}`

	res, err := s.handleQueryDatasets(context.Background(), callRequest(map[string]any{"definition": def}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "query failed")
}

func TestValidateDefinition(t *testing.T) {
	s := NewServer(memory.NewStore())

	res, err := s.handleValidate(context.Background(), callRequest(map[string]any{"definition": inlineDefinition}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "definition is valid", textOf(t, res))

	res, err = s.handleValidate(context.Background(), callRequest(map[string]any{"definition": invalidDefinition}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSaveAndListDefinitions(t *testing.T) {
	store := memory.NewStore()
	s := NewServer(store)

	res, err := s.handleSave(context.Background(), callRequest(map[string]any{"definition": inlineDefinition}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	id := textOf(t, res)

	saved, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "bar", saved.Type)

	contents, err := s.handleListDefinitions(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, definitionsURI, text.URI)

	var ids []string
	require.NoError(t, json.Unmarshal([]byte(text.Text), &ids))
	assert.Equal(t, []string{id}, ids)
}

func TestCORSMiddleware(t *testing.T) {
	h := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/sse", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sse", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
