package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/cedar/internal/config"
	"github.com/aretw0/cedar/internal/testutils"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesDefinition = `
type: bar
datasets:
  - name: sales
    data:
      - {month: Jan, total: 10}
      - {month: Feb, total: 14}
series:
  - source: sales
    category: {field: month, label: Month}
    value: {field: total}
`

// execute runs the root command with args. Flags keep their values between
// runs, so every test passes the flags it relies on.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cedar version 0.1.0\n", out)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := testutils.WriteFile(t, dir, "good.yaml", salesDefinition)
	bad := testutils.WriteFile(t, dir, "bad.yaml", "series:\n  - source: nope\n")

	out, err := execute(t, "validate", "-f", good)
	require.NoError(t, err)
	assert.Contains(t, out, "good.yaml is valid")

	out, err = execute(t, "validate", "-f", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 definitions failed validation")
	assert.Contains(t, out, "unknown dataset")
}

func TestShow_WritesContainer(t *testing.T) {
	dir := t.TempDir()
	def := testutils.WriteFile(t, dir, "sales.yaml", salesDefinition)
	out := filepath.Join(dir, "sales.svg")

	stdout, err := execute(t, "show", "-f", def, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+out)
	assert.Contains(t, stdout, "2 rows")

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<svg")
}

func TestShow_UnknownExtension(t *testing.T) {
	dir := t.TempDir()
	def := testutils.WriteFile(t, dir, "sales.yaml", salesDefinition)

	_, err := execute(t, "show", "-f", def, "-o", filepath.Join(dir, "sales.gif"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestQuery(t *testing.T) {
	srv := testutils.NewFeatureServer(t, map[string][]map[string]any{
		"states": {{"state": "CA", "pop": 39}},
	})
	dir := t.TempDir()
	def := testutils.WriteFile(t, dir, "states.json",
		`{"datasets":[{"name":"states","url":"`+srv.URL+`/states"}],"series":[{"source":"states","value":{"field":"pop"}}]}`)

	out, err := execute(t, "query", "-f", def)
	require.NoError(t, err)

	var results map[string]struct {
		Features []struct {
			Attributes map[string]any `json:"attributes"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results["states"].Features, 1)
	assert.Equal(t, "CA", results["states"].Features[0].Attributes["state"])
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	def := testutils.WriteFile(t, dir, "sales.yaml", salesDefinition)

	out, err := execute(t, "describe", "-f", def)
	require.NoError(t, err)
	assert.Contains(t, out, "**Rows:** 2")
	assert.Contains(t, out, "| Month | total |")
	assert.Contains(t, out, "| Feb | 14 |")
}

func TestGraph(t *testing.T) {
	dir := t.TempDir()
	def := testutils.WriteFile(t, dir, "sales.yaml", salesDefinition)

	out, err := execute(t, "graph", "-f", def, "--query=false")
	require.NoError(t, err)
	assert.Contains(t, out, "graph LR")
	assert.Contains(t, out, "ds_sales --> series0")
}

func TestMissingFile(t *testing.T) {
	_, err := execute(t, "query", "-f", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definition file is required")
}

func TestOpenStore(t *testing.T) {
	cfg := config.DefaultServer()

	store, locker, closeStore, err := openStore(cfg)
	require.NoError(t, err)
	defer closeStore()
	assert.Nil(t, locker)
	require.NoError(t, store.Save(context.Background(), "a", &domain.Definition{Type: "bar"}))

	cfg.StoreDir = t.TempDir()
	cfg.Redact = []string{"token"}
	cfg.EncryptionKey = base64.StdEncoding.EncodeToString(make([]byte, 32))
	store, _, closeStore, err = openStore(cfg)
	require.NoError(t, err)
	defer closeStore()
	require.NoError(t, store.Save(context.Background(), "b", &domain.Definition{Type: "line"}))
	loaded, err := store.Load(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "line", loaded.Type)

	cfg.EncryptionKey = "not base64!"
	_, _, _, err = openStore(cfg)
	assert.ErrorContains(t, err, "invalid encryption_key")

	cfg.EncryptionKey = ""
	cfg.Redact = []string{"[bad"}
	_, _, _, err = openStore(cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestOpenStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.DefaultServer()
	cfg.Redis.Addr = mr.Addr()

	store, locker, closeStore, err := openStore(cfg)
	require.NoError(t, err)
	defer closeStore()
	require.NotNil(t, locker)

	require.NoError(t, store.Save(context.Background(), "a", &domain.Definition{Type: "pie"}))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}
