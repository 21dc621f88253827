// Package file routes a container path to a rendering backend by its
// extension and persists definitions as YAML files.
package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/cedar/pkg/adapters/excel"
	"github.com/aretw0/cedar/pkg/adapters/gochart"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/aretw0/cedar/pkg/ports"
)

// Router implements ports.Renderer by dispatching on the container's file extension.
type Router struct {
	backends map[string]ports.Renderer
}

// NewRouter returns a Router with the built-in backends:
// .png and .svg via gochart, .xlsx via excel.
func NewRouter() *Router {
	img := gochart.New()
	return &Router{
		backends: map[string]ports.Renderer{
			".png":  img,
			".svg":  img,
			".xlsx": excel.New(),
		},
	}
}

// Register adds or replaces the backend for an extension (e.g. ".pdf").
func (r *Router) Register(ext string, renderer ports.Renderer) *Router {
	r.backends[strings.ToLower(ext)] = renderer
	return r
}

// Extensions lists the supported extensions.
func (r *Router) Extensions() []string {
	out := make([]string, 0, len(r.backends))
	for ext := range r.backends {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Render implements ports.Renderer.
func (r *Router) Render(ctx context.Context, container string, def domain.Definition, data domain.ChartData) error {
	ext := strings.ToLower(filepath.Ext(container))
	backend, ok := r.backends[ext]
	if !ok {
		return fmt.Errorf("no renderer for %q (supported: %s): %w", container, strings.Join(r.Extensions(), ", "), domain.ErrUnsupportedFormat)
	}
	return backend.Render(ctx, container, def, data)
}
