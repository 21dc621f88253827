package middleware

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/aretw0/cedar/pkg/domain"
	"github.com/aretw0/cedar/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.DefinitionStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks values of keys matching
// the patterns before a definition is persisted. It looks at dataset queries,
// dataset URL parameters, the specification and the overrides.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %v: %w", p, err, domain.ErrInvalidArgument)
		}
		patterns[i] = re
	}
	return func(next ports.DefinitionStore) ports.DefinitionStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, id string, def *domain.Definition) error {
	// The caller keeps its unmasked definition.
	cloned := def.Clone()
	if cloned != nil {
		for i := range cloned.Datasets {
			maskMap(cloned.Datasets[i].Query, m.patterns)
			cloned.Datasets[i].URL = m.maskURL(cloned.Datasets[i].URL)
		}
		maskMap(cloned.Specification, m.patterns)
		maskMap(cloned.Overrides, m.patterns)
	}
	return m.next.Save(ctx, id, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, id string) (*domain.Definition, error) {
	return m.next.Load(ctx, id)
}

func (m *redactMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	changed := false
	for k := range q {
		if matches(k, m.patterns) {
			q.Set(k, Mask)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if matches(k, patterns) {
			m[k] = Mask
			continue
		}
		maskValue(v, patterns)
	}
}

func maskValue(v any, patterns []*regexp.Regexp) {
	switch val := v.(type) {
	case map[string]any:
		maskMap(val, patterns)
	case []any:
		for _, item := range val {
			maskValue(item, patterns)
		}
	case []map[string]any:
		for _, item := range val {
			maskMap(item, patterns)
		}
	}
}

func matches(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
