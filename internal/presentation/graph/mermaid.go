package graph

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aretw0/cedar/pkg/domain"
)

// Overlay carries query outcomes to visualize on the graph.
type Overlay struct {
	Results domain.QueryResults
	// Failed holds the result keys whose query failed.
	Failed []string
}

// GenerateMermaid produces a Mermaid flowchart of how a definition's data
// flows into the chart. Shapes:
// - Remote dataset: [(Cylinder)]
// - Inline dataset: [Rectangle]
// - Series: [[Subroutine]]
// - Chart: ((Circle))
// Dataset nodes are styled as fetched or failed when an overlay is given.
func GenerateMermaid(def *domain.Definition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	if def == nil {
		return sb.String()
	}

	chartType := def.Type
	if chartType == "" {
		chartType = "chart"
	}
	sb.WriteString(fmt.Sprintf("    chart((\"%s\"))\n", quote(chartType)))

	for i, ds := range def.Datasets {
		key := ds.ResultKey(i)
		id := nodeID("ds", key)
		if ds.IsRemote() {
			label := key + " <br/> " + host(ds.URL)
			if overlay != nil {
				if fs, ok := overlay.Results[key]; ok && fs != nil {
					label += fmt.Sprintf(" <br/> %d features", len(fs.Features))
				}
			}
			sb.WriteString(fmt.Sprintf("    %s[(\"%s\")]\n", id, quote(label)))
		} else {
			sb.WriteString(fmt.Sprintf("    %s[\"%s <br/> %d rows\"]\n", id, quote(key), len(ds.Data)))
		}
	}

	for i, s := range def.Series {
		id := fmt.Sprintf("series%d", i)
		value := ""
		if s.Value != nil {
			value = s.Value.Field
		}
		sb.WriteString(fmt.Sprintf("    %s[[\"%s\"]]\n", id, quote(value)))

		sources := []string{s.Source}
		if s.Source == "" {
			// Unsourced series read the merged rows of every dataset.
			sources = sources[:0]
			for j, ds := range def.Datasets {
				sources = append(sources, ds.ResultKey(j))
			}
		}
		for _, src := range sources {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeID("ds", src), id))
		}

		arrow := "-->"
		if s.Stack {
			arrow = "-- \"stack\" -->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s chart\n", id, arrow))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef fetched fill:#dcfce7,stroke:#15803d,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#fee2e2,stroke:#b91c1c,stroke-width:4px,color:#000;\n")

		failed := make(map[string]bool, len(overlay.Failed))
		for _, key := range overlay.Failed {
			failed[key] = true
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", nodeID("ds", key)))
		}
		for i, ds := range def.Datasets {
			key := ds.ResultKey(i)
			if _, ok := overlay.Results[key]; ok && !failed[key] {
				sb.WriteString(fmt.Sprintf("    class %s fetched;\n", nodeID("ds", key)))
			}
		}
	}

	return sb.String()
}

func nodeID(prefix, key string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", ":", "_")
	return prefix + "_" + r.Replace(key)
}

func quote(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
