package tui

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aretw0/cedar/pkg/dataset"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cast"
	"golang.org/x/term"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

// Success formats msg as a positive status line.
func Success(msg string) string {
	return successStyle.Render("✔ " + msg)
}

// Failure formats msg as an error status line.
func Failure(msg string) string {
	return failureStyle.Render("✘ " + msg)
}

// Muted dims secondary output such as file paths and timings.
func Muted(msg string) string {
	return mutedStyle.Render(msg)
}

// IsInteractive reports whether stdout is attached to a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// NewRenderer returns a function that renders markdown using glamour.
// Outside a terminal the markdown is returned untouched.
func NewRenderer() func(string) (string, error) {
	if !IsInteractive() {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// DescribeMarkdown summarizes a definition and its shaped data as markdown:
// the datasets, the series mapping and the render-ready table.
func DescribeMarkdown(container string, def *domain.Definition, data domain.ChartData) string {
	var sb strings.Builder
	if def == nil {
		def = &domain.Definition{}
	}

	chartType := def.Type
	if chartType == "" {
		chartType = "(default)"
	}
	fmt.Fprintf(&sb, "# %s\n\n", container)
	fmt.Fprintf(&sb, "**Type:** %s  \n", chartType)
	fmt.Fprintf(&sb, "**Rows:** %d\n\n", len(data))

	if len(def.Datasets) > 0 {
		sb.WriteString("## Datasets\n\n| Key | Source | Join |\n|---|---|---|\n")
		for i, ds := range def.Datasets {
			source := fmt.Sprintf("inline (%d rows)", len(ds.Data))
			if ds.IsRemote() {
				source = ds.URL
			}
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", escape(ds.ResultKey(i)), escape(source), escape(ds.Join))
		}
		sb.WriteString("\n")
	}

	if len(def.Series) > 0 {
		sb.WriteString("## Series\n\n| Source | Category | Value | Stack |\n|---|---|---|---|\n")
		for _, s := range def.Series {
			fmt.Fprintf(&sb, "| %s | %s | %s | %t |\n",
				escape(s.Source), escape(fieldName(s.Category)), escape(fieldName(s.Value)), s.Stack)
		}
		sb.WriteString("\n")
	}

	if len(data) > 0 {
		sb.WriteString("## Data\n\n")
		sb.WriteString(dataTable(*def, data))
	}
	return sb.String()
}

// dataTable prefers the tabulated chart view and falls back to the raw
// row columns when the definition cannot be tabulated.
func dataTable(def domain.Definition, data domain.ChartData) string {
	var sb strings.Builder
	if t, err := dataset.Tabulate(def, data); err == nil && len(t.Columns) > 0 {
		label := t.CategoryLabel
		if label == "" {
			label = "#"
		}
		header := []string{label}
		for _, c := range t.Columns {
			header = append(header, c.Name)
		}
		writeRow(&sb, header)
		writeRow(&sb, separator(len(header)))
		for i, cat := range t.Categories {
			row := []string{cat}
			for _, c := range t.Columns {
				row = append(row, cast.ToString(c.Values[i]))
			}
			writeRow(&sb, row)
		}
		return sb.String()
	}

	keys := make(map[string]struct{})
	for _, r := range data {
		for k := range r {
			keys[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Strings(header)

	writeRow(&sb, header)
	writeRow(&sb, separator(len(header)))
	for _, r := range data {
		row := make([]string, len(header))
		for i, k := range header {
			row[i] = cast.ToString(r[k])
		}
		writeRow(&sb, row)
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, cells []string) {
	for i := range cells {
		cells[i] = escape(cells[i])
	}
	sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
}

func separator(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "---"
	}
	return out
}

func fieldName(f *domain.Field) string {
	if f == nil {
		return ""
	}
	if f.Label != "" {
		return f.Label
	}
	return f.Field
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
