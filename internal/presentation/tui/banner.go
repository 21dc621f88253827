package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the cedar ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Green to teal, top to bottom.
	lines := []struct {
		text  string
		color string
	}{
		{`                  _`, "#4ade80"},
		{`   ___ ___  __| | __ _ _ __`, "#34d399"},
		{`  / __/ _ \/ _` + "`" + ` |/ _` + "`" + ` | '__|`, "#2dd4bf"},
		{` | (_|  __/ (_| | (_| | |`, "#22d3ee"},
		{`  \___\___|\__,_|\__,_|_|`, "#38bdf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
