package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the fluxgraph banner to w. Colors follow the profile of w, so a
// redirected output gets plain text.
func PrintBanner(w io.Writer, version string) {
	p := termenv.NewOutput(w).ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _                              _     ", "#22d3ee"},
		{"  / _| |_   ___  ____ _ _ __ __ _ _ __ | |__  ", "#38bdf8"},
		{" | |_| | | | \\ \\/ / _` | '__/ _` | '_ \\| '_ \\ ", "#60a5fa"},
		{" |  _| | |_| |>  < (_| | | | (_| | |_) | | | |", "#818cf8"},
		{" |_| |_|\\__,_/_/\\_\\__, |_|  \\__,_| .__/|_| |_|", "#a78bfa"},
		{"                  |___/          |_|          ", "#c084fc"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, p.String("  "+version).Faint())
	}
	fmt.Fprintln(w)
}
