package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Luca's Loaves banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Warm crust tones, light to dark.
	lines := []struct {
		text  string
		color string
	}{
		{"  _                             ", "#fde68a"},
		{" | |    ___   __ ___   _____  ___", "#fcd34d"},
		{" | |   / _ \\ / _` \\ \\ / / _ \\/ __|", "#f59e0b"},
		{" | |__| (_) | (_| |\\ V /  __/\\__ \\", "#d97706"},
		{" |_____\\___/ \\__,_| \\_/ \\___||___/", "#b45309"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
