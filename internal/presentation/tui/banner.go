package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the stepwise banner, colored when the terminal allows.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"       _                      _          ", "#818cf8"},
		{"   ___| |_ ___ _ ____      __(_)___  ___ ", "#a78bfa"},
		{"  / __| __/ _ \\ '_ \\ \\ /\\ / /| / __|/ _ \\", "#c084fc"},
		{"  \\__ \\ ||  __/ |_) \\ V  V / | \\__ \\  __/", "#e879f9"},
		{"  |___/\\__\\___| .__/ \\_/\\_/  |_|___/\\___|", "#f472b6"},
		{"              |_|                        ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
