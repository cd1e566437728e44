package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for marionette.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Warm gradient, top to bottom.
	lines := []struct {
		text  string
		color string
	}{
		{`                      _                   _   _       `, "#f97316"},
		{` _ __ ___   __ _ _ _(_) ___  _ __   ___| |_| |_ ___ `, "#fb923c"},
		{`| '_ ' _ \ / _' | '__| |/ _ \| '_ \ / _ \ __| __/ _ \`, "#fdba74"},
		{`| | | | | | (_| | |  | | (_) | | | |  __/ |_| ||  __/`, "#fcd34d"},
		{`|_| |_| |_|\__,_|_|  |_|\___/|_| |_|\___|\__|\__\___|`, "#fde68a"},
	}

	fmt.Println()
	for _, line := range lines {
		fmt.Println(termenv.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Println(termenv.String("  v" + version).Foreground(p.Color("#9ca3af")))
	fmt.Println()
}
