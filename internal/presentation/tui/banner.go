package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the waypoint banner with the version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	s1 := out.String(" __      __                     _       _   ").Foreground(out.Color("#818cf8"))
	s2 := out.String(" \\ \\ /\\ / /_ _ _   _ _ __   ___ (_)_ __ | |_ ").Foreground(out.Color("#a78bfa"))
	s3 := out.String("  \\ V  V / _` | | | | '_ \\ / _ \\| | '_ \\| __|").Foreground(out.Color("#c084fc"))
	s4 := out.String("   \\_/\\_/\\__,_|\\__, | .__/ \\___/|_|_| |_|\\__|").Foreground(out.Color("#e879f9"))
	s5 := out.String("               |___/|_|  " + version).Foreground(out.Color("#f472b6"))

	fmt.Fprintln(w)
	for _, s := range []termenv.Style{s1, s2, s3, s4, s5} {
		fmt.Fprintln(w, s)
	}
	fmt.Fprintln(w)
}
