package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/casebars/internal/model"
	"github.com/verte-zerg/casebars/internal/scale"
)

const (
	barRune             = '█'
	minBarWidth         = 10
	terminalWidthBackup = 80
)

var barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))

// BarOptions controls bar output.
type BarOptions struct {
	// Width is the number of cells for a full bar. Zero sizes bars to the terminal.
	Width int
	// Color forces colored bars even when w is not a terminal.
	Color bool
}

// BarCells converts a scale fraction into filled cells, clipped to [0, width].
// The scale itself never clamps; clipping only applies to drawing.
func BarCells(fraction float64, width int) int {
	if width <= 0 || math.IsNaN(fraction) {
		return 0
	}
	cells := int(math.Round(fraction * float64(width)))
	if cells < 0 {
		return 0
	}
	if cells > width {
		return width
	}
	return cells
}

// Bars prints one labelled bar per summary in result order.
func Bars(w io.Writer, result model.AggregationResult, s scale.Linear, opts BarOptions) error {
	if len(result) == 0 {
		_, err := fmt.Fprintln(w, "No countries found.")
		return err
	}
	labelWidth := 0
	for _, summary := range result {
		if lw := displayWidth(summary.CountryName); lw > labelWidth {
			labelWidth = lw
		}
	}
	width := opts.Width
	if width <= 0 {
		width = BarWidthFor(terminalWidth(), labelWidth)
	}
	useColor := shouldUseColor(w, opts.Color)

	for _, summary := range result {
		fraction := s.Map(summary.TotalCases)
		bar := strings.Repeat(string(barRune), BarCells(fraction, width))
		if useColor && bar != "" {
			bar = barStyle.Render(bar)
		}
		label := padCell(summary.CountryName, labelWidth, false)
		if _, err := fmt.Fprintf(w, "%s │ %s %s (%.1f%%)\n", label, bar, FormatCount(summary.TotalCases), fraction*100); err != nil {
			return err
		}
	}
	return nil
}

// BarWidthFor computes a bar width that leaves room for the label and value.
func BarWidthFor(totalWidth, labelWidth int) int {
	// label, separator, space and a "1234567 (100.0%)" suffix.
	width := totalWidth - labelWidth - 3 - 18
	if width < minBarWidth {
		width = minBarWidth
	}
	return width
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
