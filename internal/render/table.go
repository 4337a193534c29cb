// Package render turns aggregation results into terminal output.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/casebars/internal/geo"
	"github.com/verte-zerg/casebars/internal/model"
	"github.com/verte-zerg/casebars/internal/scale"
)

// TableColumns are the headers used by Table and the browse view.
var TableColumns = []string{"Country", "Cases", "Deaths", "CFR", "Share", "Mapped"}

// TableRows formats one row per summary in result order.
// doc may be nil when no boundary document was loaded.
func TableRows(result model.AggregationResult, s scale.Linear, doc *geo.Document) [][]string {
	var covered map[string]struct{}
	if doc != nil {
		covered = doc.Index(doc.NameKey)
	}
	rows := make([][]string, 0, len(result))
	for _, summary := range result {
		mapped := "-"
		if covered != nil {
			mapped = "no"
			if _, ok := covered[geo.NormalizeName(summary.CountryName)]; ok {
				mapped = "yes"
			}
		}
		rows = append(rows, []string{
			summary.CountryName,
			FormatCount(summary.TotalCases),
			FormatCount(summary.TotalDeaths),
			fmt.Sprintf("%.1f%%", summary.CaseFatality()*100),
			fmt.Sprintf("%.1f%%", s.Map(summary.TotalCases)*100),
			mapped,
		})
	}
	return rows
}

// Table prints an aligned per-country table.
func Table(w io.Writer, result model.AggregationResult, s scale.Linear, doc *geo.Document) error {
	if len(result) == 0 {
		_, err := fmt.Fprintln(w, "No countries found.")
		return err
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	lines := formatTable(TableColumns, TableRows(result, s, doc), rightAlign)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatCount prints whole numbers without decimals and keeps fractions otherwise.
func FormatCount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return fmt.Sprintf("%.2f", v)
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			if i < len(row) {
				if w := displayWidth(row[i]); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
