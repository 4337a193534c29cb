package render

import (
	"fmt"
	"io"

	"github.com/verte-zerg/casebars/internal/geo"
	"github.com/verte-zerg/casebars/internal/loader"
	"github.com/verte-zerg/casebars/internal/model"
	"github.com/verte-zerg/casebars/internal/scale"
)

// SummaryLines describes a loaded dataset in short label/value lines.
func SummaryLines(ds loader.Dataset, result model.AggregationResult, s scale.Linear) [][2]string {
	cases, deaths := result.Totals()
	lines := [][2]string{
		{"Rows", fmt.Sprintf("%d", ds.RecordStats.Rows)},
		{"Countries", fmt.Sprintf("%d", len(result))},
		{"Total cases", FormatCount(cases)},
		{"Total deaths", FormatCount(deaths)},
	}
	if ds.RecordStats.Coerced > 0 {
		lines = append(lines, [2]string{"Coerced values", fmt.Sprintf("%d", ds.RecordStats.Coerced)})
	}
	d := s.Domain()
	r := s.Range()
	lines = append(lines, [2]string{"Scale", fmt.Sprintf("[%s, %s] -> [%g, %g]", FormatCount(d[0]), FormatCount(d[1]), r[0], r[1])})
	if ds.HasGeo {
		covered := 0
		idx := ds.Geo.Index(ds.Geo.NameKey)
		for _, summary := range result {
			if _, ok := idx[geo.NormalizeName(summary.CountryName)]; ok {
				covered++
			}
		}
		lines = append(lines,
			[2]string{"Boundaries", fmt.Sprintf("%s, %d features", ds.Geo.Kind, len(ds.Geo.Features))},
			[2]string{"Mapped", fmt.Sprintf("%d/%d countries", covered, len(result))},
		)
	}
	return lines
}

// Summary prints SummaryLines as an aligned block.
func Summary(w io.Writer, ds loader.Dataset, result model.AggregationResult, s scale.Linear) error {
	lines := SummaryLines(ds, result, s)
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []string{l[0] + ":", l[1]})
	}
	for _, line := range formatTable(nil, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
