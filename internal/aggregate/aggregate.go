// Package aggregate groups raw records into per-country summaries.
package aggregate

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/verte-zerg/casebars/internal/model"
)

type totals struct {
	cases  float64
	deaths float64
}

// Aggregate sums cases and deaths per country name.
// The result keeps the order in which each country first appears.
func Aggregate(records []model.RawRecord) model.AggregationResult {
	groups := orderedmap.New[string, *totals]()
	for _, rec := range records {
		acc, ok := groups.Get(rec.CountryName)
		if !ok {
			acc = &totals{}
			groups.Set(rec.CountryName, acc)
		}
		acc.cases += rec.Cases
		acc.deaths += rec.Deaths
	}

	out := make(model.AggregationResult, 0, groups.Len())
	for pair := groups.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, model.CountrySummary{
			CountryName: pair.Key,
			TotalCases:  pair.Value.cases,
			TotalDeaths: pair.Value.deaths,
		})
	}
	return out
}
