// Package model defines shared data structures.
package model

import "time"

// Config defines load and render settings for a run.
type Config struct {
	DataPath      string
	GeoPath       string
	GeoNameKey    string
	CountryColumn string
	CasesColumn   string
	DeathsColumn  string
	OnInvalid     string
	Timeout       time.Duration
	Width         int
	Color         bool
}

// RawRecord is one row of the tabular dataset.
type RawRecord struct {
	CountryName string
	Cases       float64
	Deaths      float64
}

// CountrySummary holds the per-country sums of cases and deaths.
type CountrySummary struct {
	CountryName string  `json:"country_name" yaml:"country_name"`
	TotalCases  float64 `json:"total_cases" yaml:"total_cases"`
	TotalDeaths float64 `json:"total_deaths" yaml:"total_deaths"`
}

// CaseFatality returns deaths divided by cases, or 0 without cases.
func (s CountrySummary) CaseFatality() float64 {
	if s.TotalCases == 0 {
		return 0
	}
	return s.TotalDeaths / s.TotalCases
}

// AggregationResult lists one summary per country in first-appearance order.
type AggregationResult []CountrySummary

// MaxCases returns the largest TotalCases, or false for an empty result.
func (r AggregationResult) MaxCases() (float64, bool) {
	if len(r) == 0 {
		return 0, false
	}
	maxVal := r[0].TotalCases
	for _, s := range r[1:] {
		if s.TotalCases > maxVal {
			maxVal = s.TotalCases
		}
	}
	return maxVal, true
}

// Totals sums cases and deaths across every country.
func (r AggregationResult) Totals() (cases, deaths float64) {
	for _, s := range r {
		cases += s.TotalCases
		deaths += s.TotalDeaths
	}
	return cases, deaths
}

// Lookup finds the summary for a country by exact name.
func (r AggregationResult) Lookup(name string) (CountrySummary, bool) {
	for _, s := range r {
		if s.CountryName == name {
			return s, true
		}
	}
	return CountrySummary{}, false
}
