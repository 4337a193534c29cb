package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/casebars/internal/model"
	"github.com/verte-zerg/casebars/internal/scale"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

type exportCountry struct {
	CountryName string  `json:"country_name" yaml:"country_name"`
	TotalCases  float64 `json:"total_cases" yaml:"total_cases"`
	TotalDeaths float64 `json:"total_deaths" yaml:"total_deaths"`
	Fraction    float64 `json:"fraction" yaml:"fraction"`
}

type exportScale struct {
	Domain [2]float64 `json:"domain" yaml:"domain,flow"`
	Range  [2]float64 `json:"range" yaml:"range,flow"`
}

type exportDoc struct {
	Scale     exportScale     `json:"scale" yaml:"scale"`
	Countries []exportCountry `json:"countries" yaml:"countries"`
}

func buildExport(result model.AggregationResult, s scale.Linear) exportDoc {
	doc := exportDoc{
		Scale:     exportScale{Domain: s.Domain(), Range: s.Range()},
		Countries: make([]exportCountry, 0, len(result)),
	}
	for _, summary := range result {
		doc.Countries = append(doc.Countries, exportCountry{
			CountryName: summary.CountryName,
			TotalCases:  summary.TotalCases,
			TotalDeaths: summary.TotalDeaths,
			Fraction:    s.Map(summary.TotalCases),
		})
	}
	return doc
}

// Export writes the result and scale in the requested format.
func Export(w io.Writer, format string, result model.AggregationResult, s scale.Linear) error {
	doc := buildExport(result, s)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"country_name", "total_cases", "total_deaths", "fraction"}); err != nil {
			return err
		}
		for _, c := range doc.Countries {
			if err := cw.Write([]string{
				c.CountryName,
				strconv.FormatFloat(c.TotalCases, 'f', -1, 64),
				strconv.FormatFloat(c.TotalDeaths, 'f', -1, 64),
				strconv.FormatFloat(c.Fraction, 'f', -1, 64),
			}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unknown export format %q (use %s, %s or %s)", format, FormatJSON, FormatYAML, FormatCSV)
	}
}
