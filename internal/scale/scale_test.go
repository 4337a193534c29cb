package scale

import (
	"errors"
	"math"
	"testing"

	"github.com/verte-zerg/casebars/internal/model"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildCasesScale(t *testing.T) {
	result := model.AggregationResult{
		{CountryName: "A", TotalCases: 30, TotalDeaths: 3},
		{CountryName: "B", TotalCases: 5, TotalDeaths: 0},
	}
	s, err := BuildCasesScale(result)
	if err != nil {
		t.Fatalf("build scale: %v", err)
	}
	if s.Domain() != [2]float64{1, 30} {
		t.Fatalf("unexpected domain: %v", s.Domain())
	}
	if s.Range() != [2]float64{0, 1} {
		t.Fatalf("unexpected range: %v", s.Range())
	}
	if got := s.Map(30); got != 1 {
		t.Fatalf("expected scale(30)=1, got %v", got)
	}
	if got := s.Map(1); got != 0 {
		t.Fatalf("expected scale(1)=0, got %v", got)
	}
	if got := s.Map(15.5); !approx(got, 0.5) {
		t.Fatalf("expected scale(15.5)~0.5, got %v", got)
	}
}

func TestBuildCasesScaleSingleCountry(t *testing.T) {
	s, err := BuildCasesScale(model.AggregationResult{{CountryName: "C", TotalCases: 7, TotalDeaths: 2}})
	if err != nil {
		t.Fatalf("build scale: %v", err)
	}
	if s.Domain() != [2]float64{1, 7} {
		t.Fatalf("unexpected domain: %v", s.Domain())
	}
	if got := s.Map(7); got != 1 {
		t.Fatalf("expected scale(7)=1, got %v", got)
	}
}

func TestBuildCasesScaleEmpty(t *testing.T) {
	_, err := BuildCasesScale(nil)
	if !errors.Is(err, ErrEmptyDomain) {
		t.Fatalf("expected ErrEmptyDomain, got %v", err)
	}
}

func TestLinearMonotonic(t *testing.T) {
	s := NewLinear([2]float64{1, 250}, [2]float64{0, 1})
	prev := s.Map(1)
	for x := 1.0; x <= 250; x += 0.5 {
		got := s.Map(x)
		if got < prev {
			t.Fatalf("scale decreased at %v: %v < %v", x, got, prev)
		}
		prev = got
	}
}

func TestLinearExtrapolates(t *testing.T) {
	s := NewLinear([2]float64{1, 11}, [2]float64{0, 1})
	if got := s.Map(0); !approx(got, -0.1) {
		t.Fatalf("expected -0.1 below domain, got %v", got)
	}
	if got := s.Map(21); !approx(got, 2) {
		t.Fatalf("expected 2 above domain, got %v", got)
	}
}

func TestLinearDegenerateDomain(t *testing.T) {
	s := NewLinear([2]float64{1, 1}, [2]float64{0, 1})
	for _, x := range []float64{-5, 1, 40} {
		if got := s.Map(x); got != 0 {
			t.Fatalf("expected range start for %v, got %v", x, got)
		}
	}
}

func TestLinearInvert(t *testing.T) {
	s := NewLinear([2]float64{1, 30}, [2]float64{0, 1})
	for _, x := range []float64{1, 7.25, 30, 45} {
		if got := s.Invert(s.Map(x)); !approx(got, x) {
			t.Fatalf("invert(map(%v)) = %v", x, got)
		}
	}
	flat := NewLinear([2]float64{2, 9}, [2]float64{3, 3})
	if got := flat.Invert(3); got != 2 {
		t.Fatalf("expected domain start for flat range, got %v", got)
	}
}
