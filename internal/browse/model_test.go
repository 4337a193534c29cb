package browse

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/casebars/internal/loader"
	"github.com/verte-zerg/casebars/internal/model"
	"github.com/verte-zerg/casebars/internal/scale"
)

func sampleModel(t *testing.T) *Model {
	t.Helper()
	result := model.AggregationResult{
		{CountryName: "Nigeria", TotalCases: 20, TotalDeaths: 8},
		{CountryName: "Guinea", TotalCases: 300, TotalDeaths: 100},
		{CountryName: "Liberia", TotalCases: 150, TotalDeaths: 120},
	}
	s, err := scale.BuildCasesScale(result)
	if err != nil {
		t.Fatalf("build scale: %v", err)
	}
	return NewModel(loader.Dataset{}, result, s)
}

func names(result model.AggregationResult) string {
	parts := make([]string, 0, len(result))
	for _, s := range result {
		parts = append(parts, s.CountryName)
	}
	return strings.Join(parts, ",")
}

func TestSortResult(t *testing.T) {
	m := sampleModel(t)
	if got := names(SortResult(m.result, SortInput)); got != "Nigeria,Guinea,Liberia" {
		t.Fatalf("unexpected input order: %s", got)
	}
	if got := names(SortResult(m.result, SortCases)); got != "Guinea,Liberia,Nigeria" {
		t.Fatalf("unexpected cases order: %s", got)
	}
	if got := names(SortResult(m.result, SortDeaths)); got != "Liberia,Guinea,Nigeria" {
		t.Fatalf("unexpected deaths order: %s", got)
	}
	if got := names(m.result); got != "Nigeria,Guinea,Liberia" {
		t.Fatalf("sorting changed the result: %s", got)
	}
}

func TestSortKeyCycles(t *testing.T) {
	m := sampleModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if m.sortOrder != SortCases {
		t.Fatalf("expected cases sort, got %d", m.sortOrder)
	}
	if got := names(m.Sorted()); got != "Guinea,Liberia,Nigeria" {
		t.Fatalf("unexpected order: %s", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if m.sortOrder != SortInput {
		t.Fatalf("expected sort to wrap to input order, got %d", m.sortOrder)
	}
}

func TestTabNavigation(t *testing.T) {
	m := sampleModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabSummary {
		t.Fatalf("expected wrap to summary tab, got %d", m.activeTab)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabBars {
		t.Fatalf("expected bars tab, got %d", m.activeTab)
	}
}

func TestViewRendersBars(t *testing.T) {
	m := sampleModel(t)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	view := m.View()
	for _, want := range []string{"Bars", "Countries: 3", "Nigeria", "Guinea", "Quit: q"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines != 20 {
		t.Fatalf("expected view to fill 20 lines, got %d", lines)
	}
}

func TestQuit(t *testing.T) {
	m := sampleModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected QuitMsg")
	}
}
