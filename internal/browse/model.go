// Package browse provides the Bubble Tea country browser.
package browse

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/casebars/internal/loader"
	"github.com/verte-zerg/casebars/internal/model"
	"github.com/verte-zerg/casebars/internal/render"
	"github.com/verte-zerg/casebars/internal/scale"
)

const (
	tabBars = iota
	tabTable
	tabSummary
)

// Sort orders for the view. The underlying result keeps first-appearance order.
const (
	SortInput = iota
	SortCases
	SortDeaths
)

var sortNames = []string{"input order", "cases", "deaths"}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea browser.
type Model struct {
	dataset loader.Dataset
	result  model.AggregationResult
	scale   scale.Linear

	tabs      []string
	activeTab int
	sortOrder int
	viewports []viewport.Model
	table     table.Model

	width  int
	height int
}

// NewModel constructs a browser over an aggregated dataset.
func NewModel(ds loader.Dataset, result model.AggregationResult, s scale.Linear) *Model {
	m := &Model{
		dataset: ds,
		result:  result,
		scale:   s,
		tabs:    []string{"Bars", "Table", "Summary"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.table = table.New(table.WithFocused(true))
	m.table.SetStyles(tableStyles())
	m.renderContents()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "s":
			m.sortOrder = (m.sortOrder + 1) % len(sortNames)
			m.renderContents()
			return m, nil
		case "g", "home":
			if m.activeTab == tabTable {
				m.table.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabTable {
				m.table.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabTable {
				m.table, cmd = m.table.Update(msg)
				return m, cmd
			}
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight := m.layoutHeights()
	header := fitLines(m.renderTabs()+"\n"+m.renderStatus(), m.width, headerHeight)
	var body string
	if m.activeTab == tabTable {
		body = tableMutedStyle.Render(m.table.View())
	} else {
		body = m.viewports[m.activeTab].View()
	}
	footer := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Sort: s  Quit: q")
	return strings.Join([]string{header, fitLines(body, m.width, bodyHeight), footer}, "\n")
}

// Sorted returns the result in the current view order.
func (m *Model) Sorted() model.AggregationResult {
	return SortResult(m.result, m.sortOrder)
}

// SortResult returns a copy of result ordered for display.
// Ties keep first-appearance order.
func SortResult(result model.AggregationResult, order int) model.AggregationResult {
	out := append(model.AggregationResult(nil), result...)
	switch order {
	case SortCases:
		sort.SliceStable(out, func(i, j int) bool { return out[i].TotalCases > out[j].TotalCases })
	case SortDeaths:
		sort.SliceStable(out, func(i, j int) bool { return out[i].TotalDeaths > out[j].TotalDeaths })
	}
	return out
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	headerHeight = tabsHeight + 1
	bodyHeight = m.height - headerHeight - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight
}

func (m *Model) updateLayout() {
	_, bodyHeight := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.table.SetWidth(m.width)
	m.table.SetHeight(bodyHeight)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if m.activeTab == tabTable {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderStatus() string {
	d := m.scale.Domain()
	status := fmt.Sprintf("Countries: %d  Scale: [%s, %s]  Sort: %s",
		len(m.result), render.FormatCount(d[0]), render.FormatCount(d[1]), sortNames[m.sortOrder])
	return headerStyle.Render(status)
}

func (m *Model) renderContents() {
	sorted := m.Sorted()
	width := m.width
	if width <= 0 {
		width = 80
	}

	var bars bytes.Buffer
	labelWidth := 0
	for _, s := range sorted {
		if w := lipgloss.Width(s.CountryName); w > labelWidth {
			labelWidth = w
		}
	}
	opts := render.BarOptions{Width: render.BarWidthFor(width, labelWidth), Color: true}
	if err := render.Bars(&bars, sorted, m.scale, opts); err != nil {
		bars.Reset()
		fmt.Fprintf(&bars, "Failed to render bars: %v", err)
	}
	m.viewports[tabBars].SetContent(strings.TrimRight(bars.String(), "\n"))

	var summary bytes.Buffer
	if err := render.Summary(&summary, m.dataset, m.result, m.scale); err != nil {
		summary.Reset()
		fmt.Fprintf(&summary, "Failed to render summary: %v", err)
	}
	m.viewports[tabSummary].SetContent(strings.TrimRight(summary.String(), "\n"))

	m.table.SetRows(nil)
	m.table.SetColumns(tableColumns(sorted))
	m.table.SetRows(tableRows(m.dataset, sorted, m.scale))
}

func tableColumns(result model.AggregationResult) []table.Column {
	cols := make([]table.Column, 0, len(render.TableColumns))
	for i, title := range render.TableColumns {
		w := lipgloss.Width(title)
		if i == 0 {
			for _, s := range result {
				if sw := lipgloss.Width(s.CountryName); sw > w {
					w = sw
				}
			}
		} else if w < 8 {
			w = 8
		}
		cols = append(cols, table.Column{Title: title, Width: w})
	}
	return cols
}

func tableRows(ds loader.Dataset, result model.AggregationResult, s scale.Linear) []table.Row {
	var raw [][]string
	if ds.HasGeo {
		raw = render.TableRows(result, s, &ds.Geo)
	} else {
		raw = render.TableRows(result, s, nil)
	}
	rows := make([]table.Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, table.Row(r))
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
