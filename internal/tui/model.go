// Package tui is an interactive browser for mined association rules.
package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/the-cart-must-flow/internal/arl"
	"github.com/Veraticus/the-cart-must-flow/internal/cli"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/Veraticus/the-cart-must-flow/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// chromeHeight is the number of lines around the table: title, status, search and help.
const chromeHeight = 7

// Model is the bubbletea model of the rule browser.
type Model struct {
	catalog  model.Catalog
	theme    themes.Theme
	keys     KeyMap
	sortBy   arl.Metric
	query    string
	all      []model.Rule
	visible  []model.Rule
	help     help.Model
	search   textinput.Model
	table    table.Model
	width    int
	height   int
	quitting bool
}

// New creates a browser over rules, initially sorted by lift.
func New(rules []model.Rule, catalog model.Catalog) Model {
	theme := themes.Default

	search := textinput.New()
	search.Placeholder = "item code or description"
	search.Prompt = "/ "
	search.CharLimit = 64

	styles := table.DefaultStyles()
	styles.Header = theme.Header
	styles.Selected = theme.Selected

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithStyles(styles),
	)

	m := Model{
		catalog: catalog,
		theme:   theme,
		keys:    DefaultKeyMap(),
		sortBy:  arl.MetricLift,
		all:     rules,
		help:    help.New(),
		search:  search,
		table:   t,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(max(msg.Height-chromeHeight, 3))
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.search.Focused() {
			return m.updateSearch(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.SortSupport):
			m.setSort(arl.MetricSupport)
			return m, nil
		case key.Matches(msg, m.keys.SortConfidence):
			m.setSort(arl.MetricConfidence)
			return m, nil
		case key.Matches(msg, m.keys.SortLift):
			m.setSort(arl.MetricLift)
			return m, nil
		case key.Matches(msg, m.keys.Search):
			m.search.SetValue(m.query)
			m.table.Blur()
			return m, m.search.Focus()
		case key.Matches(msg, m.keys.ClearSearch):
			m.query = ""
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.ToggleHelp):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ApplySearch):
		m.search.Blur()
		m.table.Focus()
		return m, nil
	case key.Matches(msg, m.keys.ClearSearch):
		m.search.Blur()
		m.search.SetValue("")
		m.table.Focus()
		m.query = ""
		m.refresh()
		return m, nil
	case msg.Type == tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := m.search.Value(); q != m.query {
		m.query = q
		m.refresh()
	}
	return m, cmd
}

func (m *Model) setSort(metric arl.Metric) {
	if m.sortBy == metric {
		return
	}
	m.sortBy = metric
	m.refresh()
}

// refresh recomputes the visible rules and resets the cursor.
func (m *Model) refresh() {
	m.visible = arl.SortRules(FilterRules(m.all, m.query, m.catalog), m.sortBy, true)
	m.table.SetRows(Rows(m.visible, m.catalog))
	m.table.SetCursor(0)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	title := m.theme.Title.Render(fmt.Sprintf("%s Association rules", cli.CartIcon))
	status := m.theme.Status.Render(fmt.Sprintf("%d of %d rules · sorted by %s", len(m.visible), len(m.all), m.sortBy))

	var search string
	switch {
	case m.search.Focused():
		search = m.theme.Search.Render(m.search.View())
	case m.query != "":
		search = m.theme.Search.Render(fmt.Sprintf("filter: %q (esc to clear)", m.query))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		status,
		m.theme.BorderedBox.Render(m.table.View()),
		search,
		m.help.View(m.keys),
	)
}

// SortedBy reports the active sort metric.
func (m Model) SortedBy() arl.Metric {
	return m.sortBy
}

// Visible returns the rules currently listed, in display order.
func (m Model) Visible() []model.Rule {
	return m.visible
}

// Selected returns the highlighted rule.
func (m Model) Selected() (model.Rule, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return model.Rule{}, false
	}
	return m.visible[i], true
}

// FilterRules keeps rules with an item whose code or description contains query, case-insensitively.
func FilterRules(rules []model.Rule, query string, catalog model.Catalog) []model.Rule {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return rules
	}

	out := make([]model.Rule, 0, len(rules))
	for _, r := range rules {
		for _, item := range r.Items() {
			if strings.Contains(strings.ToLower(item), query) ||
				strings.Contains(strings.ToLower(catalog[item]), query) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Rows renders rules as table rows.
func Rows(rules []model.Rule, catalog model.Catalog) []table.Row {
	rows := make([]table.Row, len(rules))
	for i, r := range rules {
		rows[i] = table.Row{
			cli.FormatItems(r.Antecedents, catalog),
			cli.FormatItems(r.Consequents, catalog),
			cli.FormatFloat(r.Support),
			cli.FormatFloat(r.Confidence),
			cli.FormatFloat(r.Lift),
			cli.FormatFloat(r.Conviction),
		}
	}
	return rows
}

// columns splits the available width between the two item columns.
func columns(width int) []table.Column {
	const metricWidth = 10
	items := max((width-4*metricWidth-16)/2, 12)
	return []table.Column{
		{Title: "Antecedents", Width: items},
		{Title: "Consequents", Width: items},
		{Title: "Support", Width: metricWidth},
		{Title: "Confidence", Width: metricWidth},
		{Title: "Lift", Width: metricWidth},
		{Title: "Conviction", Width: metricWidth},
	}
}
