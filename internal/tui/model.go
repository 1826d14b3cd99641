// Package tui is the terminal search-as-you-type view over a query session.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/internal/session"
)

// FacetSource provides the facet summary used to cycle category filters.
type FacetSource interface {
	Facets(ctx context.Context) (*domain.FacetSummary, error)
}

// Model is the Bubble Tea model of the discovery view.
type Model struct {
	ctx      context.Context
	ctrl     *session.Controller
	notifier *Notifier
	facets   FacetSource

	input    textinput.Model
	snap     session.Snapshot
	summary  *domain.FacetSummary
	cursor   int
	width    int
	opened   string
	status   string
	ready    bool
	quitting bool
}

// New creates the model. ctrl must have been created with notifier.Notify
// as its change callback.
func New(ctx context.Context, ctrl *session.Controller, notifier *Notifier, facets FacetSource) Model {
	ti := textinput.New()
	ti.Prompt = "search> "
	ti.Placeholder = "Type to search products, categories, ingredients"
	ti.Focus()
	ti.CharLimit = 200

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		notifier: notifier,
		facets:   facets,
		input:    ti,
		snap:     ctrl.Snapshot(),
		status:   "enter: search  ↑/↓: move  tab: select  pgup/pgdn: page  ctrl+s: sort  ctrl+f: category  ctrl+x: clear filters  esc: clear",
	}
}

type facetsMsg struct {
	summary *domain.FacetSummary
	err     error
}

// Init starts the cursor blink, the change listener and the facet fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.notifier.wait(), m.loadFacets())
}

func (m Model) loadFacets() tea.Cmd {
	if m.facets == nil {
		return nil
	}
	return func() tea.Msg {
		summary, err := m.facets.Facets(m.ctx)
		return facetsMsg{summary: summary, err: err}
	}
}

// Update handles key, resize and session change events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		return m, nil

	case changedMsg:
		m.snap = m.ctrl.Snapshot()
		m.cursor = min(m.cursor, max(len(m.items())-1, 0))
		return m, m.notifier.wait()

	case facetsMsg:
		if msg.err != nil {
			m.status = "facets unavailable"
			return m, nil
		}
		m.summary = msg.summary
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEsc:
			m.input.SetValue("")
			m.cursor = 0
			m.ctrl.Clear(m.ctx)
			return m.refresh(), nil
		case tea.KeyEnter:
			m.ctrl.Submit(m.ctx)
			return m.refresh(), nil
		case tea.KeyTab:
			return m.choose(), nil
		case tea.KeyUp:
			if n := len(m.items()); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
			}
			return m, nil
		case tea.KeyDown:
			if n := len(m.items()); n > 0 {
				m.cursor = (m.cursor + 1) % n
			}
			return m, nil
		case tea.KeyPgDown:
			m.ctrl.SetPage(m.ctx, m.snap.Page+1)
			return m.refresh(), nil
		case tea.KeyPgUp:
			m.ctrl.SetPage(m.ctx, m.snap.Page-1)
			return m.refresh(), nil
		case tea.KeyCtrlS:
			m.applyFilters(cycleSort(m.snap.Filters))
			return m.refresh(), nil
		case tea.KeyCtrlF:
			m.applyFilters(cycleCategory(m.snap.Filters, m.summary))
			return m.refresh(), nil
		case tea.KeyCtrlX:
			m.ctrl.ClearFilters(m.ctx)
			return m.refresh(), nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.cursor = 0
		m.opened = ""
		m.ctrl.Type(after)
		m = m.refresh()
	}
	return m, cmd
}

func (m Model) refresh() Model {
	m.snap = m.ctrl.Snapshot()
	return m
}

func (m *Model) applyFilters(fs domain.FilterState) {
	if err := m.ctrl.SetFilters(m.ctx, fs); err != nil {
		m.status = err.Error()
	}
}

// choose applies the highlighted item: a suggestion goes through the
// session, a product result is opened.
func (m Model) choose() Model {
	if len(m.snap.Suggestions) > 0 && m.cursor < len(m.snap.Suggestions) {
		s := m.snap.Suggestions[m.cursor]
		if id := m.ctrl.SelectSuggestion(m.ctx, s); id != "" {
			m.opened = fmt.Sprintf("%s (%s)", s.Label, id)
			return m.refresh()
		}
		m.input.SetValue(s.Label)
		m.input.CursorEnd()
		m.cursor = 0
		return m.refresh()
	}

	if p, ok := m.highlightedProduct(); ok {
		m.opened = fmt.Sprintf("%s (%s)", p.Title, p.ID)
	}
	return m
}

// items is what the arrow keys move over: suggestions while any are shown,
// results otherwise.
func (m Model) items() []string {
	if len(m.snap.Suggestions) > 0 {
		out := make([]string, len(m.snap.Suggestions))
		for i, s := range m.snap.Suggestions {
			out[i] = s.Label
		}
		return out
	}
	out := make([]string, len(m.snap.Results))
	for i, p := range m.snap.Results {
		out[i] = p.Title
	}
	return out
}

func (m Model) highlightedProduct() (domain.Product, bool) {
	if len(m.snap.Suggestions) > 0 || m.cursor >= len(m.snap.Results) {
		return domain.Product{}, false
	}
	return m.snap.Results[m.cursor], true
}

// View renders the query box, suggestions, results and status line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Discover"))
	b.WriteString("\n")
	b.WriteString(queryBoxStyle.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(describeFilters(m.snap.Filters)))
	b.WriteString("\n\n")

	if len(m.snap.Suggestions) > 0 {
		b.WriteString(m.renderSuggestions())
		b.WriteString("\n")
	}

	switch {
	case m.snap.Error != "":
		b.WriteString(errorStyle.Render(m.snap.Error))
		b.WriteString("\n")
	case m.snap.Browsing():
		b.WriteString(m.renderBrowse())
	default:
		b.WriteString(m.renderResults())
	}

	if m.opened != "" {
		b.WriteString("\n")
		b.WriteString(selectedStyle.Render("opened " + m.opened))
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	return b.String()
}

func (m Model) renderSuggestions() string {
	lines := make([]string, 0, len(m.snap.Suggestions))
	for i, s := range m.snap.Suggestions {
		line := fmt.Sprintf("%-10s %s", s.Type, s.Label)
		if s.Subtitle != "" {
			line += mutedStyle.Render("  " + s.Subtitle)
		}
		if s.Type != domain.SuggestionProduct {
			line += mutedStyle.Render(fmt.Sprintf("  (%d)", s.Count))
		}
		lines = append(lines, m.cursorLine(i, line))
	}
	return suggestionBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderBrowse() string {
	var b strings.Builder
	if len(m.snap.Recent) > 0 {
		b.WriteString(headingStyle.Render("Recent"))
		b.WriteString("  " + strings.Join(m.snap.Recent, " · ") + "\n")
	}
	if len(m.snap.Popular) > 0 {
		b.WriteString(headingStyle.Render("Popular"))
		b.WriteString("  " + strings.Join(m.snap.Popular, " · ") + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderResults())
	return b.String()
}

func (m Model) renderResults() string {
	if m.snap.State == session.StateDebouncing || m.snap.State == session.StateDispatching {
		if len(m.snap.Results) == 0 {
			return mutedStyle.Render("searching...") + "\n"
		}
	}
	if len(m.snap.Results) == 0 {
		return mutedStyle.Render(fmt.Sprintf("No products match %q", m.snap.Query)) + "\n"
	}

	lines := make([]string, 0, len(m.snap.Results)+1)
	lines = append(lines, headingStyle.Render(fmt.Sprintf("%d results · page %d/%d · %dms",
		m.snap.Total, m.snap.Page, max(m.snap.TotalPages, 1), m.snap.TookMs)))
	for i, p := range m.snap.Results {
		line := fmt.Sprintf("%-40s %-12s %s", truncate(p.Title, 40), truncate(p.Category, 12), p.Price)
		if len(m.snap.Suggestions) > 0 {
			lines = append(lines, "  "+line)
			continue
		}
		lines = append(lines, m.cursorLine(i, line))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m Model) cursorLine(i int, line string) string {
	if i == m.cursor {
		return selectedStyle.Render("> " + line)
	}
	return "  " + line
}

func describeFilters(fs domain.FilterState) string {
	n := fs.Normalized()
	parts := []string{fmt.Sprintf("sort: %s %s", n.SortKey, n.SortDirection)}
	if n.Category != nil {
		parts = append(parts, "category: "+*n.Category)
	}
	if n.MinPrice != nil || n.MaxPrice != nil {
		parts = append(parts, "price: "+priceRange(n.MinPrice, n.MaxPrice))
	}
	if len(n.Ingredients) > 0 {
		parts = append(parts, "ingredients: "+strings.Join(n.Ingredients, ", "))
	}
	if n.SkinType != nil {
		parts = append(parts, "skin: "+*n.SkinType)
	}
	if n.HairType != nil {
		parts = append(parts, "hair: "+*n.HairType)
	}
	return strings.Join(parts, "  |  ")
}

func priceRange(lo, hi *float64) string {
	format := func(v *float64) string {
		if v == nil {
			return "*"
		}
		return fmt.Sprintf("%.0f", *v)
	}
	return format(lo) + "-" + format(hi)
}

var sortCycle = []domain.SortKey{
	domain.SortRelevance, domain.SortPrice, domain.SortTitle, domain.SortCategory, domain.SortCreatedAt,
}

// cycleSort advances to the next sort key. created_at sorts newest first,
// the others ascending.
func cycleSort(fs domain.FilterState) domain.FilterState {
	out := fs.Clone()
	current := fs.Normalized().SortKey
	next := sortCycle[(slices.Index(sortCycle, current)+1)%len(sortCycle)]
	out.SortKey = next
	switch next {
	case domain.SortCreatedAt:
		out.SortDirection = domain.SortDesc
	default:
		out.SortDirection = domain.SortAsc
	}
	return out
}

// cycleCategory selects the next category of the facet summary, wrapping
// back to no category after the last one.
func cycleCategory(fs domain.FilterState, summary *domain.FacetSummary) domain.FilterState {
	out := fs.Clone()
	if summary == nil || len(summary.Categories) == 0 {
		out.Category = nil
		return out
	}

	idx := -1
	if fs.Category != nil {
		idx = slices.IndexFunc(summary.Categories, func(c domain.FacetCount) bool {
			return strings.EqualFold(c.Value, *fs.Category)
		})
	}
	if idx+1 >= len(summary.Categories) {
		out.Category = nil
		return out
	}
	next := summary.Categories[idx+1].Value
	out.Category = &next
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

var (
	titleStyle         = lipgloss.NewStyle().Bold(true)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	suggestionBoxStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	headingStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
