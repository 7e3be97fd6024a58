package ui

import (
	"strings"

	"github.com/ashtra-audio/ashtra/internal/session"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

type filterState int

const (
	unfiltered filterState = iota
	filtering
	filterApplied
)

// summaries adapts a session list to fuzzy.Source.
type summaries []session.Summary

func (s summaries) String(i int) string { return s[i].DisplayTitle() }
func (s summaries) Len() int            { return len(s) }

// sidebarModel is the "Recent Projects" list.
type sidebarModel struct {
	items   []session.Summary
	visible []int // indices into items, in display order
	cursor  int

	filterState filterState
	filterInput textinput.Model

	width  int
	height int
}

func newSidebarModel() sidebarModel {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter"
	ti.CharLimit = 64
	return sidebarModel{filterInput: ti}
}

func (m *sidebarModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.filterInput.Width = max(0, w-4)
}

// setItems replaces the list, keeping the cursor on the same session when it
// is still present.
func (m *sidebarModel) setItems(items []session.Summary) {
	selected, hadSelection := m.selected()
	m.items = items
	m.applyFilter()
	if !hadSelection {
		return
	}
	for i, idx := range m.visible {
		if m.items[idx].ID == selected.ID {
			m.cursor = i
			return
		}
	}
}

func (m *sidebarModel) applyFilter() {
	m.visible = m.visible[:0]
	pattern := strings.TrimSpace(m.filterInput.Value())
	if m.filterState == unfiltered || pattern == "" {
		for i := range m.items {
			m.visible = append(m.visible, i)
		}
	} else {
		for _, match := range fuzzy.FindFrom(pattern, summaries(m.items)) {
			m.visible = append(m.visible, match.Index)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(0, len(m.visible)-1)
	}
}

func (m sidebarModel) selected() (session.Summary, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return session.Summary{}, false
	}
	return m.items[m.visible[m.cursor]], true
}

func (m *sidebarModel) moveCursor(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.visible)-1, m.cursor+delta))
}

func (m *sidebarModel) startFilter() tea.Cmd {
	m.filterState = filtering
	m.applyFilter()
	return m.filterInput.Focus()
}

// acceptFilter keeps the current filter and returns keys to the list.
func (m *sidebarModel) acceptFilter() {
	m.filterInput.Blur()
	if strings.TrimSpace(m.filterInput.Value()) == "" {
		m.resetFilter()
		return
	}
	m.filterState = filterApplied
}

func (m *sidebarModel) resetFilter() {
	m.filterInput.Blur()
	m.filterInput.Reset()
	m.filterState = unfiltered
	m.applyFilter()
}

// updateFilter feeds a message to the filter input while filtering.
func (m sidebarModel) updateFilter(msg tea.Msg) (sidebarModel, tea.Cmd) {
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.cursor = 0
	m.applyFilter()
	return m, cmd
}

func (m sidebarModel) view(active string, focused bool) string {
	var b strings.Builder
	b.WriteString(sidebarTitleStyle.Render("Recent Projects"))
	b.WriteString("\n")

	if m.filterState != unfiltered {
		b.WriteString(m.filterInput.View())
		b.WriteString("\n")
	}

	rows := m.height - 2
	if m.filterState != unfiltered {
		rows--
	}
	if len(m.visible) == 0 {
		note := "No projects yet"
		if m.filterState != unfiltered {
			note = "Nothing matched"
		}
		b.WriteString(subtleStyle.Render(" " + note))
		return b.String()
	}

	start := 0
	if rows > 0 && m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	textWidth := max(1, m.width-4)
	for i := start; i < len(m.visible) && i-start < max(1, rows); i++ {
		item := m.items[m.visible[i]]
		title := runewidth.Truncate(item.DisplayTitle(), textWidth, ellipsis)

		gutter := "  "
		if focused && i == m.cursor {
			gutter = cursorStyle.Render("│ ")
		}
		switch {
		case item.ID == active:
			title = activeItemStyle.Render(title)
		case !focused:
			title = dimStyle.Render(title)
		}
		b.WriteString(gutter + title + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
