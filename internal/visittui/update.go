package visittui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/visitwatch/internal/table"
)

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	switch m.mode {
	case modeFilter:
		return m.handleFilterKey(msg)
	case modeConfirm:
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return nil
	case key.Matches(msg, m.keys.Reload):
		if m.loading {
			return nil
		}
		m.loading = true
		return tea.Batch(m.loadCmd(), m.spinner.Tick)
	}

	// Everything below needs data on screen.
	if !m.loaded {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PrevPage):
		m.engine.PrevPage()
		m.clampCursor()
	case key.Matches(msg, m.keys.NextPage):
		m.engine.NextPage()
		m.clampCursor()
	case key.Matches(msg, m.keys.FirstPage):
		m.engine.FirstPage()
		m.cursor = 0
	case key.Matches(msg, m.keys.LastPage):
		m.engine.LastPage()
		m.clampCursor()
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(1)
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(-1)
	case key.Matches(msg, m.keys.JumpTab):
		idx := int(msg.String()[0] - '1')
		if idx >= 0 && idx < len(table.Tabs) {
			m.engine.SetTab(table.Tabs[idx])
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.ColLeft):
		m.moveColumnFocus(-1)
	case key.Matches(msg, m.keys.ColRight):
		m.moveColumnFocus(1)
	case key.Matches(msg, m.keys.Sort):
		if col, ok := m.focusedColumn(); ok {
			m.engine.ToggleSort(col)
			m.clampCursor()
		}
	case key.Matches(msg, m.keys.HideColumn):
		if col, ok := m.focusedColumn(); ok {
			if len(m.engine.VisibleColumns()) == 1 {
				return m.setToast("Pelo menos uma coluna deve ficar visível", true)
			}
			m.engine.SetColumnVisible(col, false)
			m.moveColumnFocus(0)
		}
	case key.Matches(msg, m.keys.ShowAll):
		for _, col := range table.Columns {
			m.engine.SetColumnVisible(col, true)
		}
	case key.Matches(msg, m.keys.Select):
		if row, ok := m.currentRow(); ok {
			m.engine.ToggleSelected(row.ID())
		}
	case key.Matches(msg, m.keys.SelectPage):
		m.engine.SelectPage(true)
	case key.Matches(msg, m.keys.ClearSel):
		m.engine.ClearSelection()
	case key.Matches(msg, m.keys.MoveUp):
		return m.moveRow(-1)
	case key.Matches(msg, m.keys.MoveDown):
		return m.moveRow(1)
	case key.Matches(msg, m.keys.ResetOrder):
		m.engine.ResetOrder()
	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		m.filter.SetValue(m.engine.Filter())
		m.filter.CursorEnd()
		return m.filter.Focus()
	case key.Matches(msg, m.keys.Visit):
		row, ok := m.currentRow()
		if !ok {
			return nil
		}
		if m.pending[row.ID()] {
			return m.setToast("Registro já em andamento", true)
		}
		m.mode = modeConfirm
		m.confirmID = row.ID()
	}
	return nil
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.mode = modeNormal
		m.filter.Blur()
		return nil
	case "esc":
		m.mode = modeNormal
		m.filter.Blur()
		m.filter.SetValue("")
		m.engine.SetFilter("")
		m.clampCursor()
		return nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.engine.SetFilter(m.filter.Value())
	m.cursor = 0
	return cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		id := m.confirmID
		m.mode = modeNormal
		m.confirmID = ""
		if id == "" || m.pending[id] {
			return nil
		}
		m.pending[id] = true
		return tea.Batch(m.recordVisitCmd(id), m.spinner.Tick)
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeNormal
		m.confirmID = ""
	}
	return nil
}

func (m *Model) switchTab(delta int) {
	current := m.engine.Tab()
	idx := 0
	for i, tab := range table.Tabs {
		if tab == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(table.Tabs)) % len(table.Tabs)
	m.engine.SetTab(table.Tabs[idx])
	m.cursor = 0
}

// moveCursor walks rows and spills over page boundaries.
func (m *Model) moveCursor(delta int) {
	page := m.engine.Rows()
	next := m.cursor + delta
	switch {
	case next < 0 && page.CanPrev():
		m.engine.PrevPage()
		m.cursor = m.engine.Rows().PageSize - 1
	case next >= len(page.Rows) && page.CanNext():
		m.engine.NextPage()
		m.cursor = 0
	default:
		m.cursor = next
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.engine.Rows().Rows)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) currentRow() (table.Row, bool) {
	page := m.engine.Rows()
	if m.cursor < 0 || m.cursor >= len(page.Rows) {
		return table.Row{}, false
	}
	return page.Rows[m.cursor], true
}

func (m *Model) moveColumnFocus(delta int) {
	cols := m.engine.VisibleColumns()
	if len(cols) == 0 {
		m.colFocus = 0
		return
	}
	m.colFocus += delta
	if m.colFocus < 0 {
		m.colFocus = 0
	}
	if m.colFocus >= len(cols) {
		m.colFocus = len(cols) - 1
	}
}

func (m *Model) focusedColumn() (table.Column, bool) {
	cols := m.engine.VisibleColumns()
	if m.colFocus < 0 || m.colFocus >= len(cols) {
		return "", false
	}
	return cols[m.colFocus], true
}

// moveRow shifts the cursor row and keeps the cursor on it.
func (m *Model) moveRow(delta int) tea.Cmd {
	row, ok := m.currentRow()
	if !ok {
		return nil
	}
	if err := m.engine.MoveRow(row.ID(), delta); err != nil {
		if errors.Is(err, table.ErrReorderDisabled) {
			return m.setToast("Remova a ordenação para reordenar manualmente", true)
		}
		return m.setToast(err.Error(), true)
	}
	ids := m.engine.RowIDs()
	size := m.engine.Rows().PageSize
	for i, id := range ids {
		if id == row.ID() {
			m.engine.SetPageIndex(i / size)
			m.cursor = i % size
			break
		}
	}
	return nil
}
