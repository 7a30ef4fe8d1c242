package visittui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tOgg1/visitwatch/internal/table"
)

var columnWidths = map[table.Column]int{
	table.ColumnName:         24,
	table.ColumnCPF:          15,
	table.ColumnFrequency:    17,
	table.ColumnLastVerified: 19,
	table.ColumnNextVisit:    24,
	table.ColumnStatus:       8,
}

const (
	legendSoon    = "Visita programada nos próximos 1-2 dias"
	legendPending = "Visita em atraso - requer atenção imediata"
)

func (m *Model) View() string {
	sections := []string{m.renderHeader()}

	switch {
	case !m.loaded && m.loadErr != nil:
		sections = append(sections, m.renderLoadError())
	case !m.loaded:
		sections = append(sections, m.spinner.View()+" Carregando...")
	default:
		sections = append(sections,
			m.renderTabs(),
			m.renderLegend(),
		)
		if m.mode == modeFilter || m.engine.Filter() != "" {
			sections = append(sections, m.renderFilter())
		}
		sections = append(sections, m.renderTable(), m.renderPager())
		if m.mode == modeConfirm {
			sections = append(sections, m.renderConfirm())
		}
	}

	if t := m.renderToast(); t != "" {
		sections = append(sections, t)
	}
	sections = append(sections, m.theme.Muted().Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	title := m.theme.Header().Render("visitwatch")
	var parts []string
	if m.busy() {
		parts = append(parts, m.spinner.View())
	}
	if !m.lastLoad.IsZero() {
		parts = append(parts, m.theme.Muted().Render("atualizado "+m.lastLoad.Format("15:04:05")))
	}
	if n := len(m.pending); n > 0 {
		parts = append(parts, m.theme.Muted().Render(fmt.Sprintf("%d registro(s) em andamento", n)))
	}
	if len(parts) == 0 {
		return title
	}
	return title + "  " + strings.Join(parts, "  ")
}

func (m *Model) renderLoadError() string {
	lines := []string{
		m.theme.Fg(m.theme.Toast.Error).Bold(true).Render("Não foi possível carregar os dados"),
		errorText(m.loadErr),
		m.theme.Muted().Render("r para tentar novamente, q para sair"),
	}
	return m.theme.Panel().Render(strings.Join(lines, "\n"))
}

func (m *Model) renderTabs() string {
	current := m.engine.Tab()
	counts := m.engine.CountsByTab()
	tabs := make([]string, 0, len(counts))
	for _, c := range counts {
		tabs = append(tabs, m.theme.Tab(c.Tab == current).Render(fmt.Sprintf("%s %d", c.Label, c.Count)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderLegend() string {
	dot := "●"
	soon := m.theme.Fg(m.theme.Status.Soon).Render(dot) + " " + m.theme.Muted().Render(legendSoon)
	pending := m.theme.Fg(m.theme.Status.Pending).Render(dot) + " " + m.theme.Muted().Render(legendPending)
	return soon + "   " + pending
}

func (m *Model) renderFilter() string {
	if m.mode == modeFilter {
		return m.filter.View()
	}
	return m.theme.Muted().Render("filtro: " + m.engine.Filter() + "  (/ para editar)")
}

func (m *Model) renderTable() string {
	cols := m.engine.VisibleColumns()
	page := m.engine.Rows()

	lines := make([]string, 0, len(page.Rows)+1)
	lines = append(lines, m.renderColumnHeader(cols))
	if len(page.Rows) == 0 {
		lines = append(lines, m.theme.Muted().Render(m.engine.Tab().EmptyMessage()))
		return strings.Join(lines, "\n")
	}
	for i, row := range page.Rows {
		lines = append(lines, m.renderRow(row, cols, i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderColumnHeader(cols []table.Column) string {
	sortDir := make(map[table.Column]string)
	for _, spec := range m.engine.Sorting() {
		if spec.Desc {
			sortDir[spec.Column] = " ▼"
		} else {
			sortDir[spec.Column] = " ▲"
		}
	}

	cells := make([]string, 0, len(cols)+1)
	cells = append(cells, "    ")
	for i, col := range cols {
		cell := fitCell(col.Header()+sortDir[col], columnWidths[col])
		style := m.theme.Header()
		if i == m.colFocus {
			style = style.Underline(true)
		}
		cells = append(cells, style.Render(cell))
	}
	return strings.Join(cells, " ")
}

func (m *Model) renderRow(row table.Row, cols []table.Column, cursor bool) string {
	id := row.ID()
	mark := "[ ]"
	if m.engine.IsSelected(id) {
		mark = "[x]"
	}
	if m.pending[id] {
		mark = "[" + m.spinner.View() + "]"
	}

	cells := make([]string, 0, len(cols)+1)
	cells = append(cells, mark+" ")
	for _, col := range cols {
		text := fitCell(row.Cell(col), columnWidths[col])
		if !cursor {
			text = m.cellStyle(row, col).Render(text)
		}
		cells = append(cells, text)
	}
	line := strings.Join(cells, " ")
	if cursor || m.engine.IsSelected(id) {
		return m.theme.Row(cursor, m.engine.IsSelected(id)).Render(line)
	}
	return line
}

func (m *Model) cellStyle(row table.Row, col table.Column) lipgloss.Style {
	switch col {
	case table.ColumnNextVisit:
		switch {
		case !row.Classified():
			return m.theme.Fg(m.theme.Status.Invalid)
		case row.Info.IsPending:
			return m.theme.Fg(m.theme.Status.Pending).Bold(true)
		case row.Info.IsSoon:
			return m.theme.Fg(m.theme.Status.Soon).Bold(true)
		}
	case table.ColumnStatus:
		if row.Subject.Active {
			return m.theme.Fg(m.theme.Status.OnSchedule)
		}
		return m.theme.Fg(m.theme.Status.Inactive)
	}
	return m.theme.Fg(m.theme.Base.Foreground)
}

func fitCell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

func (m *Model) renderPager() string {
	page := m.engine.Rows()
	m.pager.PerPage = page.PageSize
	m.pager.TotalPages = page.PageCount
	if m.pager.TotalPages < 1 {
		m.pager.TotalPages = 1
	}
	m.pager.Page = page.PageIndex

	parts := []string{
		"Página " + m.pager.View(),
		fmt.Sprintf("%d linha(s)", page.Total),
	}
	if n := len(m.engine.Selected()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selecionado(s)", n))
	}
	if !m.engine.CanReorder() {
		parts = append(parts, "ordenado por coluna")
	}
	return m.theme.Fg(m.theme.Chrome.Footer).Render(strings.Join(parts, " · "))
}

func (m *Model) renderConfirm() string {
	name := m.confirmID
	if s, ok := m.engine.Subject(m.confirmID); ok {
		name = s.Name
	}
	lines := []string{
		m.theme.Accent().Render("Confirmar registro de visita"),
		fmt.Sprintf("Deseja registrar a visita para %s?", name),
		"A data e hora atual serão registradas como a última verificação.",
		"",
		m.theme.Muted().Render("[y] Confirmar   [n] Cancelar"),
	}
	return m.theme.Panel().Render(strings.Join(lines, "\n"))
}

func (m *Model) renderToast() string {
	if strings.TrimSpace(m.toast.text) == "" {
		return ""
	}
	color := m.theme.Toast.Success
	if m.toast.isErr {
		color = m.theme.Toast.Error
	}
	text := m.toast.text
	if m.width > 0 {
		text = runewidth.Truncate(text, m.width, "…")
	}
	return m.theme.Fg(color).Bold(true).Render(text)
}
