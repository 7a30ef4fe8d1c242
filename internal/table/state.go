// Package table owns the subject working set behind the dashboard and
// derives everything the table shows from it: tab subsets and counts, text
// filtering, sorting, manual row order, pagination, column visibility and
// row selection.
package table

import (
	"fmt"
	"strings"
)

const DefaultPageSize = 10

// Tab is a named subset of the working set.
type Tab string

const (
	TabAll     Tab = "all"
	TabSoon    Tab = "soon"
	TabPending Tab = "pending"
)

// Tabs lists tabs in display order.
var Tabs = []Tab{TabAll, TabSoon, TabPending}

var tabLabels = map[Tab]string{
	TabAll:     "Todos",
	TabSoon:    "Próximas Visitas",
	TabPending: "Pendentes",
}

// Label is the tab caption shown to people.
func (t Tab) Label() string {
	if label, ok := tabLabels[t]; ok {
		return label
	}
	return string(t)
}

var tabEmptyMessages = map[Tab]string{
	TabAll:     "Nenhum resultado encontrado.",
	TabSoon:    "Nenhuma visita próxima.",
	TabPending: "Nenhum usuário pendente.",
}

// EmptyMessage is shown when the tab has no rows.
func (t Tab) EmptyMessage() string {
	if msg, ok := tabEmptyMessages[t]; ok {
		return msg
	}
	return tabEmptyMessages[TabAll]
}

// ParseTab accepts a tab id, case-insensitively.
func ParseTab(s string) (Tab, error) {
	tab := Tab(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tabLabels[tab]; !ok {
		return "", fmt.Errorf("unknown tab %q (want all, soon or pending)", s)
	}
	return tab, nil
}

// Column identifies a table column.
type Column string

const (
	ColumnName         Column = "name"
	ColumnCPF          Column = "cpf"
	ColumnFrequency    Column = "frequency"
	ColumnLastVerified Column = "last_verified"
	ColumnNextVisit    Column = "next_visit"
	ColumnStatus       Column = "status"
)

// Columns lists columns in display order.
var Columns = []Column{ColumnName, ColumnCPF, ColumnFrequency, ColumnLastVerified, ColumnNextVisit, ColumnStatus}

var columnHeaders = map[Column]string{
	ColumnName:         "Nome",
	ColumnCPF:          "CPF",
	ColumnFrequency:    "Frequência (dias)",
	ColumnLastVerified: "Última Verificação",
	ColumnNextVisit:    "Próxima Visita",
	ColumnStatus:       "Status",
}

func (c Column) Header() string {
	if h, ok := columnHeaders[c]; ok {
		return h
	}
	return string(c)
}

// ParseColumn accepts a column id, case-insensitively.
func ParseColumn(s string) (Column, error) {
	col := Column(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := columnHeaders[col]; !ok {
		return "", fmt.Errorf("unknown column %q", s)
	}
	return col, nil
}

// SortSpec orders rows by one column.
type SortSpec struct {
	Column Column `json:"column"`
	Desc   bool   `json:"desc,omitempty"`
}

// ParseSort reads "column" or "-column" (descending).
func ParseSort(s string) (SortSpec, error) {
	s = strings.TrimSpace(s)
	desc := strings.HasPrefix(s, "-")
	col, err := ParseColumn(strings.TrimPrefix(s, "-"))
	if err != nil {
		return SortSpec{}, err
	}
	return SortSpec{Column: col, Desc: desc}, nil
}

// Pagination is the zero-based page cursor.
type Pagination struct {
	PageIndex int `json:"page_index"`
	PageSize  int `json:"page_size"`
}

// ViewState is everything the user can change about the table view. It lives
// for one table session and is only reset by building a new Engine.
type ViewState struct {
	Tab        Tab             `json:"tab"`
	Sorting    []SortSpec      `json:"sorting,omitempty"`
	Visibility map[Column]bool `json:"visibility,omitempty"` // missing means visible
	Selection  map[string]bool `json:"selection,omitempty"`  // subject id -> selected
	Pagination Pagination      `json:"pagination"`
	Filter     string          `json:"filter,omitempty"`

	// ManualOrder is the drag order of subject ids. It only applies while
	// Sorting is empty.
	ManualOrder []string `json:"manual_order,omitempty"`
}

// DefaultViewState is the state of a freshly mounted table.
func DefaultViewState() ViewState {
	return ViewState{
		Tab:        TabAll,
		Visibility: make(map[Column]bool),
		Selection:  make(map[string]bool),
		Pagination: Pagination{PageSize: DefaultPageSize},
	}
}

// Clone deep-copies the state.
func (s ViewState) Clone() ViewState {
	out := s
	out.Sorting = append([]SortSpec(nil), s.Sorting...)
	out.ManualOrder = append([]string(nil), s.ManualOrder...)
	out.Visibility = make(map[Column]bool, len(s.Visibility))
	for k, v := range s.Visibility {
		out.Visibility[k] = v
	}
	out.Selection = make(map[string]bool, len(s.Selection))
	for k, v := range s.Selection {
		if v {
			out.Selection[k] = true
		}
	}
	return out
}

// Sorted reports whether a column sort is active.
func (s ViewState) Sorted() bool {
	return len(s.Sorting) > 0
}

func (s ViewState) normalize() ViewState {
	if s.Tab == "" {
		s.Tab = TabAll
	}
	if s.Pagination.PageSize <= 0 {
		s.Pagination.PageSize = DefaultPageSize
	}
	if s.Pagination.PageIndex < 0 {
		s.Pagination.PageIndex = 0
	}
	if s.Visibility == nil {
		s.Visibility = make(map[Column]bool)
	}
	if s.Selection == nil {
		s.Selection = make(map[string]bool)
	}
	return s
}
