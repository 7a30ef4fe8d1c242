package table

import (
	"fmt"

	"github.com/tOgg1/visitwatch/internal/models"
)

// SetSorting replaces the sort spec. An empty spec falls back to the manual order.
func (e *Engine) SetSorting(specs []SortSpec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Sorting = append([]SortSpec(nil), specs...)
}

// ToggleSort cycles a single-column sort: off, ascending, descending, off.
func (e *Engine) ToggleSort(col Column) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.state.Sorting) == 1 && e.state.Sorting[0].Column == col {
		if !e.state.Sorting[0].Desc {
			e.state.Sorting = []SortSpec{{Column: col, Desc: true}}
			return
		}
		e.state.Sorting = nil
		return
	}
	e.state.Sorting = []SortSpec{{Column: col}}
}

func (e *Engine) Sorting() []SortSpec {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]SortSpec(nil), e.state.Sorting...)
}

// CanReorder reports whether drag reordering is currently allowed.
func (e *Engine) CanReorder() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.state.Sorted()
}

// Reorder applies a dragged order. ids is the new order of some rows (usually
// the current RowIDs); rows not named keep their slots. It never changes the
// column sort, and is refused while one is active.
func (e *Engine) Reorder(ids []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Sorted() {
		return ErrReorderDisabled
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := e.index[id]; !ok {
			return fmt.Errorf("%w: unknown subject %q in reorder", models.ErrInvalidArgument, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: subject %q repeated in reorder", models.ErrInvalidArgument, id)
		}
		seen[id] = true
	}

	full := e.fullOrderLocked()
	e.state.ManualOrder = spliceOrder(full, ids)
	return nil
}

// MoveRow shifts one row by delta positions within the current view.
func (e *Engine) MoveRow(id string, delta int) error {
	ids := e.RowIDs()
	pos := -1
	for i, rowID := range ids {
		if rowID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return fmt.Errorf("%w: %s is not in the current view", models.ErrNotFound, id)
	}
	target := pos + delta
	if target < 0 {
		target = 0
	}
	if target > len(ids)-1 {
		target = len(ids) - 1
	}
	if target == pos {
		return nil
	}
	moved := append([]string(nil), ids[:pos]...)
	moved = append(moved, ids[pos+1:]...)
	moved = append(moved[:target], append([]string{id}, moved[target:]...)...)
	return e.Reorder(moved)
}

// ResetOrder drops the manual order.
func (e *Engine) ResetOrder() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.ManualOrder = nil
}

func (e *Engine) fullOrderLocked() []string {
	rows := make([]Row, len(e.subjects))
	for i, s := range e.subjects {
		rows[i] = Row{Subject: s}
	}
	rows = applyManualOrder(rows, e.state.ManualOrder)
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID()
	}
	return ids
}

// SetPageSize changes the page size and keeps the first visible row on screen.
func (e *Engine) SetPageSize(size int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if size <= 0 {
		size = DefaultPageSize
	}
	top := e.state.Pagination.PageIndex * e.state.Pagination.PageSize
	e.state.Pagination.PageSize = size
	e.state.Pagination.PageIndex = top / size
	e.fixPageLocked(e.clock())
}

// SetPageIndex jumps to a page, clamped to the pages that exist.
func (e *Engine) SetPageIndex(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := len(e.viewRowsLocked(e.clock()))
	last := pageCount(total, e.state.Pagination.PageSize) - 1
	switch {
	case index < 0:
		index = 0
	case index > last:
		index = last
	}
	e.state.Pagination.PageIndex = index
}

func (e *Engine) NextPage() { e.SetPageIndex(e.pagination().PageIndex + 1) }
func (e *Engine) PrevPage() { e.SetPageIndex(e.pagination().PageIndex - 1) }
func (e *Engine) FirstPage() { e.SetPageIndex(0) }

func (e *Engine) LastPage() {
	e.mu.RLock()
	total := len(e.viewRowsLocked(e.clock()))
	size := e.state.Pagination.PageSize
	e.mu.RUnlock()
	e.SetPageIndex(pageCount(total, size) - 1)
}

func (e *Engine) pagination() Pagination {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Pagination
}

func (e *Engine) SetColumnVisible(col Column, visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if visible {
		delete(e.state.Visibility, col)
		return
	}
	e.state.Visibility[col] = false
}

func (e *Engine) ToggleColumn(col Column) {
	e.SetColumnVisible(col, !e.ColumnVisible(col))
}

func (e *Engine) ColumnVisible(col Column) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	visible, ok := e.state.Visibility[col]
	return !ok || visible
}

// VisibleColumns lists the shown columns in display order.
func (e *Engine) VisibleColumns() []Column {
	out := make([]Column, 0, len(Columns))
	for _, col := range Columns {
		if e.ColumnVisible(col) {
			out = append(out, col)
		}
	}
	return out
}

func (e *Engine) SetSelected(id string, selected bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if selected {
		e.state.Selection[id] = true
		return
	}
	delete(e.state.Selection, id)
}

func (e *Engine) ToggleSelected(id string) {
	e.SetSelected(id, !e.IsSelected(id))
}

func (e *Engine) IsSelected(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Selection[id]
}

// SelectPage selects or clears every row on the current page.
func (e *Engine) SelectPage(selected bool) {
	page := e.Rows()
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range page.Rows {
		if selected {
			e.state.Selection[r.ID()] = true
		} else {
			delete(e.state.Selection, r.ID())
		}
	}
}

func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Selection = make(map[string]bool)
}

// Selected returns the selected ids that are still in the working set, in
// working set order.
func (e *Engine) Selected() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []string
	for _, s := range e.subjects {
		if e.state.Selection[s.ID] {
			out = append(out, s.ID)
		}
	}
	return out
}
