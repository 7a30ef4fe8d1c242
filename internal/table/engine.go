package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/visitwatch/internal/models"
	"github.com/tOgg1/visitwatch/internal/schedule"
)

// ErrReorderDisabled is returned when rows are dragged while a column sort is active.
var ErrReorderDisabled = errors.New("manual reordering is disabled while a column sort is active")

// Row is one subject plus its classification at derivation time. Err is set
// when the subject could not be classified; such rows only show under TabAll.
type Row struct {
	Subject models.Subject
	Info    schedule.VisitInfo
	Err     error
}

func (r Row) ID() string { return r.Subject.ID }

// Classified reports whether Info is meaningful.
func (r Row) Classified() bool { return r.Err == nil }

// Cell renders one column of the row as plain text.
func (r Row) Cell(col Column) string {
	s := r.Subject
	switch col {
	case ColumnName:
		return s.Name
	case ColumnCPF:
		return s.CPF
	case ColumnFrequency:
		return strconv.Itoa(s.VerifyFrequencyInDays)
	case ColumnLastVerified:
		if !r.Classified() {
			return s.LastVerifiedDate
		}
		return r.Info.FormattedLastVerified
	case ColumnNextVisit:
		if !r.Classified() {
			return "data inválida"
		}
		if badge := r.Info.Badge(); badge != "" {
			return r.Info.FormattedNextDue + " " + badge
		}
		return r.Info.FormattedNextDue
	case ColumnStatus:
		return s.StatusLabel()
	}
	return ""
}

// TabCount is one tab caption with its row count.
type TabCount struct {
	Tab   Tab
	Label string
	Count int
}

// Page is the visible slice of the derived rows.
type Page struct {
	Rows      []Row
	PageIndex int
	PageSize  int
	PageCount int

	// Total is the number of rows after tab and text filtering.
	Total int
}

func (p Page) CanPrev() bool { return p.PageIndex > 0 }
func (p Page) CanNext() bool { return p.PageIndex+1 < p.PageCount }

// Engine owns the working set and the view state. All methods are safe for
// concurrent use; a merge is never observed half applied.
type Engine struct {
	mu sync.RWMutex

	subjects []models.Subject
	index    map[string]int
	state    ViewState

	clock      func() time.Time
	classifier schedule.Classifier
	logger     zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of "today". Tests pin it.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func WithClassifier(c schedule.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

func WithPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.state.Pagination.PageSize = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine builds an engine with an empty working set and default view state.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		index:      make(map[string]int),
		state:      DefaultViewState(),
		clock:      time.Now,
		classifier: schedule.Default,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetWorkingSet replaces the list wholesale. Tab, sort, page, selection and
// manual order are kept; only an invalid page index is reset.
func (e *Engine) SetWorkingSet(subjects []models.Subject) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := make([]models.Subject, 0, len(subjects))
	index := make(map[string]int, len(subjects))
	for _, s := range subjects {
		if _, dup := index[s.ID]; dup {
			e.logger.Warn().Str("subject_id", s.ID).Msg("duplicate subject id in working set, keeping first")
			continue
		}
		if err := s.Validate(); err != nil {
			e.logger.Debug().Str("subject_id", s.ID).Err(err).Msg("subject failed validation")
		}
		index[s.ID] = len(list)
		list = append(list, s)
	}
	e.subjects = list
	e.index = index
	e.fixPageLocked(e.clock())
}

// MergeSubject replaces the entry with the same id in place.
func (e *Engine) MergeSubject(updated models.Subject) error {
	if strings.TrimSpace(updated.ID) == "" {
		return fmt.Errorf("%w: subject id is empty", models.ErrInvalidArgument)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.index[updated.ID]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, updated.ID)
	}
	e.subjects[pos] = updated
	e.fixPageLocked(e.clock())
	return nil
}

// Subjects returns a copy of the working set in its original order.
func (e *Engine) Subjects() []models.Subject {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return models.CloneSubjects(e.subjects)
}

// Subject looks one subject up by id.
func (e *Engine) Subject(id string) (models.Subject, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pos, ok := e.index[id]
	if !ok {
		return models.Subject{}, false
	}
	return e.subjects[pos], true
}

// Len is the working set size.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subjects)
}

// Now is the engine's idea of the current time.
func (e *Engine) Now() time.Time {
	return e.clock()
}

// FilteredFor returns the rows of tab in working set order. Pending and soon
// only ever hold active, classifiable subjects.
func (e *Engine) FilteredFor(tab Tab) []Row {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.filteredLocked(tab, e.classifyAllLocked(e.clock()))
}

// CountsByTab counts every tab. Nothing is cached: classification depends on
// the wall clock.
func (e *Engine) CountsByTab() []TabCount {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rows := e.classifyAllLocked(e.clock())
	out := make([]TabCount, 0, len(Tabs))
	for _, tab := range Tabs {
		out = append(out, TabCount{Tab: tab, Label: tab.Label(), Count: len(e.filteredLocked(tab, rows))})
	}
	return out
}

// Count returns one tab's size.
func (e *Engine) Count(tab Tab) int {
	for _, c := range e.CountsByTab() {
		if c.Tab == tab {
			return c.Count
		}
	}
	return 0
}

// Rows derives the visible page: tab filter, text filter, sort (or manual
// order), paginate.
func (e *Engine) Rows() Page {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()
	rows := e.viewRowsLocked(now)
	e.fixPageWithTotalLocked(len(rows))
	return paginate(rows, e.state.Pagination)
}

// RowIDs lists the ids of the filtered, ordered rows before pagination. It is
// the identity list a drag-and-drop layer works against.
func (e *Engine) RowIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rows := e.viewRowsLocked(e.clock())
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID()
	}
	return ids
}

// State returns a copy of the view state.
func (e *Engine) State() ViewState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// Restore replaces the view state, for example when a view is rebuilt.
func (e *Engine) Restore(state ViewState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state.Clone().normalize()
	e.fixPageLocked(e.clock())
}

func (e *Engine) SetTab(tab Tab) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tab == "" {
		tab = TabAll
	}
	e.state.Tab = tab
	e.fixPageLocked(e.clock())
}

func (e *Engine) Tab() Tab {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Tab
}

func (e *Engine) SetFilter(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Filter = text
	e.fixPageLocked(e.clock())
}

func (e *Engine) Filter() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Filter
}

func (e *Engine) classifyAllLocked(now time.Time) []Row {
	rows := make([]Row, len(e.subjects))
	for i, s := range e.subjects {
		info, err := e.classifier.Classify(s, now)
		rows[i] = Row{Subject: s, Info: info, Err: err}
	}
	return rows
}

func (e *Engine) filteredLocked(tab Tab, rows []Row) []Row {
	if tab == TabAll || tab == "" {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !r.Subject.Active || !r.Classified() {
			continue
		}
		switch tab {
		case TabPending:
			if r.Info.IsPending {
				out = append(out, r)
			}
		case TabSoon:
			if r.Info.IsSoon {
				out = append(out, r)
			}
		}
	}
	return out
}

func (e *Engine) viewRowsLocked(now time.Time) []Row {
	rows := e.filteredLocked(e.state.Tab, e.classifyAllLocked(now))
	rows = filterText(rows, e.state.Filter)
	if e.state.Sorted() {
		sortRows(rows, e.state.Sorting)
	} else {
		rows = applyManualOrder(rows, e.state.ManualOrder)
	}
	return rows
}

func (e *Engine) fixPageLocked(now time.Time) {
	e.fixPageWithTotalLocked(len(e.viewRowsLocked(now)))
}

// fixPageWithTotalLocked resets to the first page only when the current page
// no longer exists.
func (e *Engine) fixPageWithTotalLocked(total int) {
	if e.state.Pagination.PageIndex >= pageCount(total, e.state.Pagination.PageSize) {
		e.state.Pagination.PageIndex = 0
	}
}

func filterText(rows []Row, text string) []Row {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(searchText(r), needle) {
			out = append(out, r)
		}
	}
	return out
}

func searchText(r Row) string {
	parts := []string{
		r.Subject.Name,
		r.Subject.CPF,
		strconv.Itoa(r.Subject.VerifyFrequencyInDays),
		r.Subject.StatusLabel(),
	}
	if r.Classified() {
		parts = append(parts, r.Info.FormattedLastVerified, r.Info.FormattedNextDue, r.Info.Badge())
	} else {
		parts = append(parts, r.Subject.LastVerifiedDate)
	}
	return strings.ToLower(strings.Join(parts, "\x00"))
}

func pageCount(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

func paginate(rows []Row, p Pagination) Page {
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page := Page{
		PageIndex: p.PageIndex,
		PageSize:  size,
		PageCount: pageCount(len(rows), size),
		Total:     len(rows),
	}
	start := p.PageIndex * size
	if start >= len(rows) {
		page.Rows = []Row{}
		return page
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	page.Rows = append([]Row(nil), rows[start:end]...)
	return page
}
