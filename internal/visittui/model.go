// Package visittui is the terminal dashboard: tabbed subject table with
// visit recording.
package visittui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/tOgg1/visitwatch/internal/models"
	"github.com/tOgg1/visitwatch/internal/recorder"
	"github.com/tOgg1/visitwatch/internal/schedule"
	"github.com/tOgg1/visitwatch/internal/table"
	"github.com/tOgg1/visitwatch/internal/visittui/styles"
)

const (
	defaultToastDuration = 3 * time.Second
	fetchTimeout         = 30 * time.Second
)

// Source is the backend the dashboard reads from and records visits to.
// *client.Client satisfies it.
type Source interface {
	FetchSubjects(ctx context.Context) ([]models.Subject, error)
	recorder.Remote
}

// Config configures the dashboard.
type Config struct {
	Source Source
	Theme  string

	PageSize int

	// RefreshInterval re-fetches the working set periodically. Zero disables it.
	RefreshInterval time.Duration
	ToastDuration   time.Duration

	Clock      func() time.Time
	Classifier schedule.Classifier
	Logger     zerolog.Logger
}

func (c Config) normalize() (Config, error) {
	if c.Source == nil {
		return c, fmt.Errorf("%w: subject source is required", models.ErrInvalidArgument)
	}
	if c.PageSize <= 0 {
		c.PageSize = table.DefaultPageSize
	}
	if c.ToastDuration <= 0 {
		c.ToastDuration = defaultToastDuration
	}
	if c.RefreshInterval < 0 {
		c.RefreshInterval = 0
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c, nil
}

type mode int

const (
	modeNormal mode = iota
	modeFilter
	modeConfirm
)

type toast struct {
	text  string
	isErr bool
	seq   int
}

type subjectsLoadedMsg struct {
	gen      uint64
	seq      uint64
	now      time.Time
	subjects []models.Subject
	err      error
}

type visitRecordedMsg struct {
	gen     uint64
	id      string
	subject models.Subject
	err     error
}

type refreshTickMsg struct {
	gen uint64
}

type toastExpiredMsg struct {
	seq int
}

type visitMark struct {
	subject models.Subject
	seq     uint64
}

// Model is the dashboard root model.
type Model struct {
	cfg      Config
	theme    styles.Theme
	keys     keyMap
	engine   *table.Engine
	recorder *recorder.Recorder
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// gen identifies the mounted session; results carrying another gen are dropped.
	gen     uint64
	loadSeq uint64

	width  int
	height int

	loading  bool
	loaded   bool
	loadErr  error
	lastLoad time.Time

	cursor    int
	colFocus  int
	mode      mode
	confirmID string
	pending   map[string]bool
	showHelp  bool

	// visited holds recorded visits until a load issued after them lands.
	visited map[string]visitMark

	filter  textinput.Model
	spinner spinner.Model
	help    help.Model
	pager   paginator.Model

	toast    toast
	toastSeq int
}

func NewModel(cfg Config) (*Model, error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	theme, err := styles.Lookup(normalized.Theme)
	if err != nil {
		return nil, err
	}

	logger := normalized.Logger.With().Str("component", "visittui").Logger()
	engine := table.NewEngine(
		table.WithClock(normalized.Clock),
		table.WithClassifier(normalized.Classifier),
		table.WithPageSize(normalized.PageSize),
		table.WithLogger(logger),
	)
	rec := recorder.New(normalized.Source, nil,
		recorder.WithClock(normalized.Clock),
		recorder.WithLogger(logger),
	)

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "nome ou CPF"
	filter.CharLimit = 64

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = theme.Accent()

	pager := paginator.New()
	pager.Type = paginator.Arabic
	pager.PerPage = normalized.PageSize

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		cfg:      normalized,
		theme:    theme,
		keys:     defaultKeyMap(),
		engine:   engine,
		recorder: rec,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		gen:      1,
		pending:  make(map[string]bool),
		visited:  make(map[string]visitMark),
		filter:   filter,
		spinner:  spin,
		help:     help.New(),
		pager:    pager,
	}
	return m, nil
}

func Run(cfg Config) error {
	model, err := NewModel(cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// Close unmounts the session. Work still in flight is cancelled and its
// results are ignored.
func (m *Model) Close() {
	if m == nil {
		return
	}
	m.gen++
	m.cancel()
	m.recorder.Close()
}

// Engine exposes the view-state engine, mainly for tests.
func (m *Model) Engine() *table.Engine {
	return m.engine
}

func (m *Model) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case subjectsLoadedMsg:
		return m, m.applyLoaded(msg)
	case visitRecordedMsg:
		return m, m.applyVisit(msg)
	case refreshTickMsg:
		if msg.gen != m.gen || m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.loadCmd(), m.spinner.Tick)
	case toastExpiredMsg:
		if msg.seq == m.toast.seq {
			m.toast = toast{}
		}
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) busy() bool {
	return m.loading || len(m.pending) > 0
}

func (m *Model) loadCmd() tea.Cmd {
	m.loadSeq++
	gen, seq := m.gen, m.loadSeq
	ctx, source, clock := m.ctx, m.cfg.Source, m.cfg.Clock
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		subjects, err := source.FetchSubjects(ctx)
		return subjectsLoadedMsg{gen: gen, seq: seq, now: clock(), subjects: subjects, err: err}
	}
}

func (m *Model) recordVisitCmd(id string) tea.Cmd {
	gen, ctx, rec := m.gen, m.ctx, m.recorder
	return func() tea.Msg {
		subject, err := rec.RecordVisit(ctx, id)
		return visitRecordedMsg{gen: gen, id: id, subject: subject, err: err}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	if m.cfg.RefreshInterval <= 0 {
		return nil
	}
	gen := m.gen
	return tea.Tick(m.cfg.RefreshInterval, func(time.Time) tea.Msg { return refreshTickMsg{gen: gen} })
}

func (m *Model) applyLoaded(msg subjectsLoadedMsg) tea.Cmd {
	if msg.gen != m.gen || msg.seq != m.loadSeq {
		return nil
	}
	m.loading = false
	if msg.err != nil {
		m.logger.Error().Err(msg.err).Msg("fetch subjects failed")
		if !m.loaded {
			m.loadErr = msg.err
			return nil
		}
		return tea.Batch(m.setToast("Falha ao atualizar: "+errorText(msg.err), true), m.refreshCmd())
	}

	m.engine.SetWorkingSet(msg.subjects)
	m.reapplyVisits(msg.seq)
	m.loaded = true
	m.loadErr = nil
	m.lastLoad = msg.now
	m.clampCursor()
	m.logger.Debug().Int("subjects", len(msg.subjects)).Msg("working set loaded")
	return m.refreshCmd()
}

func (m *Model) applyVisit(msg visitRecordedMsg) tea.Cmd {
	if msg.gen != m.gen {
		return nil
	}
	delete(m.pending, msg.id)

	if msg.err != nil {
		m.logger.Warn().Err(msg.err).Str("subject_id", msg.id).Msg("record visit failed")
		return m.setToast("Falha ao registrar visita: "+errorText(msg.err), true)
	}
	if err := m.engine.MergeSubject(msg.subject); err != nil {
		m.logger.Warn().Err(err).Str("subject_id", msg.id).Msg("merge recorded visit failed")
		return m.setToast("Visita registrada, mas a lista está desatualizada. Pressione r.", true)
	}
	m.visited[msg.id] = visitMark{subject: msg.subject, seq: m.loadSeq}
	m.clampCursor()
	return m.setToast(fmt.Sprintf("Visita registrada para %s", msg.subject.Name), false)
}

// reapplyVisits merges visits recorded after the load with seq was issued,
// since that snapshot predates them. Every mark is then settled: later loads
// are issued after the visit and carry it.
func (m *Model) reapplyVisits(seq uint64) {
	for id, mark := range m.visited {
		if mark.seq >= seq {
			if err := m.engine.MergeSubject(mark.subject); err != nil {
				m.logger.Debug().Err(err).Str("subject_id", id).Msg("recorded visit not in snapshot")
			}
		}
		delete(m.visited, id)
	}
}

func (m *Model) setToast(text string, isErr bool) tea.Cmd {
	m.toastSeq++
	m.toast = toast{text: text, isErr: isErr, seq: m.toastSeq}
	seq := m.toastSeq
	return tea.Tick(m.cfg.ToastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

func errorText(err error) string {
	var transport *models.TransportError
	if errors.As(err, &transport) && transport.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d", transport.StatusCode)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "tempo esgotado"
	case errors.Is(err, recorder.ErrVisitInFlight):
		return "registro já em andamento"
	}
	text := err.Error()
	if i := strings.LastIndex(text, ": "); i >= 0 && i+2 < len(text) {
		text = text[i+2:]
	}
	return text
}
