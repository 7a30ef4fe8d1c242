// Package styles holds the dashboard palettes and the lipgloss styles built
// from them.
package styles

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// StatusColors colors a row by visit status.
type StatusColors struct {
	Pending    string
	Soon       string
	OnSchedule string
	Inactive   string
	Invalid    string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header      string
	Footer      string
	TabActive   string
	TabInactive string
	SelectedRow string
	CursorRow   string
}

// ToastColors colors action notices.
type ToastColors struct {
	Success string
	Error   string
	Info    string
}

// Theme defines the dashboard style tokens.
type Theme struct {
	Name        string
	BorderStyle string // "rounded", "normal", "double", "hidden"

	Base   BaseColors
	Status StatusColors
	Chrome ChromeColors
	Toast  ToastColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// Lookup returns the named theme. An empty name is the default theme.
func Lookup(name string) (Theme, error) {
	if name == "" {
		return DefaultTheme, nil
	}
	theme, ok := Themes[name]
	if !ok {
		names := make([]string, 0, len(Themes))
		for n := range Themes {
			names = append(names, n)
		}
		sort.Strings(names)
		return Theme{}, fmt.Errorf("invalid theme %q (available: %v)", name, names)
	}
	return theme, nil
}

func (t Theme) Fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func (t Theme) Muted() lipgloss.Style  { return t.Fg(t.Base.Muted) }
func (t Theme) Accent() lipgloss.Style { return t.Fg(t.Base.Accent).Bold(true) }

func (t Theme) Header() lipgloss.Style {
	return t.Fg(t.Chrome.Header).Bold(true)
}

func (t Theme) Tab(active bool) lipgloss.Style {
	if active {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Base.Background)).
			Background(lipgloss.Color(t.Chrome.TabActive)).
			Bold(true).
			Padding(0, 1)
	}
	return t.Fg(t.Chrome.TabInactive).Padding(0, 1)
}

// Row styles a table row. Cursor wins over selection.
func (t Theme) Row(cursor, selected bool) lipgloss.Style {
	style := t.Fg(t.Base.Foreground)
	switch {
	case cursor:
		style = style.Background(lipgloss.Color(t.Chrome.CursorRow)).Bold(true)
	case selected:
		style = style.Background(lipgloss.Color(t.Chrome.SelectedRow))
	}
	return style
}

// Panel is a bordered box for dialogs and error states.
func (t Theme) Panel() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(t.border()).
		BorderForeground(lipgloss.Color(t.Base.Border)).
		Padding(0, 1)
}

func (t Theme) border() lipgloss.Border {
	switch t.BorderStyle {
	case "normal":
		return lipgloss.NormalBorder()
	case "double":
		return lipgloss.DoubleBorder()
	case "hidden":
		return lipgloss.HiddenBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}
