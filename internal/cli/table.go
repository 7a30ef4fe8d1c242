package cli

import (
	"bufio"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const tablePadding = 2

type alignment int

const (
	alignLeft alignment = iota
	alignRight
)

// textTable lays out rows in padded columns sized by display width, so
// accented names and wide runes line up.
type textTable struct {
	headers []string
	align   []alignment
	rows    [][]string

	// maxWidth truncates any cell wider than this. Zero means no limit.
	maxWidth int
}

func (t *textTable) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *textTable) columns() int {
	n := len(t.headers)
	for _, row := range t.rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

func (t *textTable) cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	value := row[idx]
	if t.maxWidth > 0 {
		value = runewidth.Truncate(value, t.maxWidth, "…")
	}
	return value
}

func (t *textTable) widths(cols int) []int {
	widths := make([]int, cols)
	measure := func(row []string) {
		for idx := 0; idx < cols; idx++ {
			if w := runewidth.StringWidth(t.cell(row, idx)); w > widths[idx] {
				widths[idx] = w
			}
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func (t *textTable) write(out io.Writer) error {
	cols := t.columns()
	if cols == 0 {
		return nil
	}
	widths := t.widths(cols)

	w := bufio.NewWriter(out)
	writeRow := func(row []string) {
		var line strings.Builder
		for idx := 0; idx < cols; idx++ {
			value := t.cell(row, idx)
			last := idx == cols-1
			if idx < len(t.align) && t.align[idx] == alignRight {
				value = runewidth.FillLeft(value, widths[idx])
			} else if !last {
				value = runewidth.FillRight(value, widths[idx])
			}
			line.WriteString(value)
			if !last {
				line.WriteString(strings.Repeat(" ", tablePadding))
			}
		}
		w.WriteString(strings.TrimRight(line.String(), " "))
		w.WriteByte('\n')
	}

	if len(t.headers) > 0 {
		writeRow(t.headers)
	}
	for _, row := range t.rows {
		writeRow(row)
	}
	return w.Flush()
}
