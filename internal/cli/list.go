package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/visitwatch/internal/models"
	"github.com/tOgg1/visitwatch/internal/table"
)

type listFlags struct {
	tab      string
	sort     []string
	filter   string
	page     int
	pageSize int
	all      bool
	hide     []string
	json     bool
}

func newListCmd(rt *runtime) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List subjects with their visit schedule",
		Long: "List subjects the way the dashboard shows them: one tab, optionally " +
			"filtered by name or CPF, sorted by columns, one page at a time.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, rt, f)
		},
	}
	cmd.Flags().StringVar(&f.tab, "tab", string(table.TabAll), "tab: all|soon|pending")
	cmd.Flags().StringSliceVar(&f.sort, "sort", nil, "sort columns, \"-\" prefix for descending (e.g. -next_visit,name)")
	cmd.Flags().StringVar(&f.filter, "filter", "", "case-insensitive match on name or CPF")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "rows per page (default tui.page_size)")
	cmd.Flags().BoolVar(&f.all, "all", false, "print every row on one page")
	cmd.Flags().StringSliceVar(&f.hide, "hide", nil, "columns to hide")
	cmd.Flags().BoolVar(&f.json, "json", false, "output as JSON")
	return cmd
}

// listRow is one row of `list --json`.
type listRow struct {
	models.Subject
	NextVisit    string `json:"next_visit,omitempty"`
	DaysUntilDue *int   `json:"days_until_due,omitempty"`
	Status       string `json:"status,omitempty"`
	Badge        string `json:"badge,omitempty"`
	Error        string `json:"error,omitempty"`
}

type listOutput struct {
	Tab       table.Tab        `json:"tab"`
	Counts    map[string]int   `json:"counts"`
	Page      int              `json:"page"`
	PageCount int              `json:"page_count"`
	Total     int              `json:"total"`
	Sorting   []table.SortSpec `json:"sorting,omitempty"`
	Rows      []listRow        `json:"rows"`
}

func runList(cmd *cobra.Command, rt *runtime, f listFlags) error {
	tab, err := table.ParseTab(f.tab)
	if err != nil {
		return usageError(cmd, err.Error())
	}
	specs := make([]table.SortSpec, 0, len(f.sort))
	for _, raw := range f.sort {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		spec, err := table.ParseSort(raw)
		if err != nil {
			return usageError(cmd, err.Error())
		}
		specs = append(specs, spec)
	}
	hidden := make([]table.Column, 0, len(f.hide))
	for _, raw := range f.hide {
		col, err := table.ParseColumn(raw)
		if err != nil {
			return usageError(cmd, err.Error())
		}
		hidden = append(hidden, col)
	}
	if len(hidden) >= len(table.Columns) {
		return usageError(cmd, "at least one column must stay visible")
	}
	if f.page < 1 {
		return usageError(cmd, "--page must be at least 1")
	}
	if f.pageSize < 0 {
		return usageError(cmd, "--page-size must not be negative")
	}

	c, err := rt.client()
	if err != nil {
		return err
	}
	subjects, err := c.FetchSubjects(cmd.Context())
	if err != nil {
		return Exitf(ExitCodeFailure, "fetch subjects: %w", err)
	}

	engine, err := rt.newEngine(f.pageSize)
	if err != nil {
		return Exitf(ExitCodeFailure, "%v", err)
	}
	engine.SetWorkingSet(subjects)
	engine.SetTab(tab)
	engine.SetFilter(f.filter)
	engine.SetSorting(specs)
	for _, col := range hidden {
		engine.SetColumnVisible(col, false)
	}
	if f.all && engine.Len() > 0 {
		engine.SetPageSize(engine.Len())
	}
	engine.SetPageIndex(f.page - 1)
	page := engine.Rows()

	if f.json {
		return writeListJSON(cmd, engine, page)
	}
	return writeListTable(cmd, engine, page)
}

func writeListJSON(cmd *cobra.Command, engine *table.Engine, page table.Page) error {
	out := listOutput{
		Tab:       engine.Tab(),
		Counts:    make(map[string]int, len(table.Tabs)),
		Page:      page.PageIndex + 1,
		PageCount: page.PageCount,
		Total:     page.Total,
		Sorting:   engine.Sorting(),
		Rows:      make([]listRow, 0, len(page.Rows)),
	}
	for _, c := range engine.CountsByTab() {
		out.Counts[string(c.Tab)] = c.Count
	}
	for _, r := range page.Rows {
		row := listRow{Subject: r.Subject}
		if r.Classified() {
			days := r.Info.DaysUntilDue
			row.NextVisit = r.Info.FormattedNextDue
			row.DaysUntilDue = &days
			row.Status = string(r.Info.Status())
			row.Badge = r.Info.Badge()
		} else {
			row.Error = r.Err.Error()
		}
		out.Rows = append(out.Rows, row)
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return Exitf(ExitCodeFailure, "encode subjects: %v", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return nil
}

func writeListTable(cmd *cobra.Command, engine *table.Engine, page table.Page) error {
	out := cmd.OutOrStdout()

	counts := engine.CountsByTab()
	tabs := make([]string, 0, len(counts))
	for _, c := range counts {
		label := fmt.Sprintf("%s %d", c.Label, c.Count)
		if c.Tab == engine.Tab() {
			label = "[" + label + "]"
		}
		tabs = append(tabs, label)
	}
	fmt.Fprintln(out, strings.Join(tabs, "  "))

	if len(page.Rows) == 0 {
		fmt.Fprintln(out, engine.Tab().EmptyMessage())
		return nil
	}

	cols := engine.VisibleColumns()
	t := &textTable{maxWidth: 40}
	t.headers = append(t.headers, "ID")
	t.align = append(t.align, alignLeft)
	for _, col := range cols {
		t.headers = append(t.headers, col.Header())
		if col == table.ColumnFrequency {
			t.align = append(t.align, alignRight)
		} else {
			t.align = append(t.align, alignLeft)
		}
	}
	for _, r := range page.Rows {
		cells := []string{r.ID()}
		for _, col := range cols {
			cells = append(cells, r.Cell(col))
		}
		t.addRow(cells...)
	}
	if err := t.write(out); err != nil {
		return err
	}

	fmt.Fprintf(out, "Página %d/%d · %d linha(s)\n", page.PageIndex+1, max(page.PageCount, 1), page.Total)
	return nil
}
