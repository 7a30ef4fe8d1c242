package cli

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/visitwatch/internal/visittui"
)

type uiFlags struct {
	theme    string
	pageSize int
}

func newUICmd(rt *runtime) *cobra.Command {
	var f uiFlags
	cmd := &cobra.Command{
		Use:         "ui",
		Aliases:     []string{"dashboard"},
		Short:       "Launch the visit dashboard",
		Long:        "Launch the terminal dashboard. This is also what runs when visitwatch is called without a command.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationTerminal: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, rt, f)
		},
	}
	cmd.Flags().StringVar(&f.theme, "theme", "", "theme: default|high-contrast (default tui.theme)")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "rows per page (default tui.page_size)")
	return cmd
}

func runUI(cmd *cobra.Command, rt *runtime, f uiFlags) error {
	if !hasTTY() {
		return Exitf(ExitCodeFailure, "the dashboard needs an interactive terminal; use `%s list` instead", cmd.Root().Name())
	}

	tuiCfg, err := rt.dashboardConfig(f)
	if err != nil {
		return err
	}
	return visittui.Run(tuiCfg)
}

func (rt *runtime) dashboardConfig(f uiFlags) (visittui.Config, error) {
	c, err := rt.client()
	if err != nil {
		return visittui.Config{}, err
	}
	classifier, err := rt.classifier()
	if err != nil {
		return visittui.Config{}, Exitf(ExitCodeFailure, "%v", err)
	}

	cfg := visittui.Config{
		Source:          c,
		Theme:           rt.cfg.TUI.Theme,
		PageSize:        rt.cfg.TUI.PageSize,
		RefreshInterval: rt.cfg.TUI.RefreshInterval,
		ToastDuration:   rt.cfg.TUI.ToastDuration,
		Clock:           rt.clock,
		Classifier:      classifier,
		Logger:          rt.logger("ui"),
	}
	if f.theme != "" {
		cfg.Theme = f.theme
	}
	if f.pageSize > 0 {
		cfg.PageSize = f.pageSize
	}
	return cfg, nil
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
