// Package cli implements the visitwatch command line.
package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tOgg1/visitwatch/internal/client"
	"github.com/tOgg1/visitwatch/internal/config"
	"github.com/tOgg1/visitwatch/internal/logging"
	"github.com/tOgg1/visitwatch/internal/schedule"
	"github.com/tOgg1/visitwatch/internal/table"
)

// annotationTerminal marks commands that own the terminal; their logs go to
// the configured file or nowhere.
const annotationTerminal = "visitwatch/terminal"

func Execute(version string) error {
	return newRootCmd(version, &runtime{}).Execute()
}

// runtime is the state shared by every command of one invocation.
type runtime struct {
	configFile string
	logLevel   string
	logFormat  string
	apiURL     string

	cfg       *config.Config
	loader    *config.Loader
	logCloser io.Closer

	// clock is overridden in tests.
	clock func() time.Time
}

func newRootCmd(version string, rt *runtime) *cobra.Command {
	if rt.clock == nil {
		rt.clock = time.Now
	}

	cmd := &cobra.Command{
		Use:   "visitwatch",
		Short: "Track periodic visits to monitored subjects",
		Long: "visitwatch shows which monitored subjects are due for a visit, " +
			"records visits, and runs the subject service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		Annotations:   map[string]string{annotationTerminal: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rt.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, rt, uiFlags{})
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&rt.configFile, "config", "", "config file (default is $HOME/.config/visitwatch/config.yaml)")
	flags.StringVar(&rt.logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	flags.StringVar(&rt.logFormat, "log-format", "", "override logging format (json, console)")
	flags.StringVar(&rt.apiURL, "api-url", "", "subject service base URL (overrides api.base_url)")

	cmd.AddCommand(
		newUICmd(rt),
		newListCmd(rt),
		newVisitCmd(rt),
		newServeCmd(rt),
		newImportCmd(rt),
	)
	return cmd
}

func (rt *runtime) init(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if rt.configFile != "" {
		loader.SetConfigFile(rt.configFile)
	}
	if v := strings.TrimSpace(rt.apiURL); v != "" {
		loader.Set("api.base_url", v)
	}
	if v := strings.TrimSpace(rt.logLevel); v != "" {
		loader.Set("logging.level", v)
	}
	if v := strings.TrimSpace(rt.logFormat); v != "" {
		loader.Set("logging.format", v)
	}

	cfg, err := loader.Load()
	if err != nil {
		return Exitf(ExitCodeFailure, "load config: %v", err)
	}

	fallback := cmd.ErrOrStderr()
	if cmd.Annotations[annotationTerminal] == "true" {
		fallback = io.Discard
	}
	out, closer, err := logging.Output(cfg.Logging.File, fallback)
	if err != nil {
		return Exitf(ExitCodeFailure, "open log file: %v", err)
	}
	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       out,
		EnableCaller: cfg.Logging.EnableCaller,
		NoColor:      cfg.Logging.File != "",
	})
	if used := loader.ConfigFileUsed(); used != "" {
		logging.Debug().Str("config_file", used).Msg("loaded config file")
	}

	rt.cfg = cfg
	rt.loader = loader
	rt.logCloser = closer
	return nil
}

func (rt *runtime) close() error {
	if rt.logCloser == nil {
		return nil
	}
	err := rt.logCloser.Close()
	rt.logCloser = nil
	return err
}

func (rt *runtime) logger(component string) zerolog.Logger {
	return logging.Component(component)
}

func (rt *runtime) client() (*client.Client, error) {
	c, err := client.New(rt.cfg.API.BaseURL,
		client.WithTimeout(rt.cfg.API.Timeout),
		client.WithLogger(rt.logger("client")),
	)
	if err != nil {
		return nil, Exitf(ExitCodeFailure, "subject service client: %v", err)
	}
	return c, nil
}

func (rt *runtime) classifier() (schedule.Classifier, error) {
	loc, err := rt.cfg.Location()
	if err != nil {
		return schedule.Classifier{}, fmt.Errorf("schedule timezone: %w", err)
	}
	return schedule.Classifier{SoonHorizonDays: rt.cfg.Schedule.SoonHorizonDays, Location: loc}, nil
}

func (rt *runtime) newEngine(pageSize int) (*table.Engine, error) {
	classifier, err := rt.classifier()
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = rt.cfg.TUI.PageSize
	}
	return table.NewEngine(
		table.WithClock(rt.clock),
		table.WithClassifier(classifier),
		table.WithPageSize(pageSize),
		table.WithLogger(rt.logger("table")),
	), nil
}
